package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mestre-rpg/mestre/pkg/chat"
	"github.com/mestre-rpg/mestre/pkg/prompts"
)

// TurnResult is the structured outcome of one conversational oracle call.
// Narration and Options are always populated; a malformed oracle response is
// degraded into defaults at the gateway boundary, never propagated as an
// error.
type TurnResult struct {
	Narration    string            `json:"narration"`
	Options      []string          `json:"options"`
	RequiresRoll *chat.PendingRoll `json:"requiresRoll,omitempty"`
}

// Oracle is the boundary to the narrative-generation service.
type Oracle interface {
	// OpenSession requests the opening narration for a brand-new game.
	OpenSession(ctx context.Context) (string, error)

	// Chat sends the windowed conversation history plus the new player
	// message and returns the narrator's structured turn.
	Chat(ctx context.Context, history []chat.Message, message string) (*TurnResult, error)

	// SceneImage generates an illustration for a narration excerpt.
	// Returns an empty URL when the model produced no image.
	SceneImage(ctx context.Context, prompt string) (string, error)
}

// ParseTurnResult applies the oracle response contract. Valid JSON with the
// expected fields passes through; anything else falls back to the raw text
// (or the generic continuation message) with the default option set.
func ParseTurnResult(raw string) *TurnResult {
	cleaned := stripFences(strings.TrimSpace(raw))

	var result TurnResult
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		if result.Narration == "" {
			result.Narration = prompts.FallbackNarration
		}
		if len(result.Options) == 0 {
			result.Options = prompts.DefaultOptions()
		}
		return &result
	}

	narration := strings.TrimSpace(raw)
	if narration == "" {
		narration = prompts.FallbackNarration
	}
	return &TurnResult{
		Narration: narration,
		Options:   prompts.DefaultOptions(),
	}
}

// stripFences removes a markdown code fence the model sometimes wraps JSON in.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// credentialErrFragment is the signature of the key-not-found failure class
// returned when the configured API key cannot access the model.
const credentialErrFragment = "Requested entity was not found"

// IsCredentialError reports whether an oracle failure should prompt the user
// to reselect credentials rather than simply retry.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), credentialErrFragment)
}

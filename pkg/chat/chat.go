package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SenderNarrator = "narrator" // the oracle's DM voice
	SenderPlayer   = "player"
)

// Oracle-side conversation roles. These follow the Gemini API naming:
// the narrator's past turns are "model" turns, the player's are "user" turns.
const (
	RoleModel = "model"
	RoleUser  = "user"
)

// PendingRoll gates player input until a die is rolled. At most one may be
// outstanding per session.
type PendingRoll struct {
	Type string `json:"type"` // attribute or skill being tested, e.g. "Percepção"
}

// LogEntry is a single turn in the session log. The log is append-only:
// entries are never edited or reordered once written.
type LogEntry struct {
	ID               string       `json:"id"`
	Sender           string       `json:"sender"` // SenderNarrator or SenderPlayer
	Text             string       `json:"text"`
	Timestamp        time.Time    `json:"timestamp"`
	SuggestedOptions []string     `json:"options,omitempty"`
	PendingRoll      *PendingRoll `json:"requiresRoll,omitempty"`
	SceneImageURL    string       `json:"sceneImageUrl,omitempty"`
}

// NewEntry creates a log entry with a fresh ID and timestamp.
func NewEntry(sender, text string) LogEntry {
	return LogEntry{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// Message is a single conversation message as sent to the oracle.
type Message struct {
	Role string `json:"role"` // RoleModel or RoleUser
	Text string `json:"text"`
}

// HistoryWindow maps the most recent limit entries of the log into oracle
// messages. Older history is dropped, not summarized. Only the entry text
// contributes; options, rolls and images stay local.
func HistoryWindow(log []LogEntry, limit int) []Message {
	start := 0
	if len(log) > limit {
		start = len(log) - limit
	}

	messages := make([]Message, 0, len(log)-start)
	for _, entry := range log[start:] {
		role := RoleUser
		if entry.Sender == SenderNarrator {
			role = RoleModel
		}
		messages = append(messages, Message{Role: role, Text: entry.Text})
	}
	return messages
}

// ValidateTurnText rejects blank player input before it reaches the log.
func ValidateTurnText(text string) bool {
	return strings.TrimSpace(text) != ""
}

package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mestre-rpg/mestre/pkg/chat"
	"github.com/mestre-rpg/mestre/pkg/prompts"
)

const (
	DefaultStoryModel = "gemini-3-pro-preview"
	DefaultImageModel = "gemini-2.5-flash-image"
)

// GeminiService implements Oracle using the Gemini API.
type GeminiService struct {
	client     *genai.Client
	storyModel string
	imageModel string
	logger     *slog.Logger
}

var _ Oracle = (*GeminiService)(nil)

// NewGeminiService creates a Gemini-backed oracle.
func NewGeminiService(ctx context.Context, apiKey, storyModel, imageModel string, logger *slog.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if storyModel == "" {
		storyModel = DefaultStoryModel
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}

	return &GeminiService{
		client:     client,
		storyModel: storyModel,
		imageModel: imageModel,
		logger:     logger,
	}, nil
}

func (g *GeminiService) Close() error {
	return g.client.Close()
}

func (g *GeminiService) OpenSession(ctx context.Context) (string, error) {
	model := g.client.GenerativeModel(g.storyModel)
	model.SystemInstruction = systemContent()

	resp, err := model.GenerateContent(ctx, genai.Text(prompts.OpeningPrompt))
	if err != nil {
		return "", fmt.Errorf("opening call failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("oracle returned an empty opening narration")
	}
	return text, nil
}

func (g *GeminiService) Chat(ctx context.Context, history []chat.Message, message string) (*TurnResult, error) {
	model := g.client.GenerativeModel(g.storyModel)
	model.SystemInstruction = systemContent()
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = turnSchema()

	cs := model.StartChat()
	cs.History = make([]*genai.Content, 0, len(history))
	for _, m := range history {
		cs.History = append(cs.History, &genai.Content{
			Role:  m.Role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return nil, fmt.Errorf("chat call failed: %w", err)
	}

	return ParseTurnResult(responseText(resp)), nil
}

func (g *GeminiService) SceneImage(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.imageModel)

	// The image API has no structured aspect-ratio knob here; the hint
	// rides along in the prompt.
	resp, err := model.GenerateContent(ctx, genai.Text(prompt+" Cinematic 16:9 aspect ratio."))
	if err != nil {
		return "", fmt.Errorf("image call failed: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if blob, ok := part.(genai.Blob); ok {
				return "data:" + blob.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(blob.Data), nil
			}
		}
	}

	g.logger.Debug("Image response carried no inline image", "model", g.imageModel)
	return "", nil
}

func systemContent() *genai.Content {
	return &genai.Content{
		Parts: []genai.Part{genai.Text(prompts.SystemInstruction)},
	}
}

// turnSchema is the structured-output contract for conversational turns.
func turnSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"narration": {
				Type:        genai.TypeString,
				Description: "A descrição narrativa da cena em português.",
			},
			"options": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Lista de 3 a 4 ações sugeridas para o jogador.",
			},
			"requiresRoll": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type": {
						Type:        genai.TypeString,
						Description: "O tipo de atributo ou perícia exigida (ex: Força, Percepção).",
					},
				},
				Description: "Obrigatório se uma ação exigir um teste de dado.",
			},
		},
		Required: []string{"narration", "options"},
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

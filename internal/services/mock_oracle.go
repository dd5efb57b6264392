package services

import (
	"context"
	"sync"

	"github.com/mestre-rpg/mestre/pkg/chat"
	"github.com/mestre-rpg/mestre/pkg/prompts"
)

// MockOracle is a mock implementation of Oracle for testing.
type MockOracle struct {
	OpenSessionFunc func(ctx context.Context) (string, error)
	ChatFunc        func(ctx context.Context, history []chat.Message, message string) (*TurnResult, error)
	SceneImageFunc  func(ctx context.Context, prompt string) (string, error)

	// Track calls for testing
	OpenSessionCalls int
	ChatCalls        []ChatCall
	SceneImageCalls  []string

	mu sync.Mutex // protects all fields above
}

type ChatCall struct {
	History []chat.Message
	Message string
}

var _ Oracle = (*MockOracle)(nil)

// NewMockOracle creates a new mock oracle.
func NewMockOracle() *MockOracle {
	return &MockOracle{
		ChatCalls:       make([]ChatCall, 0),
		SceneImageCalls: make([]string, 0),
	}
}

func (m *MockOracle) OpenSession(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OpenSessionCalls++

	if m.OpenSessionFunc != nil {
		return m.OpenSessionFunc(ctx)
	}
	return "Bem-vindo, aventureiro! Crie seu personagem para começar.", nil
}

func (m *MockOracle) Chat(ctx context.Context, history []chat.Message, message string) (*TurnResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChatCalls = append(m.ChatCalls, ChatCall{History: history, Message: message})

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, history, message)
	}
	return &TurnResult{
		Narration: "A história continua.",
		Options:   prompts.DefaultOptions(),
	}, nil
}

func (m *MockOracle) SceneImage(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SceneImageCalls = append(m.SceneImageCalls, prompt)

	if m.SceneImageFunc != nil {
		return m.SceneImageFunc(ctx, prompt)
	}
	return "", nil
}

// Reset clears all call tracking.
func (m *MockOracle) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OpenSessionCalls = 0
	m.ChatCalls = make([]ChatCall, 0)
	m.SceneImageCalls = make([]string, 0)
}

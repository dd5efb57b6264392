package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// rollFrames is how many animation frames the die tumbles before settling.
const rollFrames = 14

func rollD20() int {
	roll, err := dice.NewRoll(1, 20)
	if err != nil {
		return 1
	}
	return roll.GetValue()
}

func (m ConsoleUI) startRollOverlay() (tea.Model, tea.Cmd) {
	m.rolling = true
	m.rollTick = 0
	m.rollFace = rollD20()
	return m, rollTick()
}

// updateRollOverlay advances the tumble animation. The face shown on the
// final frame is the outcome reported to the narrator.
func (m ConsoleUI) updateRollOverlay() (tea.Model, tea.Cmd) {
	if !m.rolling {
		return m, nil
	}

	m.rollTick++
	if m.rollTick < rollFrames {
		m.rollFace = rollD20()
		return m, rollTick()
	}

	m.rolling = false
	outcome := m.rollFace
	m.progressTick = 0
	resolve := m.runEngine(func(ctx context.Context) error {
		return m.engine.ResolveRoll(ctx, outcome)
	})
	return m, tea.Batch(resolve, progressTick())
}

func (m ConsoleUI) renderRollOverlay() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Carregando..."
	}

	rollType := "Sorte"
	if m.view.PendingRoll != nil && m.view.PendingRoll.Type != "" {
		rollType = m.view.PendingRoll.Type
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(fmt.Sprintf("Teste de %s", rollType)))
	content.WriteString("\n\n")
	content.WriteString(diceStyle.Render(fmt.Sprintf("        ⟨ %2d ⟩", m.rollFace)))
	content.WriteString("\n\n")
	content.WriteString(loadingStyle.Render("O d20 rola sobre a mesa..."))

	modal := modalStyle.Width(40).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func rollTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(time.Time) tea.Msg {
		return rollTickMsg{}
	})
}

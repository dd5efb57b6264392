package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mestre-rpg/mestre/pkg/actor"
)

type formField int

const (
	fieldName formField = iota
	fieldGenre
	fieldRace
	fieldClass
	fieldForca
	fieldDestreza
	fieldConstituicao
	fieldInteligencia
	fieldSabedoria
	fieldCarisma
	fieldCount
)

var statLabels = []string{"Força", "Destreza", "Constituição", "Inteligência", "Sabedoria", "Carisma"}

// creationForm holds the in-progress character sheet. Choice fields cycle
// through the predefined lists; the index one past the end means a custom
// value typed by the player.
type creationForm struct {
	field formField

	name        textinput.Model
	customGenre textinput.Model
	customRace  textinput.Model
	customClass textinput.Model

	genreIdx int
	raceIdx  int
	classIdx int

	stats [6]int
}

func newCreationForm() creationForm {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 60
		ti.Width = 30
		return ti
	}

	f := creationForm{
		name:        newInput("Nome do personagem"),
		customGenre: newInput("Descreva o gênero"),
		customRace:  newInput("Descreva a raça"),
		customClass: newInput("Descreva a classe"),
	}
	for i := range f.stats {
		f.stats[i] = 10
	}
	f.name.Focus()
	return f
}

func (f *creationForm) reset() {
	// The genre belongs to the adventure, not the character: it sticks
	// across party members.
	genreIdx := f.genreIdx
	customGenre := f.customGenre

	*f = newCreationForm()
	f.genreIdx = genreIdx
	f.customGenre = customGenre
}

func (f *creationForm) setup() actor.Setup {
	return actor.Setup{
		Name:  strings.TrimSpace(f.name.Value()),
		Genre: choiceAt(actor.Genres, f.genreIdx, f.customGenre.Value()),
		Race:  choiceAt(actor.Races, f.raceIdx, f.customRace.Value()),
		Class: choiceAt(actor.Classes, f.classIdx, f.customClass.Value()),
		Stats: actor.Stats{
			Forca:        f.stats[0],
			Destreza:     f.stats[1],
			Constituicao: f.stats[2],
			Inteligencia: f.stats[3],
			Sabedoria:    f.stats[4],
			Carisma:      f.stats[5],
		},
	}
}

func choiceAt(list []string, idx int, custom string) actor.Choice {
	if idx < len(list) {
		return actor.Predefined(list[idx])
	}
	return actor.Custom(strings.TrimSpace(custom))
}

func (f *creationForm) activeInput() *textinput.Model {
	switch f.field {
	case fieldName:
		return &f.name
	case fieldGenre:
		if f.genreIdx == len(actor.Genres) {
			return &f.customGenre
		}
	case fieldRace:
		if f.raceIdx == len(actor.Races) {
			return &f.customRace
		}
	case fieldClass:
		if f.classIdx == len(actor.Classes) {
			return &f.customClass
		}
	}
	return nil
}

func (f *creationForm) focusField() tea.Cmd {
	for _, ti := range []*textinput.Model{&f.name, &f.customGenre, &f.customRace, &f.customClass} {
		ti.Blur()
	}
	if input := f.activeInput(); input != nil {
		return input.Focus()
	}
	return nil
}

func (f *creationForm) moveField(delta int) tea.Cmd {
	f.field = (f.field + formField(delta) + fieldCount) % fieldCount
	return f.focusField()
}

// cycle moves a selection field left or right, or adjusts a stat.
func (f *creationForm) cycle(delta int) tea.Cmd {
	switch f.field {
	case fieldGenre:
		f.genreIdx = wrapIndex(f.genreIdx+delta, len(actor.Genres)+1)
	case fieldRace:
		f.raceIdx = wrapIndex(f.raceIdx+delta, len(actor.Races)+1)
	case fieldClass:
		f.classIdx = wrapIndex(f.classIdx+delta, len(actor.Classes)+1)
	case fieldForca, fieldDestreza, fieldConstituicao, fieldInteligencia, fieldSabedoria, fieldCarisma:
		i := int(f.field - fieldForca)
		v := f.stats[i] + delta
		if v < actor.StatMin {
			v = actor.StatMin
		}
		if v > actor.StatMax {
			v = actor.StatMax
		}
		f.stats[i] = v
	}
	return f.focusField()
}

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}

func (m ConsoleUI) updateCreation(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if input := m.form.activeInput(); input != nil {
			var cmd tea.Cmd
			*input, cmd = input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	case tea.KeyUp, tea.KeyShiftTab:
		return m, m.form.moveField(-1)
	case tea.KeyDown, tea.KeyTab:
		return m, m.form.moveField(1)
	case tea.KeyLeft:
		return m, m.form.cycle(-1)
	case tea.KeyRight:
		return m, m.form.cycle(1)
	case tea.KeyCtrlX:
		if n := len(m.view.Party); n > 0 {
			return m, m.runEngine(func(ctx context.Context) error {
				return m.engine.RemoveCharacter(ctx, n-1)
			})
		}
		return m, nil
	case tea.KeyCtrlD:
		m.err = nil
		m.progressTick = 0
		return m, tea.Batch(m.runEngine(m.engine.FinishParty), progressTick())
	case tea.KeyEnter:
		setup := m.form.setup()
		// Validate locally so the form keeps its values on error.
		if _, err := actor.NewCharacter(setup); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.form.reset()
		return m, m.runEngine(func(ctx context.Context) error {
			return m.engine.AddCharacter(ctx, setup)
		})
	}

	if input := m.form.activeInput(); input != nil {
		var cmd tea.Cmd
		*input, cmd = input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ConsoleUI) renderCreation() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Carregando..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Criação de Personagens"))
	content.WriteString("\n\n")

	if len(m.view.Party) > 0 {
		content.WriteString(promptStyle.Render("Grupo:") + "\n")
		for _, member := range m.view.Party {
			content.WriteString(fmt.Sprintf("  • %s — %s %s\n", member.Name, member.Race, member.Class))
		}
		content.WriteString("\n")
	}

	content.WriteString(m.renderFormLine(fieldName, "Nome", m.form.name.View()))
	content.WriteString(m.renderChoiceLine(fieldGenre, "Gênero", actor.Genres, m.form.genreIdx, m.form.customGenre))
	content.WriteString(m.renderChoiceLine(fieldRace, "Raça", actor.Races, m.form.raceIdx, m.form.customRace))
	content.WriteString(m.renderChoiceLine(fieldClass, "Classe", actor.Classes, m.form.classIdx, m.form.customClass))
	for i, label := range statLabels {
		field := fieldForca + formField(i)
		value := fmt.Sprintf("◂ %2d ▸", m.form.stats[i])
		content.WriteString(m.renderFormLine(field, label, value))
	}

	content.WriteString("\n")
	if m.err != nil {
		content.WriteString(errorStyle.Render(fmt.Sprintf("Erro: %v", m.err)) + "\n\n")
	}
	content.WriteString(promptStyle.Render("↑/↓ campo · ←/→ valor · Enter adicionar · Ctrl+X remover último\nCtrl+D concluir grupo · Ctrl+C sair"))

	modal := modalStyle.Width(70).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderFormLine(field formField, label, value string) string {
	line := fmt.Sprintf("%-14s %s", label+":", value)
	if m.form.field == field {
		return modalSelectedItemStyle.Render("▶ ") + line + "\n"
	}
	return "  " + line + "\n"
}

func (m ConsoleUI) renderChoiceLine(field formField, label string, list []string, idx int, custom textinput.Model) string {
	var value string
	if idx < len(list) {
		value = fmt.Sprintf("◂ %s ▸", list[idx])
	} else {
		value = "◂ Outro ▸ " + custom.View()
	}
	return m.renderFormLine(field, label, value)
}

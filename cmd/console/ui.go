package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/mestre-rpg/mestre/internal/session"
	"github.com/mestre-rpg/mestre/pkg/chat"
	"github.com/mestre-rpg/mestre/pkg/prompts"
)

const (
	AgentName       = "Mestre"
	PlayerName      = "Você"
	PlaceHolderText = "O que você faz?"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	engine *session.Engine
	view   session.View

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error

	// Landing state
	hasSave       bool
	saveProbed    bool
	landingChoice int

	// Character creation state
	form creationForm

	// Quit and reset confirmation state
	showQuitModal  bool
	showResetModal bool

	// Dice roll overlay state
	rolling  bool
	rollTick int
	rollFace int

	// Progress bar state
	progressTick int

	status string
}

type stateChangedMsg struct{}

type engineDoneMsg struct {
	err error
}

type savedGameMsg struct {
	hasSave bool
}

type progressTickMsg struct{}

type rollTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117")) // light blue

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	diceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)
)

func NewConsoleUI(engine *session.Engine) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		engine:       engine,
		view:         engine.View(),
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		form:         newCreationForm(),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.probeSave(), m.listenUpdates(), textarea.Blink)
}

// listenUpdates blocks on the engine's update channel and converts each
// signal into a BubbleTea message. It is re-issued after every signal.
func (m ConsoleUI) listenUpdates() tea.Cmd {
	return func() tea.Msg {
		<-m.engine.Updates()
		return stateChangedMsg{}
	}
}

func (m ConsoleUI) probeSave() tea.Cmd {
	return func() tea.Msg {
		return savedGameMsg{hasSave: m.engine.HasSavedGame(context.Background())}
	}
}

func (m ConsoleUI) runEngine(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return engineDoneMsg{err: fn(context.Background())}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateChangedMsg:
		m.view = m.engine.View()
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, m.listenUpdates()

	case savedGameMsg:
		m.hasSave = msg.hasSave
		m.saveProbed = true
		if !msg.hasSave {
			m.landingChoice = 1
		}
		return m, nil

	case engineDoneMsg:
		m.view = m.engine.View()
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
		}
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, nil

	case progressTickMsg:
		if m.view.Busy || m.view.Phase == session.PhaseInitializing {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
		return m, nil

	case rollTickMsg:
		return m.updateRollOverlay()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showResetModal {
		return m.updateResetModal(msg)
	}
	if m.view.CredentialPrompt {
		return m.updateCredentialModal(msg)
	}
	if m.rolling {
		// Input is ignored while the die is tumbling.
		return m, nil
	}

	switch m.view.Phase {
	case session.PhaseLanding:
		return m.updateLanding(msg)
	case session.PhaseInitializing:
		return m.updateInitializing(msg)
	case session.PhaseCharacterCreation:
		return m.updateCreation(msg)
	default:
		return m.updatePlay(msg)
	}
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)

	m.ready = true
	m.writeChatContent()
	m.metaViewport.SetContent(m.writeMetadata())
}

func (m ConsoleUI) updateLanding(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	case tea.KeyUp:
		if m.hasSave && m.landingChoice > 0 {
			m.landingChoice--
		}
	case tea.KeyDown:
		if m.landingChoice < 1 {
			m.landingChoice++
		}
	case tea.KeyEnter:
		if !m.saveProbed {
			return m, nil
		}
		if m.hasSave && m.landingChoice == 0 {
			return m, tea.Batch(m.runEngine(m.engine.Resume), progressTick())
		}
		return m, tea.Batch(m.runEngine(m.engine.StartNewGame), progressTick())
	}
	return m, nil
}

func (m ConsoleUI) updateInitializing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyCtrlC || keyMsg.Type == tea.KeyEsc {
			m.showQuitModal = true
		}
	}
	return m, nil
}

func (m ConsoleUI) updatePlay(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlR:
			m.showResetModal = true
			return m, nil
		case tea.KeyCtrlY:
			m.copyLastNarration()
			return m, nil
		case tea.KeyCtrlT:
			return m, m.cycleActiveCharacter()
		case tea.KeyCtrlD:
			if m.view.PendingRoll != nil && !m.view.Busy {
				return m.startRollOverlay()
			}
			return m, nil
		case tea.KeyEnter:
			if m.view.Busy || m.view.PendingRoll != nil {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			m.progressTick = 0
			// Free text is attributed to the acting character so the
			// narrator knows who moved.
			if active := m.activeName(); active != "" {
				input = prompts.PlayerTurn(active, input)
			}
			return m, tea.Batch(m.submitTurn(input), progressTick())
		default:
			if i, ok := optionHotkey(msg.String()); ok {
				return m, m.chooseOption(i)
			}
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// optionHotkey maps alt+1..alt+9 to a suggestion index.
func optionHotkey(key string) (int, bool) {
	if !strings.HasPrefix(key, "alt+") {
		return 0, false
	}
	rest := strings.TrimPrefix(key, "alt+")
	if len(rest) != 1 || rest[0] < '1' || rest[0] > '9' {
		return 0, false
	}
	return int(rest[0] - '1'), true
}

func (m ConsoleUI) chooseOption(i int) tea.Cmd {
	if m.view.Busy || m.view.PendingRoll != nil || i >= len(m.view.Options) {
		return nil
	}
	option := m.view.Options[i]
	return tea.Batch(m.submitTurn(option), progressTick())
}

func (m ConsoleUI) activeName() string {
	if m.view.ActiveIndex >= 0 && m.view.ActiveIndex < len(m.view.Party) {
		return m.view.Party[m.view.ActiveIndex].Name
	}
	return ""
}

func (m ConsoleUI) submitTurn(text string) tea.Cmd {
	return m.runEngine(func(ctx context.Context) error {
		return m.engine.SubmitTurn(ctx, text)
	})
}

func (m ConsoleUI) cycleActiveCharacter() tea.Cmd {
	n := len(m.view.Party)
	if n < 2 {
		return nil
	}
	next := (m.view.ActiveIndex + 1) % n
	return m.runEngine(func(ctx context.Context) error {
		return m.engine.SetActiveCharacter(ctx, next)
	})
}

func (m *ConsoleUI) copyLastNarration() {
	for i := len(m.view.Log) - 1; i >= 0; i-- {
		if m.view.Log[i].Sender == chat.SenderNarrator {
			if err := clipboard.WriteAll(m.view.Log[i].Text); err == nil {
				m.status = "Narração copiada."
			}
			return
		}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEnter:
		return m, tea.Quit
	default:
		switch keyMsg.String() {
		case "y", "Y", "s", "S":
			return m, tea.Quit
		case "n", "N":
			m.showQuitModal = false
			m.textarea.Focus()
			return m, textarea.Blink
		}
	}
	return m, nil
}

func (m ConsoleUI) updateResetModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y", "s", "S":
		m.showResetModal = false
		m.landingChoice = 1
		m.hasSave = false
		return m, m.runEngine(m.engine.Reset)
	case "n", "N", "esc":
		m.showResetModal = false
		m.textarea.Focus()
		return m, textarea.Blink
	}
	return m, nil
}

func (m ConsoleUI) updateCredentialModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter, tea.KeyEsc:
		m.engine.AcknowledgeCredentialPrompt()
		return m, nil
	}
	return m, nil
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderConfirmModal("Sair do jogo?",
			"Sua aventura fica salva e pode ser retomada depois.",
			"Pressione S para sair ou N para continuar jogando")
	}
	if m.showResetModal {
		return m.renderConfirmModal("Reiniciar aventura?",
			"Todo o progresso salvo será apagado. Esta ação não pode ser desfeita.",
			"Pressione S para apagar ou N para voltar")
	}
	if m.view.CredentialPrompt {
		return m.renderCredentialModal()
	}
	if m.rolling {
		return m.renderRollOverlay()
	}

	switch m.view.Phase {
	case session.PhaseLanding:
		return m.renderLanding()
	case session.PhaseInitializing:
		return m.renderInitializing()
	case session.PhaseCharacterCreation:
		return m.renderCreation()
	default:
		return m.renderPlay()
	}
}

func (m ConsoleUI) renderLanding() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Carregando..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("MESTRE"))
	content.WriteString("\n\n")
	content.WriteString("Um RPG de mesa narrado por uma inteligência artificial.\n\n")

	if !m.saveProbed {
		content.WriteString(loadingStyle.Render("Procurando aventuras salvas..."))
	} else {
		choices := []string{"Nova aventura"}
		if m.hasSave {
			choices = []string{"Continuar aventura", "Nova aventura"}
		}
		for i, choice := range choices {
			idx := i
			if !m.hasSave {
				idx = 1
			}
			if idx == m.landingChoice {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", choice)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", choice)))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ para navegar, Enter para escolher, Ctrl+C para sair"))
	}

	if m.err != nil {
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Erro: %v", m.err)))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderInitializing() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Carregando..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Consultando o Oráculo..."))
	content.WriteString("\n\n")
	content.WriteString(loadingStyle.Render("O Mestre prepara sua aventura."))

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderConfirmModal(title, body, hint string) string {
	if m.width == 0 || m.height == 0 {
		return "\n  Carregando..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(title))
	content.WriteString("\n\n")
	content.WriteString(body)
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render(hint))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCredentialModal() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Carregando..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Falha de credencial"))
	content.WriteString("\n\n")
	content.WriteString(errorStyle.Render("A conexão com o Oráculo falhou."))
	content.WriteString("\n\n")
	content.WriteString("Verifique a variável GEMINI_API_KEY e reinicie o cliente\ncom uma chave de API válida.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Pressione Enter para continuar"))

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderPlay() string {
	if !m.ready {
		return "\n  Carregando..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	inputView := m.textarea.View()
	if m.view.PendingRoll != nil && !m.view.Busy {
		rollType := m.view.PendingRoll.Type
		if rollType == "" {
			rollType = "Sorte"
		}
		inputView = diceStyle.Render(fmt.Sprintf("O Mestre pede um teste de %s. Pressione Ctrl+D para rolar o d20.", rollType))
	}

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			inputView,
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// writeChatContent rebuilds the chat viewport from the session log for the
// current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("MESTRE") + "\n\n")
	content.WriteString("Descreva suas ações abaixo para interagir com a história.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	for _, entry := range m.view.Log {
		switch entry.Sender {
		case chat.SenderNarrator:
			prefix := narratorStyle.Render(AgentName + ": ")
			content.WriteString(prefix + wordwrap.String(entry.Text, max(chatWidth-len(AgentName)-2, 10)) + "\n")
			if entry.SceneImageURL != "" {
				content.WriteString(promptStyle.Render("[uma visão da cena se forma diante de você]") + "\n")
			}
			content.WriteString("\n")
		case chat.SenderPlayer:
			content.WriteString(userStyle.Render(PlayerName+": ") + wordwrap.String(entry.Text, max(chatWidth-6, 10)) + "\n\n")
		}
	}

	if len(m.view.Options) > 0 && !m.view.Busy {
		for i, option := range m.view.Options {
			content.WriteString(optionStyle.Render(fmt.Sprintf("  [Alt+%d] %s", i+1, option)) + "\n")
		}
		content.WriteString("\n")
	}

	if m.view.Busy {
		content.WriteString(loadingStyle.Render("O Mestre escreve...") + "\n")
		content.WriteString(m.renderProgressBar())
	}

	if m.status != "" {
		content.WriteString(promptStyle.Render(m.status) + "\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("AVENTURA") + "\n\n")

	if len(m.view.Party) > 0 {
		content.WriteString("Grupo:\n")
		for i, member := range m.view.Party {
			marker := "  "
			if i == m.view.ActiveIndex {
				marker = "▶ "
			}
			content.WriteString(fmt.Sprintf("%s%s\n", marker, member.Name))
			content.WriteString(fmt.Sprintf("   %s %s · PV %d/%d\n", member.Race, member.Class, member.HP, member.MaxHP))
		}
		content.WriteString("\n")
	}

	content.WriteString(fmt.Sprintf("Mensagens:\n%d no total\n\n", len(m.view.Log)))

	content.WriteString("Comandos:\n")
	content.WriteString("• Enter: Enviar\n")
	content.WriteString("• Alt+1..3: Sugestão\n")
	content.WriteString("• Ctrl+D: Rolar d20\n")
	content.WriteString("• Ctrl+T: Trocar personagem\n")
	content.WriteString("• Ctrl+Y: Copiar narração\n")
	content.WriteString("• Ctrl+R: Reiniciar\n")
	content.WriteString("• Ctrl+C: Sair\n")

	return content.String()
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/gatebound/pkg/chat"
	"github.com/jwebster45206/gatebound/pkg/state"
	"github.com/jwebster45206/gatebound/pkg/story"
)

const (
	CompanionName   = "Hae-In"
	NarratorName    = "Narrator"
	PlaceHolderText = "Talk to Hae-In, or /help for commands..."
	requestTimeout  = 45 * time.Second
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api          *apiClient
	gameState    *state.GameState
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool

	// Notices are rendered after the chat: help, errors, server events.
	notices   []string
	lastReply string

	showQuitModal bool
	progressTick  int
}

type stateMsg struct {
	gameState *state.GameState
	notice    string
	err       error
}

type chatReplyMsg struct {
	result *chatResult
	err    error
}

type serverEventMsg SSEEvent

type streamErrMsg struct{ err error }

type progressTickMsg struct{}

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

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	heartStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("204"))

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

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(api *apiClient, gs *state.GameState) ConsoleUI {
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

	return ConsoleUI{
		api:          api,
		gameState:    gs,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: viewport.New(20, 20),
	}
}

func hearts(affection int) string {
	n := state.Hearts(affection)
	return heartStyle.Render(strings.Repeat("♥", n)) + promptStyle.Render(strings.Repeat("♡", 10-n))
}

func writeMetadata(gs *state.GameState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("HUNTER") + "\n\n")
	fmt.Fprintf(&content, "%s  Lv %d\n", gs.PlayerName, gs.Level)
	fmt.Fprintf(&content, "XP   %d\n", gs.Experience)
	fmt.Fprintf(&content, "HP   %d/%d\n", gs.Health, gs.MaxHealth)
	fmt.Fprintf(&content, "MP   %d/%d\n", gs.Mana, gs.MaxMana)
	fmt.Fprintf(&content, "Gold %d\n", gs.Gold)
	if gs.StatPoints > 0 {
		content.WriteString(eventStyle.Render(fmt.Sprintf("%d stat points", gs.StatPoints)) + "\n")
	}

	content.WriteString("\n" + titleStyle.Render(strings.ToUpper(CompanionName)) + "\n\n")
	content.WriteString(hearts(gs.AffectionLevel) + "\n")
	fmt.Fprintf(&content, "%s (%d)\n", gs.RelationshipStatus, gs.AffectionLevel)
	if mood := gs.CompanionMoods[CompanionName]; mood != "" {
		fmt.Fprintf(&content, "Mood: %s\n", mood)
	}

	content.WriteString("\n" + titleStyle.Render("SCENE") + "\n\n")
	fmt.Fprintf(&content, "%s\n", strings.ReplaceAll(gs.CurrentScene, "_", " "))
	if gs.SceneData.TimeOfDay != "" {
		fmt.Fprintf(&content, "%s\n", gs.SceneData.TimeOfDay)
	}

	if len(gs.ActiveQuests) > 0 {
		content.WriteString("\n" + titleStyle.Render("QUESTS") + "\n\n")
		for _, q := range gs.ActiveQuests {
			content.WriteString("• " + q.Title + "\n")
		}
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• /1../9: Choose\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• Ctrl+C: Quit\n")
	return content.String()
}

func formatSpeaker(speaker, text string, style lipgloss.Style, width int) string {
	prefix := speaker + ": "
	return style.Render(prefix) + wordwrap.String(text, max(width-len(prefix), 10))
}

// writeChatContent rebuilds the chat panel for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	width := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	gs := m.gameState

	var content strings.Builder
	content.WriteString(titleStyle.Render("GATEBOUND") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-6, 1))) + "\n\n")

	for _, msg := range gs.ChatHistory {
		switch msg.Role {
		case chat.ChatRoleCompanion:
			content.WriteString(formatSpeaker(CompanionName, msg.Content, speakerStyle, width) + "\n\n")
		case chat.ChatRoleSystem:
			content.WriteString(formatSpeaker(NarratorName, msg.Content, narratorStyle, width) + "\n\n")
		case chat.ChatRoleUser:
			content.WriteString(formatSpeaker("You", msg.Content, userStyle, width) + "\n\n")
		}
	}

	if gs.Narration != "" {
		content.WriteString(formatSpeaker(NarratorName, gs.Narration, narratorStyle, width) + "\n\n")
	}
	for i, c := range gs.Choices {
		line := fmt.Sprintf("/%d  %s", i+1, c.Text)
		if c.Detail != "" {
			line += promptStyle.Render("  " + c.Detail)
		}
		content.WriteString(wordwrap.String(line, width) + "\n")
	}
	if gs.IsEnded() {
		content.WriteString(titleStyle.Render(fmt.Sprintf("The End (%s)", gs.EndingType)) + "\n")
	}
	content.WriteString("\n")

	for _, n := range m.notices {
		content.WriteString(wordwrap.String(n, width) + "\n")
	}
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) notice(s string) {
	m.notices = append(m.notices, s)
	if len(m.notices) > 20 {
		m.notices = m.notices[len(m.notices)-20:]
	}
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6
	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.gameState))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			m.startLoading()
			return m, tea.Batch(m.sendChat(input), progressTick())
		}

	case chatReplyMsg:
		m.loading = false
		switch {
		case msg.err != nil:
			m.showError(msg.err)
		default:
			m.gameState = msg.result.State
			m.lastReply = msg.result.Message
			if msg.result.Fallback {
				m.notice(promptStyle.Render(CompanionName + " is distracted. Nothing was saved."))
				m.notice(formatSpeaker(CompanionName, msg.result.Message, speakerStyle, m.chatViewport.Width-6))
			}
		}
		m.refresh()

	case stateMsg:
		m.loading = false
		if msg.err != nil {
			m.showError(msg.err)
		} else if msg.gameState != nil {
			m.gameState = msg.gameState
		}
		if msg.notice != "" {
			m.notice(msg.notice)
		}
		m.refresh()

	case serverEventMsg:
		if text := describeEvent(SSEEvent(msg)); text != "" {
			m.notice(eventStyle.Render("» " + text))
			m.writeChatContent()
		}

	case streamErrMsg:
		m.notice(errorStyle.Render("Event stream closed: " + msg.err.Error()))
		m.writeChatContent()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) startLoading() {
	m.loading = true
	m.progressTick = 0
	m.writeChatContent()
}

func (m *ConsoleUI) refresh() {
	m.writeChatContent()
	m.metaViewport.SetContent(writeMetadata(m.gameState))
}

// showError reports a failed request. The server returns the unchanged
// state with failed choices and chats.
func (m *ConsoleUI) showError(err error) {
	m.notice(errorStyle.Render("Error: " + err.Error()))
	if ae, ok := err.(*apiError); ok && ae.State != nil {
		m.gameState = ae.State
	}
}

func describeEvent(e SSEEvent) string {
	switch e.Type {
	case "episode.advanced":
		return fmt.Sprintf("Episode %v: %v", e.Data["episode_id"], e.Data["to_beat"])
	case "episode.completed":
		return fmt.Sprintf("Episode %v complete", e.Data["episode_id"])
	case "character.leveled_up":
		return fmt.Sprintf("Level up! Now level %v", e.Data["to_level"])
	}
	return ""
}

var helpText = `Commands:
• /1 ... /9       Make a story choice
• /act <text>     Do something the choices don't offer
• /stat <name>    Spend a stat point (` + strings.Join(state.StatNames, ", ") + `)
• /guide          Ask where the story wants you
• /copy           Copy Hae-In's last reply
• /help           Show this help
• Ctrl+C          Quit

Anything else you type is said to Hae-In.`

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	arg := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	if n, err := strconv.Atoi(cmd); err == nil {
		if n < 1 || n > len(m.gameState.Choices) {
			m.notice(errorStyle.Render(fmt.Sprintf("No choice %d.", n)))
			m.writeChatContent()
			return m, nil
		}
		m.startLoading()
		return m, tea.Batch(m.sendChoice(m.gameState.Choices[n-1].ID, ""), progressTick())
	}

	switch cmd {
	case "help":
		m.notice(helpText)
	case "act":
		if arg == "" {
			m.notice(errorStyle.Render("Usage: /act <what you do>"))
			break
		}
		m.startLoading()
		return m, tea.Batch(m.sendChoice(story.CustomPrefix+strconv.FormatInt(time.Now().UnixNano(), 36), arg), progressTick())
	case "stat":
		return m, m.sendStat(arg)
	case "guide":
		return m, m.sendGuide()
	case "copy":
		if m.lastReply == "" {
			m.notice(promptStyle.Render("Nothing to copy yet."))
			break
		}
		if err := clipboard.WriteAll(m.lastReply); err != nil {
			m.notice(errorStyle.Render("Copy failed: " + err.Error()))
		} else {
			m.notice(promptStyle.Render("Copied."))
		}
	default:
		m.notice(errorStyle.Render("Unknown command " + fields[0] + ". Try /help."))
	}
	m.writeChatContent()
	return m, nil
}

func (m ConsoleUI) sendChat(message string) tea.Cmd {
	id := m.gameState.SessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := m.api.chat(ctx, id, message)
		return chatReplyMsg{res, err}
	}
}

func (m ConsoleUI) sendChoice(choiceID, text string) tea.Cmd {
	id := m.gameState.SessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		gs, err := m.api.choose(ctx, id, choiceID, text)
		return stateMsg{gameState: gs, err: err}
	}
}

func (m ConsoleUI) sendStat(stat string) tea.Cmd {
	id := m.gameState.SessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		gs, err := m.api.allocateStat(ctx, id, stat)
		if err != nil {
			return stateMsg{err: err}
		}
		return stateMsg{gameState: gs, notice: promptStyle.Render("Point spent on " + stat + ".")}
	}
}

func (m ConsoleUI) sendGuide() tea.Cmd {
	id := m.gameState.SessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		text, err := m.api.guidance(ctx, id)
		if err != nil {
			return stateMsg{err: err}
		}
		if text == "" {
			text = "No episode is calling right now."
		}
		return stateMsg{notice: eventStyle.Render("» " + text)}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Gate?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress is saved on the server.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := min(max(m.chatViewport.Width-6, 10), 80)

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓") // Blinking effect at the progress point
		default:
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

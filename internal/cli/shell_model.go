package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/studybot/internal/chat"
	"github.com/alexanderramin/studybot/internal/cli/formatter"
	"github.com/alexanderramin/studybot/internal/notify"
)

// shellChannel is the chat channel the interactive shell talks on.
const shellChannel = "shell"

const maxShellHistory = 100

// reminderMsg carries a fired reminder into the running shell.
type reminderMsg struct {
	n notify.Notification
}

// shellModel is the bubbletea Model for the chat shell.
type shellModel struct {
	input textinput.Model
	width int

	app *App
	ctx context.Context

	// lastReply is the plain text of the most recent router reply.
	lastReply string

	history    []string
	historyIdx int

	quitting bool
}

func newShellModel(ctx context.Context, app *App) shellModel {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.CharLimit = 500
	ti.KeyMap.NextSuggestion = key.NewBinding(key.WithKeys("ctrl+n"))
	ti.KeyMap.PrevSuggestion = key.NewBinding(key.WithKeys("ctrl+p"))

	return shellModel{
		input: ti,
		app:   app,
		ctx:   ctx,
	}
}

func (m shellModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.Println(formatter.FormatShellWelcome()),
	)
}

func (m shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(m.promptPrefix()) - 1
		return m, nil

	case reminderMsg:
		return m, tea.Println(formatter.FormatNotification(msg.n.Text))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyUp:
			m.historyUp()
			return m, nil
		case tea.KeyDown:
			m.historyDown()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m shellModel) View() string {
	if m.quitting {
		return formatter.Dim("Goodbye.") + "\n"
	}
	return m.promptPrefix() + m.input.View()
}

func (m shellModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return m, nil
	}
	m.addHistory(text)

	switch strings.ToLower(text) {
	case "exit", "quit", "종료":
		m.quitting = true
		return m, tea.Quit
	}

	reply := m.app.Router.Handle(m.ctx, shellChannel, text)
	m.lastReply = reply.Text
	echo := formatter.Dim("you ❯ ") + text
	return m, tea.Println(echo + "\n" + formatter.FormatReply(reply.Text))
}

// promptPrefix shows which dialog, if any, is waiting for an answer.
func (m shellModel) promptPrefix() string {
	label := formatter.StylePurple.Render("studybot")
	switch m.app.Router.Session(shellChannel).Pending() {
	case chat.PendingCreate:
		label = formatter.StyleYellow.Render("create")
	case chat.PendingDeleteAll:
		label = formatter.StyleRed.Render("confirm (y/n)")
	}
	return label + " " + formatter.Dim("❯") + " "
}

func (m *shellModel) addHistory(line string) {
	if n := len(m.history); n == 0 || m.history[n-1] != line {
		m.history = append(m.history, line)
	}
	if len(m.history) > maxShellHistory {
		m.history = m.history[len(m.history)-maxShellHistory:]
	}
	m.historyIdx = len(m.history)
}

func (m *shellModel) historyUp() {
	if m.historyIdx == 0 {
		return
	}
	m.historyIdx--
	m.input.SetValue(m.history[m.historyIdx])
	m.input.CursorEnd()
}

func (m *shellModel) historyDown() {
	if m.historyIdx >= len(m.history) {
		return
	}
	m.historyIdx++
	if m.historyIdx == len(m.history) {
		m.input.Reset()
		return
	}
	m.input.SetValue(m.history[m.historyIdx])
	m.input.CursorEnd()
}

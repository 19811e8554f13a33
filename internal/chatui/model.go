// Package chatui provides the Bubble Tea race engineer chat.
package chatui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 80

// Engineer answers driver messages.
type Engineer interface {
	Greeting() string
	Reply(message string) string
}

type line struct {
	fromDriver bool
	text       string
}

// Model implements the chat UI.
type Model struct {
	engineer Engineer
	input    textinput.Model
	log      viewport.Model
	lines    []line

	width  int
	height int
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E10600"))
	driverStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	engineerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2EA043")).Bold(true)
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs a chat model opened with the engineer's greeting.
func NewModel(engineer Engineer) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Ask your race engineer..."
	input.Focus()

	m := &Model{
		engineer: engineer,
		input:    input,
		log:      viewport.New(defaultWidth, 10),
		lines:    []line{{text: engineer.Greeting()}},
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.log.Width = msg.Width
		// Title, blank line, input and footer.
		m.log.Height = max(1, msg.Height-4)
		m.input.Width = max(10, msg.Width-lipgloss.Width(m.input.Prompt)-1)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.send()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.log, cmd = m.log.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	return strings.Join([]string{
		titleStyle.Render("RACE ENGINEER"),
		m.log.View(),
		m.input.View(),
		footerStyle.Render("enter send · pgup/pgdn scroll · esc quit"),
	}, "\n")
}

func (m *Model) send() {
	msg := strings.TrimSpace(m.input.Value())
	if msg == "" {
		return
	}
	m.input.Reset()
	m.lines = append(m.lines,
		line{fromDriver: true, text: msg},
		line{text: m.engineer.Reply(msg)},
	)
	m.refresh()
}

func (m *Model) refresh() {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	m.log.SetContent(renderTranscript(m.lines, width))
	m.log.GotoBottom()
}

func renderTranscript(lines []line, width int) string {
	out := make([]string, 0, len(lines)*2)
	for _, l := range lines {
		label := engineerStyle.Render("Engineer")
		if l.fromDriver {
			label = driverStyle.Render("You")
		}
		out = append(out, label, textStyle.Width(width).Render(l.text), "")
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

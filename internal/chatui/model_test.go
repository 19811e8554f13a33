package chatui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type echoEngineer struct {
	asked []string
}

func (e *echoEngineer) Greeting() string { return "Radio check." }

func (e *echoEngineer) Reply(message string) string {
	e.asked = append(e.asked, message)
	return "Copy: " + message
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestGreetingShownOnOpen(t *testing.T) {
	m := NewModel(&echoEngineer{})
	if out := m.View(); !strings.Contains(out, "Radio check.") {
		t.Fatalf("expected greeting in view:\n%s", out)
	}
}

func TestSendAppendsReply(t *testing.T) {
	eng := &echoEngineer{}
	m := NewModel(eng)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	typeText(m, "  box this lap  ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(eng.asked) != 1 || eng.asked[0] != "box this lap" {
		t.Fatalf("expected trimmed message, got %q", eng.asked)
	}
	if len(m.lines) != 3 || !m.lines[1].fromDriver || m.lines[2].text != "Copy: box this lap" {
		t.Fatalf("unexpected transcript %+v", m.lines)
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input to be cleared, got %q", m.input.Value())
	}
	out := m.View()
	if !strings.Contains(out, "You") || !strings.Contains(out, "Copy: box this lap") {
		t.Fatalf("expected exchange in view:\n%s", out)
	}
}

func TestBlankMessageIgnored(t *testing.T) {
	eng := &echoEngineer{}
	m := NewModel(eng)
	typeText(m, "   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(eng.asked) != 0 || len(m.lines) != 1 {
		t.Fatalf("expected blank message to be ignored")
	}
}

func TestEscQuits(t *testing.T) {
	m := NewModel(&echoEngineer{})
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd == nil {
		t.Fatalf("expected quit command")
	}
}

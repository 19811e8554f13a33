// Package pitui provides the Bubble Tea pit stop screen.
package pitui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/pitwall/internal/model"
	"github.com/verte-zerg/pitwall/internal/pitstop"
)

const (
	defaultTrackWidth = 60
	minTrackWidth     = 12
)

// RunStore persists finished runs and reports the best one so far.
type RunStore interface {
	InsertRun(ctx context.Context, run model.PitRun) (int64, error)
	TopRuns(ctx context.Context, limit int) ([]model.PitRun, error)
}

type frameMsg struct {
	token pitstop.Token
	at    time.Time
}

type feedbackMsg struct{}

// Model implements the pit stop UI.
type Model struct {
	ctx    context.Context
	game   *pitstop.Game
	sched  *pitstop.Scheduler
	clock  clockwork.Clock
	store  RunStore
	logger zerolog.Logger

	token pitstop.Token

	width  int
	height int

	best    int
	hasBest bool
	last    *model.PitRun
	status  string
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E10600"))
	stepStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	trackStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	zoneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#2EA043"))
	markerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	markerHit     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	hitStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#2EA043"))
	missStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errStatusText = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

func cellStyle(c cellKind) lipgloss.Style {
	switch c {
	case cellZone:
		return zoneStyle
	case cellMarker:
		return markerStyle
	case cellMarkerInZone:
		return markerHit
	default:
		return trackStyle
	}
}

// NewModel constructs the pit stop model. The scheduler's clock drives both
// frames and key timestamps.
func NewModel(ctx context.Context, game *pitstop.Game, sched *pitstop.Scheduler, store RunStore, logger zerolog.Logger) *Model {
	m := &Model{
		ctx:    ctx,
		game:   game,
		sched:  sched,
		clock:  sched.Clock(),
		store:  store,
		logger: logger,
	}
	m.loadBest()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case frameMsg:
		if msg.token != m.token || !m.sched.Valid(msg.token) {
			return m, nil
		}
		m.game.Tick(msg.at)
		return m, m.waitFrame()
	case feedbackMsg:
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.stop()
			return m, tea.Quit
		case " ", "enter":
			m.game.Action(m.clock.Now())
			return m, nil
		case "s":
			if m.game.Running() {
				return m, m.stop()
			}
			return m, m.start()
		}
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	frame := m.game.Frame(m.clock.Now())
	trackWidth := defaultTrackWidth
	if m.width > 0 {
		trackWidth = max(minTrackWidth, min(defaultTrackWidth, m.width-4))
	}

	lines := []string{
		titleStyle.Render("PIT STOP CHALLENGE"),
		"",
		stepStyle.Render(stepHeader(frame)),
		"",
		renderTrack(trackCells(trackWidth, frame.Progress, frame.Target)),
		"",
		m.renderFeedback(frame),
		"",
		m.renderFooter(frame, trackWidth),
	}
	content := strings.Join(lines, "\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) start() tea.Cmd {
	now := m.clock.Now()
	m.token = m.sched.Begin()
	m.game.Start(now)
	m.game.Tick(now)
	m.status = ""
	return m.waitFrame()
}

// stop halts the loop and saves the run when there was at least one action.
func (m *Model) stop() tea.Cmd {
	m.sched.Cancel()
	m.token = 0
	now := m.clock.Now()
	run, ok := m.game.Stop(now)
	if !ok {
		return m.expireFeedback(now)
	}
	m.last = &run
	m.saveRun(run)
	return m.expireFeedback(now)
}

func (m *Model) waitFrame() tea.Cmd {
	tok := m.token
	sched := m.sched
	ctx := m.ctx
	return func() tea.Msg {
		at, ok := sched.Next(ctx, tok)
		if !ok {
			return nil
		}
		return frameMsg{token: tok, at: at}
	}
}

// expireFeedback redraws once the feedback message lapses. While running the
// frame loop redraws anyway.
func (m *Model) expireFeedback(now time.Time) tea.Cmd {
	until := m.game.FeedbackExpiry()
	if !until.After(now) {
		return nil
	}
	clock := m.clock
	wait := until.Sub(now)
	return func() tea.Msg {
		<-clock.After(wait)
		return feedbackMsg{}
	}
}

func (m *Model) saveRun(run model.PitRun) {
	if m.store == nil {
		return
	}
	if _, err := m.store.InsertRun(m.ctx, run); err != nil {
		m.logger.Error().Err(err).Msg("failed to save pit run")
		m.status = "run not saved"
		return
	}
	if !m.hasBest || run.Score > m.best {
		m.best = run.Score
		m.hasBest = true
	}
	m.status = "run saved"
}

func (m *Model) loadBest() {
	if m.store == nil {
		return
	}
	top, err := m.store.TopRuns(m.ctx, 1)
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to load best run")
		return
	}
	if len(top) == 0 {
		return
	}
	m.best = top[0].Score
	m.hasBest = true
}

func stepHeader(f pitstop.Frame) string {
	return fmt.Sprintf("Step %d/%d  %s", f.StepIndex+1, pitstop.NumSteps, strings.ToUpper(f.Step))
}

func (m *Model) renderFeedback(f pitstop.Frame) string {
	switch {
	case f.Feedback != "" && strings.HasPrefix(f.Feedback, "Miss"):
		return missStyle.Render(f.Feedback)
	case f.Feedback != "":
		return hitStyle.Render(f.Feedback)
	case !f.Running:
		return idleStyle.Render("press s to start")
	default:
		return " "
	}
}

func (m *Model) renderFooter(f pitstop.Frame, width int) string {
	parts := []string{
		fmt.Sprintf("Score %d", f.Score),
		fmt.Sprintf("Stops %d", f.Attempts),
		fmt.Sprintf("Accuracy %d%%", f.Accuracy),
	}
	if f.Attempts > 0 {
		parts = append(parts, f.Medal)
	}
	if m.hasBest {
		parts = append(parts, fmt.Sprintf("Best %d", m.best))
	}
	if !f.Running && m.last != nil {
		parts = append(parts, fmt.Sprintf("Last %d (%s)", m.last.Score, m.last.Medal))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	text := strings.Join(parts, " · ")
	keys := "space pit · s start/stop · q quit"
	if width > 0 {
		text = runewidth.Truncate(text, width, "…")
		keys = runewidth.Truncate(keys, width, "…")
	}
	if m.status == "run not saved" {
		return errStatusText.Render(text) + "\n" + footerStyle.Render(keys)
	}
	return footerStyle.Render(text) + "\n" + footerStyle.Render(keys)
}

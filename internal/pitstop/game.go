package pitstop

import (
	"fmt"
	"time"

	"github.com/verte-zerg/pitwall/internal/model"
)

// Frame is everything a render surface needs to draw one tick.
type Frame struct {
	Running   bool
	Progress  float64
	Target    Target
	StepIndex int
	Step      string
	Score     int
	Attempts  int
	Hits      int
	Accuracy  int
	Medal     string
	Feedback  string
}

type stepTally struct {
	hits   int
	misses int
	points int
}

// Game holds one pit stop session. It is not safe for concurrent use; the
// owner serializes Start, Stop, Tick and Action.
type Game struct {
	tuning Tuning

	running   bool
	progress  float64
	target    Target
	stepIndex int
	stepStart time.Time
	startedAt time.Time

	score    int
	attempts int
	hits     int
	tallies  []stepTally

	feedback      string
	feedbackUntil time.Time
}

// NewGame returns a stopped game with the given tuning.
func NewGame(tuning Tuning) *Game {
	g := &Game{tuning: tuning}
	g.target = Target{Center: DefaultInitialCenter, Width: tuning.InitialWidth}
	g.tallies = make([]stepTally, NumSteps)
	return g
}

// Tuning returns the game's difficulty constants.
func (g *Game) Tuning() Tuning {
	return g.tuning
}

// Running reports whether the timing loop is active.
func (g *Game) Running() bool {
	return g.running
}

// Start resets the session and begins the first step at now.
func (g *Game) Start(now time.Time) {
	g.score = 0
	g.hits = 0
	g.attempts = 0
	g.tallies = make([]stepTally, NumSteps)
	g.target = Target{Center: DefaultInitialCenter, Width: g.tuning.InitialWidth}
	g.stepIndex = 0
	g.startedAt = now
	g.feedback = ""
	g.feedbackUntil = time.Time{}
	g.beginStep(now)
	g.running = true
}

// Stop halts the loop and resets progress. Stats are kept until the next
// Start. The returned run is valid only when ok is true, i.e. the game was
// running and at least one action was taken.
func (g *Game) Stop(now time.Time) (run model.PitRun, ok bool) {
	wasRunning := g.running
	g.running = false
	g.progress = 0
	if !wasRunning || g.attempts == 0 {
		return model.PitRun{}, false
	}
	return g.run(now), true
}

// Tick advances the timing loop and the target oscillator to now.
func (g *Game) Tick(now time.Time) {
	if !g.running {
		return
	}
	elapsed := now.Sub(g.stepStart)
	if elapsed < 0 {
		elapsed = 0
	}
	g.progress = float64(elapsed%g.tuning.Cycle) / float64(g.tuning.Cycle)
	g.target.Center = Oscillate(g.phaseMs(now), g.stepIndex, g.tuning.MovementSpeed)
}

// Action scores the player's press against the last ticked frame and moves
// on to the next step. It is a no-op while stopped.
func (g *Game) Action(now time.Time) (Outcome, bool) {
	if !g.running {
		return Outcome{}, false
	}
	out := Evaluate(g.progress, g.target, g.tuning.Tolerance)
	tally := &g.tallies[g.stepIndex]
	if out.Hit {
		g.score += out.Points
		g.hits++
		tally.hits++
		tally.points += out.Points
		g.setFeedback(fmt.Sprintf("Nice Hit! +%d", out.Points), now)
	} else {
		g.score -= g.tuning.MissPenalty
		if g.score < 0 {
			g.score = 0
		}
		tally.misses++
		g.setFeedback(fmt.Sprintf("Miss -%d", g.tuning.MissPenalty), now)
	}

	g.attempts++
	g.target.Width -= g.tuning.ShrinkRate
	if g.target.Width < g.tuning.MinWidth {
		g.target.Width = g.tuning.MinWidth
	}
	g.stepIndex = (g.stepIndex + 1) % NumSteps
	g.beginStep(now)
	return out, true
}

// Feedback returns the transient message, empty once it has expired.
func (g *Game) Feedback(now time.Time) string {
	if g.feedback == "" {
		return ""
	}
	if !now.Before(g.feedbackUntil) {
		g.feedback = ""
		return ""
	}
	return g.feedback
}

// FeedbackExpiry is when the current feedback message clears.
func (g *Game) FeedbackExpiry() time.Time {
	return g.feedbackUntil
}

// Frame snapshots the state for rendering.
func (g *Game) Frame(now time.Time) Frame {
	acc := Accuracy(g.hits, g.attempts)
	return Frame{
		Running:   g.running,
		Progress:  g.progress,
		Target:    g.target,
		StepIndex: g.stepIndex,
		Step:      StepLabel(g.stepIndex),
		Score:     g.score,
		Attempts:  g.attempts,
		Hits:      g.hits,
		Accuracy:  acc,
		Medal:     Medal(acc),
		Feedback:  g.Feedback(now),
	}
}

func (g *Game) beginStep(now time.Time) {
	g.stepStart = now
	g.progress = 0
}

func (g *Game) setFeedback(msg string, now time.Time) {
	g.feedback = msg
	g.feedbackUntil = now.Add(g.tuning.FeedbackDuration)
}

func (g *Game) phaseMs(now time.Time) float64 {
	if g.tuning.Phase == PhaseSession {
		return float64(now.Sub(g.startedAt)) / float64(time.Millisecond)
	}
	return float64(now.UnixNano()) / float64(time.Millisecond)
}

func (g *Game) run(now time.Time) model.PitRun {
	acc := Accuracy(g.hits, g.attempts)
	run := model.PitRun{
		StartedAt: g.startedAt,
		EndedAt:   now,
		Score:     g.score,
		Attempts:  g.attempts,
		Hits:      g.hits,
		Accuracy:  acc,
		Medal:     Medal(acc),
	}
	for i, t := range g.tallies {
		if t.hits == 0 && t.misses == 0 {
			continue
		}
		run.Steps = append(run.Steps, model.StepStats{
			Step:   StepLabel(i),
			Hits:   t.hits,
			Misses: t.misses,
			Points: t.points,
		})
	}
	return run
}

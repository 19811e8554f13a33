package pitstop

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/pitwall/internal/model"
)

var t0 = time.Date(2025, 3, 16, 15, 0, 0, 0, time.UTC)

func steadyTuning() Tuning {
	tuning := DefaultTuning()
	tuning.MovementSpeed = 0
	return tuning
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// aimAt ticks the current step so that progress equals p.
func aimAt(g *Game, p float64) time.Time {
	at := g.stepStart.Add(time.Duration(p * float64(g.tuning.Cycle)))
	g.Tick(at)
	return at
}

func TestPerfectHitScenario(t *testing.T) {
	g := NewGame(steadyTuning())
	g.Start(t0)
	at := aimAt(g, 0.5)
	if !approxEqual(g.progress, 0.5) {
		t.Fatalf("expected progress 0.5, got %v", g.progress)
	}
	if !approxEqual(g.target.Center, 0.5) {
		t.Fatalf("expected center 0.5, got %v", g.target.Center)
	}

	out, ok := g.Action(at)
	if !ok {
		t.Fatalf("expected action to be accepted")
	}
	if !out.Hit || out.Points != 100 {
		t.Fatalf("expected 100 point hit, got %+v", out)
	}
	f := g.Frame(at)
	if f.Score != 100 || f.Hits != 1 || f.Attempts != 1 {
		t.Fatalf("unexpected stats: %+v", f)
	}
	if !approxEqual(f.Target.Width, 0.235) {
		t.Fatalf("expected width 0.235, got %v", f.Target.Width)
	}
	if f.StepIndex != 1 || f.Step != "Front Left" {
		t.Fatalf("expected step 1 (Front Left), got %d (%s)", f.StepIndex, f.Step)
	}
	if f.Progress != 0 {
		t.Fatalf("expected progress reset, got %v", f.Progress)
	}
	if f.Feedback != "Nice Hit! +100" {
		t.Fatalf("unexpected feedback %q", f.Feedback)
	}
}

func TestMissScenario(t *testing.T) {
	g := NewGame(steadyTuning())
	g.Start(t0)
	at := aimAt(g, 0.9)
	out, _ := g.Action(at)
	if out.Hit {
		t.Fatalf("expected miss at progress 0.9, got %+v", out)
	}
	if !approxEqual(out.Distance, 0.4) {
		t.Fatalf("expected distance 0.4, got %v", out.Distance)
	}
	f := g.Frame(at)
	if f.Score != 0 || f.Hits != 0 || f.Attempts != 1 {
		t.Fatalf("unexpected stats after miss: %+v", f)
	}
	if f.Feedback != "Miss -10" {
		t.Fatalf("unexpected feedback %q", f.Feedback)
	}
}

func TestMissDeductsFromPositiveScore(t *testing.T) {
	g := NewGame(steadyTuning())
	g.Start(t0)
	g.Action(aimAt(g, 0.5))
	at := aimAt(g, 0.9)
	g.Action(at)
	if got := g.Frame(at).Score; got != 90 {
		t.Fatalf("expected score 90, got %d", got)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	g := NewGame(steadyTuning())
	g.Start(t0)
	for i := 0; i < 10; i++ {
		at := aimAt(g, 0.9)
		if out, _ := g.Action(at); out.Hit {
			t.Fatalf("action %d: expected miss", i)
		}
		if g.score != 0 {
			t.Fatalf("action %d: expected score 0, got %d", i, g.score)
		}
	}
	if g.attempts != 10 || g.hits != 0 {
		t.Fatalf("expected 10 attempts and 0 hits, got %d/%d", g.attempts, g.hits)
	}
}

func TestStepSequenceCycles(t *testing.T) {
	g := NewGame(steadyTuning())
	g.Start(t0)
	want := []int{1, 2, 3, 4, 5, 0}
	for i, w := range want {
		g.Action(aimAt(g, 0.3))
		if g.stepIndex != w {
			t.Fatalf("action %d: expected step %d, got %d", i, w, g.stepIndex)
		}
	}
}

func TestWidthShrinksToFloor(t *testing.T) {
	g := NewGame(DefaultTuning())
	g.Start(t0)
	prev := g.target.Width
	for i := 0; i < 30; i++ {
		attempts := g.attempts
		g.Action(aimAt(g, 0.42))
		if g.attempts != attempts+1 {
			t.Fatalf("action %d: attempts went %d -> %d", i, attempts, g.attempts)
		}
		w := g.target.Width
		if w < DefaultMinWidth {
			t.Fatalf("action %d: width %v below floor", i, w)
		}
		if !(w < prev) && !approxEqual(w, DefaultMinWidth) {
			t.Fatalf("action %d: width %v did not shrink from %v", i, w, prev)
		}
		prev = w
	}
	if !approxEqual(prev, DefaultMinWidth) {
		t.Fatalf("expected width to settle at %v, got %v", DefaultMinWidth, prev)
	}
}

func TestProgressStaysInRange(t *testing.T) {
	g := NewGame(DefaultTuning())
	g.Start(t0)
	for ms := 0; ms < 10000; ms += 37 {
		g.Tick(t0.Add(time.Duration(ms) * time.Millisecond))
		if g.progress < 0 || g.progress >= 1 {
			t.Fatalf("progress %v out of range at %dms", g.progress, ms)
		}
		if g.target.Center < minCenter || g.target.Center > maxCenter {
			t.Fatalf("center %v out of range at %dms", g.target.Center, ms)
		}
	}
	g.Tick(t0.Add(DefaultCycle))
	if g.progress != 0 {
		t.Fatalf("expected progress to wrap to 0 at a full cycle, got %v", g.progress)
	}
	g.Tick(t0.Add(-time.Second))
	if g.progress != 0 {
		t.Fatalf("expected progress 0 for a clock before the step start, got %v", g.progress)
	}
}

func TestStopHaltsLoopAndKeepsStats(t *testing.T) {
	g := NewGame(steadyTuning())
	g.Start(t0)
	g.Action(aimAt(g, 0.5))
	at := aimAt(g, 0.4)
	if g.progress == 0 {
		t.Fatalf("expected non-zero progress mid-cycle")
	}

	run, ok := g.Stop(at)
	if !ok {
		t.Fatalf("expected a run to be reported")
	}
	if g.Running() || g.progress != 0 {
		t.Fatalf("expected stopped game with zero progress")
	}
	g.Tick(at.Add(500 * time.Millisecond))
	if g.progress != 0 {
		t.Fatalf("expected tick to be ignored while stopped, got %v", g.progress)
	}
	if _, ok := g.Action(at.Add(time.Second)); ok {
		t.Fatalf("expected action to be ignored while stopped")
	}
	f := g.Frame(at)
	if f.Score != 100 || f.Attempts != 1 || f.Hits != 1 {
		t.Fatalf("expected stats to survive stop, got %+v", f)
	}

	want := model.PitRun{
		StartedAt: t0,
		EndedAt:   at,
		Score:     100,
		Attempts:  1,
		Hits:      1,
		Accuracy:  100,
		Medal:     MedalPitMaster,
		Steps:     []model.StepStats{{Step: "Jack", Hits: 1, Points: 100}},
	}
	if diff := cmp.Diff(want, run); diff != "" {
		t.Fatalf("unexpected run (-want +got):\n%s", diff)
	}

	g.Start(at.Add(2 * time.Second))
	f = g.Frame(at.Add(2 * time.Second))
	if f.Score != 0 || f.Attempts != 0 || f.Hits != 0 || f.StepIndex != 0 {
		t.Fatalf("expected start to reset stats, got %+v", f)
	}
	if f.Target != (Target{Center: 0.5, Width: 0.25}) {
		t.Fatalf("expected start to reset target, got %+v", f.Target)
	}
}

func TestStopWithoutAttemptsReportsNothing(t *testing.T) {
	g := NewGame(DefaultTuning())
	if _, ok := g.Stop(t0); ok {
		t.Fatalf("expected no run when never started")
	}
	g.Start(t0)
	if _, ok := g.Stop(t0.Add(time.Second)); ok {
		t.Fatalf("expected no run without attempts")
	}
}

func TestFeedbackExpires(t *testing.T) {
	g := NewGame(steadyTuning())
	g.Start(t0)
	at := aimAt(g, 0.5)
	g.Action(at)
	if got := g.Feedback(at.Add(799 * time.Millisecond)); got != "Nice Hit! +100" {
		t.Fatalf("expected feedback before expiry, got %q", got)
	}
	if got := g.Feedback(at.Add(DefaultFeedbackDuration)); got != "" {
		t.Fatalf("expected feedback cleared, got %q", got)
	}

	at = aimAt(g, 0.5)
	g.Action(at)
	next := aimAt(g, 0.95)
	g.Action(next)
	if got := g.Feedback(next.Add(100 * time.Millisecond)); got != "Miss -10" {
		t.Fatalf("expected latest feedback to replace the previous one, got %q", got)
	}
	if !g.FeedbackExpiry().Equal(next.Add(DefaultFeedbackDuration)) {
		t.Fatalf("unexpected feedback expiry %v", g.FeedbackExpiry())
	}
}

func TestOscillatorPhase(t *testing.T) {
	wall := NewGame(DefaultTuning())
	start := time.Unix(100, 0)
	wall.Start(start)
	wall.Tick(start)
	if want := Oscillate(100000, 0, DefaultMovementSpeed); !approxEqual(wall.target.Center, want) {
		t.Fatalf("wall phase: expected center %v, got %v", want, wall.target.Center)
	}

	tuning := DefaultTuning()
	tuning.Phase = PhaseSession
	session := NewGame(tuning)
	session.Start(start)
	session.Tick(start)
	if !approxEqual(session.target.Center, 0.5) {
		t.Fatalf("session phase: expected center 0.5 at start, got %v", session.target.Center)
	}
}

func TestActionScoresLastRenderedFrame(t *testing.T) {
	g := NewGame(steadyTuning())
	g.Start(t0)
	aimAt(g, 0.5)
	// The press lands later than the frame; the player is scored on what was drawn.
	out, _ := g.Action(t0.Add(1300 * time.Millisecond))
	if !out.Hit || out.Points != 100 {
		t.Fatalf("expected scoring against the rendered frame, got %+v", out)
	}
}

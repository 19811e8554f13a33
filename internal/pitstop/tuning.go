// Package pitstop implements the pit stop timing game.
package pitstop

import (
	"fmt"
	"time"
)

// Phase selects the time base used by the target oscillator.
type Phase string

const (
	// PhaseWall drives the oscillator from wall-clock time, so the target
	// jumps after a pause.
	PhaseWall Phase = "wall"
	// PhaseSession drives the oscillator from time elapsed since Start.
	PhaseSession Phase = "session"
)

// Default tuning values.
const (
	DefaultCycle            = 1400 * time.Millisecond
	DefaultMovementSpeed    = 0.25
	DefaultShrinkRate       = 0.015
	DefaultMinWidth         = 0.08
	DefaultTolerance        = 0.04
	DefaultInitialWidth     = 0.25
	DefaultInitialCenter    = 0.5
	DefaultMissPenalty      = 10
	DefaultFeedbackDuration = 800 * time.Millisecond
	DefaultFrameInterval    = 16 * time.Millisecond
)

const (
	minCenter = 0.15
	maxCenter = 0.85
)

var steps = []string{"Jack", "Front Left", "Front Right", "Rear Left", "Rear Right", "Release"}

// NumSteps is the length of the pit stop sequence.
var NumSteps = len(steps)

// StepLabel returns the name of the step at index i, wrapping around the sequence.
func StepLabel(i int) string {
	i %= len(steps)
	if i < 0 {
		i += len(steps)
	}
	return steps[i]
}

// Steps returns a copy of the ordered pit stop sequence.
func Steps() []string {
	return append([]string(nil), steps...)
}

// Tuning holds the difficulty constants of a game.
type Tuning struct {
	Cycle            time.Duration
	MovementSpeed    float64
	ShrinkRate       float64
	MinWidth         float64
	Tolerance        float64
	InitialWidth     float64
	MissPenalty      int
	FeedbackDuration time.Duration
	Phase            Phase
}

// DefaultTuning returns the stock difficulty.
func DefaultTuning() Tuning {
	return Tuning{
		Cycle:            DefaultCycle,
		MovementSpeed:    DefaultMovementSpeed,
		ShrinkRate:       DefaultShrinkRate,
		MinWidth:         DefaultMinWidth,
		Tolerance:        DefaultTolerance,
		InitialWidth:     DefaultInitialWidth,
		MissPenalty:      DefaultMissPenalty,
		FeedbackDuration: DefaultFeedbackDuration,
		Phase:            PhaseWall,
	}
}

// Validate reports the first out-of-range value.
func (t Tuning) Validate() error {
	if t.Cycle <= 0 {
		return fmt.Errorf("cycle must be > 0")
	}
	if t.MovementSpeed < 0 {
		return fmt.Errorf("movement speed must be >= 0")
	}
	if t.ShrinkRate < 0 {
		return fmt.Errorf("shrink rate must be >= 0")
	}
	if t.MinWidth <= 0 || t.MinWidth > 1 {
		return fmt.Errorf("min width must be between 0 and 1")
	}
	if t.InitialWidth < t.MinWidth || t.InitialWidth > 1 {
		return fmt.Errorf("initial width must be between min width and 1")
	}
	if t.Tolerance < 0 {
		return fmt.Errorf("tolerance must be >= 0")
	}
	if t.MissPenalty < 0 {
		return fmt.Errorf("miss penalty must be >= 0")
	}
	switch t.Phase {
	case PhaseWall, PhaseSession:
	default:
		return fmt.Errorf("unknown oscillator phase %q (want %q or %q)", t.Phase, PhaseWall, PhaseSession)
	}
	return nil
}

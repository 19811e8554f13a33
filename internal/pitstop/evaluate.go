package pitstop

import "math"

// Target is the moving zone the player aims for.
type Target struct {
	Center float64
	Width  float64
}

// Outcome is the result of scoring one action.
type Outcome struct {
	Hit      bool
	Points   int
	Distance float64
}

// Evaluate scores a single action taken at progress against target.
// A hit lies within half the zone width plus tolerance; points scale
// linearly from 100 at the center down to 0 at the edge.
func Evaluate(progress float64, target Target, tolerance float64) Outcome {
	dist := math.Abs(progress - target.Center)
	reach := target.Width/2 + tolerance
	if reach <= 0 || dist > reach {
		return Outcome{Distance: dist}
	}
	acc := 1 - dist/reach
	return Outcome{
		Hit:      true,
		Points:   int(math.Round(acc * 100)),
		Distance: dist,
	}
}

// Oscillate computes the target center for a phase offset t in milliseconds.
func Oscillate(tMs float64, stepIndex int, movementSpeed float64) float64 {
	center := 0.5 + math.Sin(tMs/1000+float64(stepIndex))*movementSpeed
	return clamp(center, minCenter, maxCenter)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

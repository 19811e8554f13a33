package pitstop

import "math"

// Medal tiers.
const (
	MedalPitMaster = "Pit Master"
	MedalPro       = "Pro"
	MedalSkilled   = "Skilled"
	MedalRookie    = "Rookie"
)

// Accuracy returns the rounded hit percentage, 0 with no attempts.
func Accuracy(hits, attempts int) int {
	if attempts <= 0 {
		return 0
	}
	return int(math.Round(float64(hits) / float64(attempts) * 100))
}

// Medal grades an accuracy percentage.
func Medal(accuracy int) string {
	switch {
	case accuracy >= 90:
		return MedalPitMaster
	case accuracy >= 70:
		return MedalPro
	case accuracy >= 50:
		return MedalSkilled
	default:
		return MedalRookie
	}
}

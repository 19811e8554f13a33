// Package model defines shared data structures.
package model

import "time"

// SetupDetails is the headline car setup for a track.
type SetupDetails struct {
	Downforce    string `json:"downforce" yaml:"downforce"`
	Suspension   string `json:"suspension" yaml:"suspension"`
	TirePressure string `json:"tirePressure" yaml:"tirePressure"`
	BrakeBias    string `json:"brakeBias" yaml:"brakeBias"`
	Notes        string `json:"notes" yaml:"notes"`
}

// Recommendation is the full answer for a track and weather pair.
type Recommendation struct {
	TrackName       string       `json:"trackName"`
	Weather         string       `json:"weather"`
	Explanation     string       `json:"explanation"`
	Recommendations []string     `json:"recommendations"`
	SetupDetails    SetupDetails `json:"setupDetails"`
}

// HistoryEntry is one remembered setup request.
type HistoryEntry struct {
	ID        string    `json:"id"`
	TrackName string    `json:"trackName"`
	Weather   string    `json:"weather"`
	CreatedAt time.Time `json:"createdAt"`
}

// PitRun captures a completed pit stop game session.
type PitRun struct {
	ID        int64       `json:"id"`
	StartedAt time.Time   `json:"startedAt"`
	EndedAt   time.Time   `json:"endedAt"`
	Score     int         `json:"score"`
	Attempts  int         `json:"attempts"`
	Hits      int         `json:"hits"`
	Accuracy  int         `json:"accuracy"`
	Medal     string      `json:"medal"`
	Steps     []StepStats `json:"steps,omitempty"`
}

// StepStats stores per-step results for a run, or aggregates across runs.
type StepStats struct {
	Step   string `json:"step"`
	Hits   int    `json:"hits"`
	Misses int    `json:"misses"`
	Points int    `json:"points"`
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
}

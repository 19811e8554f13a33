package stats

import (
	"context"

	"github.com/verte-zerg/pitwall/internal/model"
)

// RunSource reads persisted pit stop runs.
type RunSource interface {
	ListRuns(ctx context.Context, cfg model.StatsConfig) ([]model.PitRun, error)
	ListStepAggregatesForRuns(ctx context.Context, runIDs []int64) ([]model.StepStats, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Runs         []model.PitRun
	WindowRunIDs []int64
	StepsAll     []model.StepStats
	StepsWindow  []model.StepStats
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src RunSource, cfg model.StatsConfig) (Report, error) {
	runs, err := src.ListRuns(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(runs) > cfg.Last {
		runs = runs[len(runs)-cfg.Last:]
	}

	windowIDs := lastRunIDs(runs, cfg.CurveWindow)
	stepsAll, err := src.ListStepAggregatesForRuns(ctx, runIDs(runs))
	if err != nil {
		return Report{}, err
	}
	stepsWindow, err := src.ListStepAggregatesForRuns(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Runs:         runs,
		WindowRunIDs: windowIDs,
		StepsAll:     stepsAll,
		StepsWindow:  stepsWindow,
	}, nil
}

func runIDs(runs []model.PitRun) []int64 {
	ids := make([]int64, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func lastRunIDs(runs []model.PitRun, window int) []int64 {
	if window <= 0 || len(runs) <= window {
		return runIDs(runs)
	}
	return runIDs(runs[len(runs)-window:])
}

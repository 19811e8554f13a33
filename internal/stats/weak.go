package stats

import "github.com/verte-zerg/pitwall/internal/model"

// WeakestSteps returns up to top step names with the lowest accuracy. Steps
// that were never attempted are skipped.
func WeakestSteps(aggs []model.StepStats, top int) []string {
	attempted := make([]model.StepStats, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Hits+agg.Misses > 0 {
			attempted = append(attempted, agg)
		}
	}
	rows := SortedByAccuracy(attempted)
	if top <= 0 || top > len(rows) {
		top = len(rows)
	}
	out := make([]string, 0, top)
	for _, r := range rows[:top] {
		out = append(out, r.Step)
	}
	return out
}

// Package stats contains pit stop run statistics and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/pitwall/internal/model"
	"github.com/verte-zerg/pitwall/internal/pitstop"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// StepAccuracy is hits over attempts for one step, in percent.
func StepAccuracy(s model.StepStats) float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// RenderSummary prints aggregate numbers for runs.
func RenderSummary(w io.Writer, runs []model.PitRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No pit stop runs found.")
		return err
	}
	var totalScore, totalAttempts, totalHits int
	best := runs[0]
	medals := map[string]int{}
	for _, r := range runs {
		totalScore += r.Score
		totalAttempts += r.Attempts
		totalHits += r.Hits
		if r.Score > best.Score {
			best = r
		}
		medals[r.Medal]++
	}
	count := float64(len(runs))
	lines := []string{
		"Summary",
		fmt.Sprintf("Runs: %d", len(runs)),
		fmt.Sprintf("Best Score: %d (%s, %s)", best.Score, best.Medal, best.EndedAt.Local().Format("2006-01-02 15:04")),
		fmt.Sprintf("Avg Score: %.1f", float64(totalScore)/count),
		fmt.Sprintf("Pit Stops: %d", totalAttempts),
		fmt.Sprintf("Overall Accuracy: %d%%", pitstop.Accuracy(totalHits, totalAttempts)),
		"Medals: " + formatMedals(medals),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatMedals(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for _, medal := range []string{pitstop.MedalPitMaster, pitstop.MedalPro, pitstop.MedalSkilled, pitstop.MedalRookie} {
		if n := counts[medal]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s x%d", medal, n))
		}
	}
	return strings.Join(parts, ", ")
}

// RenderCurves prints smoothed score and accuracy curves across runs.
func RenderCurves(w io.Writer, runs []model.PitRun, window, width int) error {
	if len(runs) == 0 {
		return nil
	}
	scores := make([]float64, len(runs))
	accs := make([]float64, len(runs))
	for i, r := range runs {
		scores[i] = float64(r.Score)
		accs[i] = float64(r.Accuracy)
	}
	scores = MovingAverage(scores, window)
	accs = MovingAverage(accs, window)

	if _, err := fmt.Fprintln(w, "Score   "+Sparkline(scores)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return RenderChart(w, "Accuracy", accs, width, defaultChartHeight)
}

// RenderStepTable prints per-step aggregates, weakest step first.
func RenderStepTable(w io.Writer, title string, aggs []model.StepStats) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No step stats found.")
		return err
	}
	rows := SortedByAccuracy(aggs)
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	headers := []string{"Step", "Accuracy", "Hits", "Misses", "Avg Points"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		avg := 0.0
		if r.Hits > 0 {
			avg = float64(r.Points) / float64(r.Hits)
		}
		tableRows = append(tableRows, []string{
			r.Step,
			fmt.Sprintf("%.1f%%", StepAccuracy(r)),
			fmt.Sprintf("%d", r.Hits),
			fmt.Sprintf("%d", r.Misses),
			fmt.Sprintf("%.1f", avg),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// SortedByAccuracy returns a copy ordered by lowest accuracy, ties in pit
// sequence order.
func SortedByAccuracy(aggs []model.StepStats) []model.StepStats {
	order := map[string]int{}
	for i, step := range pitstop.Steps() {
		order[step] = i
	}
	rows := append([]model.StepStats(nil), aggs...)
	sort.SliceStable(rows, func(i, j int) bool {
		ai, aj := StepAccuracy(rows[i]), StepAccuracy(rows[j])
		if ai == aj {
			return order[rows[i].Step] < order[rows[j].Step]
		}
		return ai < aj
	})
	return rows
}

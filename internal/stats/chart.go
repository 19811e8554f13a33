package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultChartHeight = 6
	minChartWidth      = 10
	chartAxisWidth     = 4
	chartSeparator     = " │ "
)

var chartBlocks = []rune(" ▁▂▃▄▅▆▇█")

// ChartWidthFor returns the plot width that fits a terminal of totalWidth
// cells, leaving room for the axis.
func ChartWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minChartWidth
	}
	return max(minChartWidth, totalWidth-chartAxisWidth-displayWidth(chartSeparator))
}

// RenderChart draws percentages in [0,100] as a column chart. Values are
// stretched or averaged to fit width columns.
func RenderChart(w io.Writer, title string, values []float64, width, height int) error {
	if len(values) == 0 {
		return nil
	}
	if width < minChartWidth {
		width = minChartWidth
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	cols := resample(values, width)

	r := lipgloss.NewRenderer(w)
	barStyle := r.NewStyle().Foreground(lipgloss.Color("9"))
	axisStyle := r.NewStyle().Faint(true)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	steps := len(chartBlocks) - 1
	for row := 0; row < height; row++ {
		var b strings.Builder
		// Each row covers one band of the 0..100 range, top band first.
		bandLow := float64(height-row-1) / float64(height) * 100
		for _, v := range cols {
			fill := (clampPct(v) - bandLow) / (100 / float64(height))
			idx := int(math.Round(fill * float64(steps)))
			idx = max(0, min(idx, steps))
			b.WriteRune(chartBlocks[idx])
		}
		line := axisStyle.Render(fmt.Sprintf("%*s", chartAxisWidth, axisLabel(row, height))+chartSeparator) +
			barStyle.Render(b.String())
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	last := values[len(values)-1]
	if _, err := fmt.Fprintf(w, "%*s%slatest %.0f%%\n\n", chartAxisWidth, "", chartSeparator, last); err != nil {
		return err
	}
	return nil
}

func axisLabel(row, height int) string {
	switch {
	case row == 0:
		return "100%"
	case row == height-1:
		return "0%"
	case height > 2 && row == height/2:
		return "50%"
	default:
		return ""
	}
}

func clampPct(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// resample maps values onto width columns, averaging when there are more
// values than columns and repeating when there are fewer.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	if n >= width {
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
		return out
	}
	for i := range out {
		out[i] = values[i*n/width]
	}
	return out
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/verte-zerg/pitwall/internal/model"
)

const (
	fallbackWidth = 80
	maxTextWidth  = 100
)

// terminalWidth returns the usable text width for w, or a fallback when w is
// not a terminal.
func terminalWidth(w io.Writer) int {
	if !isTerminal(w) {
		return fallbackWidth
	}
	width, _, err := term.GetSize(int(w.(*os.File).Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return min(width, maxTextWidth)
}

func writeRecommendation(w io.Writer, rec model.Recommendation, width int) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true).Foreground(lipgloss.Color("#E10600"))
	heading := r.NewStyle().Bold(true)
	label := r.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	body := r.NewStyle().Width(width)

	details := [][2]string{
		{"Downforce", rec.SetupDetails.Downforce},
		{"Suspension", rec.SetupDetails.Suspension},
		{"Tire Pressure", rec.SetupDetails.TirePressure},
		{"Brake Bias", rec.SetupDetails.BrakeBias},
		{"Notes", rec.SetupDetails.Notes},
	}
	lines := []string{
		title.Render(fmt.Sprintf("%s · %s", rec.TrackName, rec.Weather)),
		"",
		body.Render(rec.Explanation),
		"",
		heading.Render("Setup"),
	}
	for _, d := range details {
		lines = append(lines, label.Render(fmt.Sprintf("%-14s", d[0]))+d[1])
	}
	lines = append(lines, "", heading.Render("Recommendations"))
	for _, item := range rec.Recommendations {
		lines = append(lines, body.Render("- "+item))
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func writeAnalysis(w io.Writer, text string, width int) error {
	r := lipgloss.NewRenderer(w)
	_, err := fmt.Fprintf(w, "\n%s\n%s\n", r.NewStyle().Bold(true).Render("AI Analysis"), r.NewStyle().Width(width).Render(text))
	return err
}

func writeHistory(w io.Writer, entries []model.HistoryEntry, now time.Time) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No setup history yet.")
		return err
	}
	r := lipgloss.NewRenderer(w)
	faint := r.NewStyle().Faint(true)
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-16s %-6s %s", e.ID, e.TrackName, e.Weather,
			faint.Render(humanize.RelTime(e.CreatedAt, now, "ago", "from now")))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

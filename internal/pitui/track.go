package pitui

import (
	"math"
	"strings"

	"github.com/verte-zerg/pitwall/internal/pitstop"
)

type cellKind uint8

const (
	cellTrack cellKind = iota
	cellZone
	cellMarker
	cellMarkerInZone
)

// trackCells lays the target zone and the progress marker onto width cells.
// A cell belongs to the zone when its midpoint is inside it.
func trackCells(width int, progress float64, target pitstop.Target) []cellKind {
	if width <= 0 {
		return nil
	}
	cells := make([]cellKind, width)
	lo := target.Center - target.Width/2
	hi := target.Center + target.Width/2
	for i := range cells {
		mid := (float64(i) + 0.5) / float64(width)
		if mid >= lo && mid <= hi {
			cells[i] = cellZone
		}
	}
	marker := int(math.Floor(progress * float64(width)))
	marker = max(0, min(marker, width-1))
	if cells[marker] == cellZone {
		cells[marker] = cellMarkerInZone
	} else {
		cells[marker] = cellMarker
	}
	return cells
}

// trackLayout renders cells as plain runes, used by tests and for width checks.
func trackLayout(cells []cellKind) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteRune(cellRune(c))
	}
	return b.String()
}

func cellRune(c cellKind) rune {
	switch c {
	case cellZone:
		return '█'
	case cellMarker, cellMarkerInZone:
		return '▲'
	default:
		return '─'
	}
}

// renderTrack styles runs of equal cells so the output stays compact.
func renderTrack(cells []cellKind) string {
	var b strings.Builder
	for i := 0; i < len(cells); {
		j := i
		for j < len(cells) && cells[j] == cells[i] {
			j++
		}
		run := strings.Repeat(string(cellRune(cells[i])), j-i)
		b.WriteString(cellStyle(cells[i]).Render(run))
		i = j
	}
	return b.String()
}

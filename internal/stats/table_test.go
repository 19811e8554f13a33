package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Step", "Accuracy", "Hits"}
	rows := [][]string{
		{"Jack", "97.50%", "12"},
		{"Front Right", "8.00%", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Step        Accuracy Hits" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Jack          97.50%   12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Front Right    8.00%    3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Medal", "N"}, [][]string{{"🏆", "1"}, {"Pro", "22"}}, map[int]bool{1: true})
	if lines[1] != "🏆     1" {
		t.Fatalf("expected wide glyph to take two cells, got %q", lines[1])
	}
	if lines[2] != "Pro   22" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected nil for empty table, got %v", lines)
	}
}

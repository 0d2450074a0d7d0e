package stats

import "testing"

func TestTextTableAlignsColumns(t *testing.T) {
	tbl := newTextTable(left("Tier"), right("Win Rate"), right("Wins")).withRule()
	tbl.add("Easy", "97.50%", "12")
	tbl.add("Medium", "8.00%", "3")

	lines := tbl.lines()
	want := []string{
		"Tier   Win Rate Wins",
		"------ -------- ----",
		"Easy     97.50%   12",
		"Medium    8.00%    3",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestTextTableWithoutHeaderTrimsTrailingSpace(t *testing.T) {
	tbl := newTextTable(left(""), right(""))
	tbl.add("Hard", "1.5")
	tbl.add("Easy Long", "")
	lines := tbl.lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if lines[0] != "Hard      1.5" || lines[1] != "Easy Long" {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

func TestTextTableTruncatesCappedColumn(t *testing.T) {
	tbl := newTextTable(column{title: "Name", max: 5})
	tbl.add("magenta")
	lines := tbl.lines()
	if lines[1] != "mage…" {
		t.Fatalf("expected truncated cell, got %q", lines[1])
	}
}

func TestDisplayWidthCountsWideRunes(t *testing.T) {
	if got := displayWidth("色"); got != 2 {
		t.Fatalf("expected width 2, got %d", got)
	}
}

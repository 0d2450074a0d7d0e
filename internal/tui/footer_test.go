package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/huehunt/internal/model"
)

func TestRenderFooterFormats(t *testing.T) {
	m := &Model{
		difficulty: model.Medium,
		scores: []model.ScoreRecord{
			{RemainingTime: 4.25, SelectedDifficulty: model.Medium},
			{RemainingTime: 9.5, SelectedDifficulty: model.Hard},
			{RemainingTime: 6.04, SelectedDifficulty: model.Medium},
		},
	}
	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Best medium 6.0s", "Runs won 3", "Enter start"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterWithoutScores(t *testing.T) {
	m := &Model{difficulty: model.Easy}
	out := m.renderFooter()
	if strings.Contains(out, "Best") {
		t.Fatalf("no best score expected: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

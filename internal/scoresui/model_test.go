package scoresui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/huehunt/internal/model"
)

type fakeSource struct {
	scores []model.ScoreRecord
	runs   []model.RunRecord
	err    error
}

func (f *fakeSource) ListScores(_ context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ScoreRecord
	for _, rec := range f.scores {
		if filter.Matches(rec.SelectedDifficulty, rec.Timestamp) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeSource) ListRuns(_ context.Context, filter model.ScoreFilter) ([]model.RunRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.RunRecord
	for _, run := range f.runs {
		if filter.Matches(run.SelectedDifficulty, run.EndedAt) {
			out = append(out, run)
		}
	}
	return out, nil
}

func sampleSource() *fakeSource {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeSource{
		scores: []model.ScoreRecord{
			{RemainingTime: 4, Timestamp: base, SelectedDifficulty: model.Easy},
			{RemainingTime: 7.5, Timestamp: base.Add(time.Hour), SelectedDifficulty: model.Hard},
		},
		runs: []model.RunRecord{
			{EndedAt: base, SelectedDifficulty: model.Easy, ReachedDifficulty: model.Hard, SubLevel: 10, Won: true, RemainingTime: 4},
			{EndedAt: base.Add(30 * time.Minute), SelectedDifficulty: model.Easy, ReachedDifficulty: model.Medium, SubLevel: 2},
			{EndedAt: base.Add(time.Hour), SelectedDifficulty: model.Hard, ReachedDifficulty: model.Hard, SubLevel: 10, Won: true, RemainingTime: 7.5},
		},
	}
}

func sized(m *Model) *Model {
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestOverviewShowsSummaries(t *testing.T) {
	m := sized(NewModel(sampleSource(), model.ScoreFilter{}, 1))
	view := m.View()
	for _, want := range []string{"Overview", "Easy", "Hard", "50% (1/2)", "Top Scores"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestTabsShowTables(t *testing.T) {
	m := sized(NewModel(sampleSource(), model.ScoreFilter{}, 1))
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabScores {
		t.Fatalf("expected scores tab, got %d", m.activeTab)
	}
	if rows := m.tables[tabScores].Rows(); len(rows) != 2 || rows[0][2] != "7.50" {
		t.Fatalf("scores must be newest first: %v", rows)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if rows := m.tables[tabRuns].Rows(); len(rows) != 3 || rows[1][4] != "lost" {
		t.Fatalf("unexpected run rows: %v", rows)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabOverview {
		t.Fatalf("tabs must wrap around")
	}
}

func TestFilterAppliesDifficulty(t *testing.T) {
	m := sized(NewModel(sampleSource(), model.ScoreFilter{}, 1))
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[0].SetValue("hard")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode || m.filter.Difficulty == nil || *m.filter.Difficulty != model.Hard {
		t.Fatalf("filter not applied: %+v", m.filter)
	}
	if len(m.report.Scores) != 1 || len(m.report.Runs) != 1 {
		t.Fatalf("unexpected filtered report: %+v", m.report)
	}
}

func TestFilterRejectsBadInput(t *testing.T) {
	m := sized(NewModel(sampleSource(), model.ScoreFilter{}, 1))
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.filterInputs[2].SetValue("-3")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected a filter error")
	}
}

func TestSourceErrorShown(t *testing.T) {
	m := sized(NewModel(&fakeSource{err: errors.New("disk gone")}, model.ScoreFilter{}, 1))
	if !strings.Contains(m.View(), "disk gone") {
		t.Fatalf("expected error in footer")
	}
}

func TestWindowSteps(t *testing.T) {
	if nextWindow(1) != 5 || nextWindow(5) != 10 || nextWindow(7) != 10 {
		t.Fatalf("unexpected next window")
	}
	if prevWindow(5) != 1 || prevWindow(10) != 5 || prevWindow(7) != 5 {
		t.Fatalf("unexpected prev window")
	}
}

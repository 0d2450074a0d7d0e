package session

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/verte-zerg/huehunt/internal/generator"
	"github.com/verte-zerg/huehunt/internal/model"
)

type memLedger struct {
	records []model.ScoreRecord
	loadErr error
	loads   int
}

func (l *memLedger) Load(context.Context) ([]model.ScoreRecord, error) {
	l.loads++
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	return append([]model.ScoreRecord(nil), l.records...), nil
}

func (l *memLedger) Append(_ context.Context, rec model.ScoreRecord) error {
	l.records = append(l.records, rec)
	return nil
}

type recordingHost struct {
	catalogs []int
	removed  []string
	cleared  int
	over     []FinalScore
	times    []float64
	scores   int
}

func (h *recordingHost) OnCatalogChanged(targets []model.Target, _ colorful.Color) {
	h.catalogs = append(h.catalogs, len(targets))
}
func (h *recordingHost) OnTargetRemoved(id string) { h.removed = append(h.removed, id) }
func (h *recordingHost) OnLevelCleared()           { h.cleared++ }
func (h *recordingHost) OnGameOver(score FinalScore) {
	h.over = append(h.over, score)
}
func (h *recordingHost) OnTimeChanged(remaining float64) {
	h.times = append(h.times, remaining)
}
func (h *recordingHost) OnScoresLoaded([]model.ScoreRecord) { h.scores++ }

var fixedNow = time.Date(2025, 7, 8, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, table model.TuningTable, mode string, ledger Ledger) *Session {
	t.Helper()
	gen := generator.NewWithSeed(generator.Params{Tuning: table}, 99)
	return New(Options{
		Generator: gen,
		Mode:      mode,
		Ledger:    ledger,
		Now:       func() time.Time { return fixedNow },
	})
}

// clearLevel taps every remaining target of the target color.
func clearLevel(t *testing.T, s *Session) {
	t.Helper()
	ids := s.RemainingOfColor()
	if len(ids) == 0 {
		t.Fatalf("no targets of the target color in state %s", s.State())
	}
	for _, id := range ids {
		s.Tap(id)
	}
	if s.State() != Cleared {
		t.Fatalf("expected level cleared, got %s", s.State())
	}
}

func wrongTarget(s *Session) (string, bool) {
	remaining := map[string]struct{}{}
	for _, id := range s.RemainingOfColor() {
		remaining[id] = struct{}{}
	}
	for _, tg := range s.Targets() {
		if _, ok := remaining[tg.ID]; !ok {
			return tg.ID, true
		}
	}
	return "", false
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func singleTargetTuning() model.TuningTable {
	table := model.DefaultTuning()
	for d, tn := range table {
		tn.InitialObjectCount = 1
		table[d] = tn
	}
	return table
}

func TestStartBuildsCatalogAndStartsClock(t *testing.T) {
	host := &recordingHost{}
	s := newTestSession(t, nil, model.ModeHead, nil)
	s.host = host
	s.Start(model.Easy)

	snap := s.Snapshot()
	if snap.State != InProgress {
		t.Fatalf("expected in-progress, got %s", snap.State)
	}
	if len(snap.Targets) != 10 {
		t.Fatalf("expected 10 targets, got %d", len(snap.Targets))
	}
	if snap.TargetColor != snap.Targets[0].Color {
		t.Fatalf("target color must be the first target's color")
	}
	for _, id := range s.RemainingOfColor() {
		found := false
		for _, tg := range snap.Targets {
			if tg.ID == id {
				found = true
				if tg.Color != snap.TargetColor {
					t.Fatalf("remaining target %s has the wrong color", id)
				}
			}
		}
		if !found {
			t.Fatalf("remaining target %s not in catalog", id)
		}
	}
	if !approx(snap.TimeRemaining, 10) {
		t.Fatalf("expected 10s budget, got %f", snap.TimeRemaining)
	}
	if len(host.catalogs) != 1 || host.catalogs[0] != 10 {
		t.Fatalf("expected one catalog of 10 dispatched, got %v", host.catalogs)
	}
	if host.scores != 1 {
		t.Fatalf("expected scores loaded once, got %d", host.scores)
	}
}

func TestScenarioASingleTargetClearAdvancesSubLevel(t *testing.T) {
	s := newTestSession(t, singleTargetTuning(), model.ModeHead, nil)
	s.Start(model.Easy)
	ids := s.RemainingOfColor()
	if len(ids) != 1 {
		t.Fatalf("expected one target of the target color, got %d", len(ids))
	}
	effects := s.Tap(ids[0])
	if len(effects) != 2 {
		t.Fatalf("expected removal and level cleared, got %#v", effects)
	}
	if _, ok := effects[1].(LevelCleared); !ok {
		t.Fatalf("expected LevelCleared, got %#v", effects[1])
	}
	before := s.Snapshot().TimeRemaining
	s.Advance()
	snap := s.Snapshot()
	if snap.SubLevel != 1 || snap.CurrentDifficulty != model.Easy {
		t.Fatalf("expected easy sub-level 1, got %s/%d", snap.CurrentDifficulty, snap.SubLevel)
	}
	if len(snap.Targets) != 2 {
		t.Fatalf("expected 2 targets at sub-level 1, got %d", len(snap.Targets))
	}
	want := math.Max(before, MinCarryOver) + model.DefaultTuning()[model.Easy].SubLevelTimeIncrement
	if !approx(snap.TimeRemaining, want) {
		t.Fatalf("expected %f remaining, got %f", want, snap.TimeRemaining)
	}
}

func TestCarryOverIsFloored(t *testing.T) {
	s := newTestSession(t, singleTargetTuning(), model.ModeHead, nil)
	s.Start(model.Easy)
	s.Tick(9)
	clearLevel(t, s)
	s.Advance()
	want := MinCarryOver + model.DefaultTuning()[model.Easy].SubLevelTimeIncrement
	if got := s.Snapshot().TimeRemaining; !approx(got, want) {
		t.Fatalf("expected floored carry-over %f, got %f", want, got)
	}
}

func TestScenarioBTierAdvanceUsesNewTierBudget(t *testing.T) {
	s := newTestSession(t, singleTargetTuning(), model.ModeHead, nil)
	s.Start(model.Easy)
	for sub := 0; sub < MaxSubLevel; sub++ {
		clearLevel(t, s)
		s.Advance()
	}
	if got := s.Snapshot().SubLevel; got != MaxSubLevel {
		t.Fatalf("expected sub-level %d, got %d", MaxSubLevel, got)
	}
	clearLevel(t, s)
	prior := s.Snapshot().TimeRemaining
	s.Advance()

	snap := s.Snapshot()
	if snap.CurrentDifficulty != model.Medium || snap.SubLevel != 0 {
		t.Fatalf("expected medium sub-level 0, got %s/%d", snap.CurrentDifficulty, snap.SubLevel)
	}
	want := math.Max(prior, MinCarryOver) + model.DefaultTuning()[model.Medium].TimePerTierSeconds
	if !approx(snap.TimeRemaining, want) {
		t.Fatalf("expected %f remaining, got %f", want, snap.TimeRemaining)
	}
	if snap.SelectedDifficulty != model.Easy {
		t.Fatalf("selected difficulty must not change, got %s", snap.SelectedDifficulty)
	}
	// Easy base of 1 plus Medium's increment of 5.
	if len(snap.Targets) != 6 {
		t.Fatalf("expected 6 targets on medium, got %d", len(snap.Targets))
	}
}

func TestScenarioCWrongTapDefersTimeout(t *testing.T) {
	table := model.DefaultTuning()
	easy := table[model.Easy]
	easy.InitialObjectCount = 20
	easy.ColorCount = 2
	easy.TimePerTierSeconds = 1
	easy.WrongTapPenalty = 0.5
	table[model.Easy] = easy

	var s *Session
	var wrong string
	for seed := int64(1); seed <= 50 && wrong == ""; seed++ {
		s = New(Options{Generator: generator.NewWithSeed(generator.Params{Tuning: table}, seed)})
		s.Start(model.Easy)
		wrong, _ = wrongTarget(s)
	}
	if wrong == "" {
		t.Fatalf("could not find a catalog with a non-target color")
	}

	s.Tick(0.7)
	if !approx(s.Snapshot().TimeRemaining, 0.3) {
		t.Fatalf("expected 0.3 remaining, got %f", s.Snapshot().TimeRemaining)
	}
	before := len(s.Targets())
	s.Tap(wrong)
	snap := s.Snapshot()
	if !approx(snap.TimeRemaining, -0.2) {
		t.Fatalf("expected -0.2 remaining, got %f", snap.TimeRemaining)
	}
	if snap.Complete || snap.State != InProgress {
		t.Fatalf("wrong tap must not end the game before the next tick")
	}
	if len(snap.Targets) != before {
		t.Fatalf("wrong tap must not remove targets")
	}

	effects := s.Tick(0.1)
	snap = s.Snapshot()
	if !snap.Complete || snap.State != Over || snap.Won {
		t.Fatalf("expected timeout game over, got %+v", snap)
	}
	if len(snap.Targets) != 0 {
		t.Fatalf("expected targets cleared on timeout")
	}
	over, ok := effects[len(effects)-1].(GameOver)
	if !ok || over.Score.Won {
		t.Fatalf("expected a lost GameOver effect, got %#v", effects)
	}
}

func TestScenarioDHardestClearRecordsScore(t *testing.T) {
	ledger := &memLedger{}
	s := newTestSession(t, singleTargetTuning(), model.ModeHead, ledger)
	s.Start(model.Hard)
	for sub := 0; sub < MaxSubLevel; sub++ {
		clearLevel(t, s)
		s.Advance()
	}
	clearLevel(t, s)
	remaining := s.Snapshot().TimeRemaining
	effects := s.Advance()

	snap := s.Snapshot()
	if !snap.Complete || !snap.Won || snap.State != Over {
		t.Fatalf("expected a won, complete session, got %+v", snap)
	}
	if len(snap.Targets) != 0 {
		t.Fatalf("expected targets cleared")
	}
	if len(ledger.records) != 1 {
		t.Fatalf("expected one score record, got %d", len(ledger.records))
	}
	rec := ledger.records[0]
	if rec.SelectedDifficulty != model.Hard || !approx(rec.RemainingTime, remaining) || !rec.Timestamp.Equal(fixedNow) {
		t.Fatalf("unexpected record: %+v", rec)
	}
	over, ok := effects[len(effects)-1].(GameOver)
	if !ok || !over.Score.Won {
		t.Fatalf("expected a won GameOver effect, got %#v", effects)
	}
	if len(snap.Scores) != 1 {
		t.Fatalf("expected the new score in the session history, got %d", len(snap.Scores))
	}
}

func TestTimeoutDoesNotRecordScore(t *testing.T) {
	ledger := &memLedger{}
	s := newTestSession(t, nil, model.ModeHead, ledger)
	s.Start(model.Easy)
	s.Tick(20)
	if !s.Snapshot().Complete {
		t.Fatalf("expected game over")
	}
	if len(ledger.records) != 0 {
		t.Fatalf("timeouts must not be recorded, got %d", len(ledger.records))
	}
}

func TestScenarioEResetAfterCompletion(t *testing.T) {
	ledger := &memLedger{}
	s := newTestSession(t, singleTargetTuning(), model.ModeHead, ledger)
	s.Start(model.Medium)
	clearLevel(t, s)
	s.Advance()
	s.Tick(30)
	if !s.Snapshot().Complete {
		t.Fatalf("expected game over before reset")
	}
	loadsBefore := ledger.loads

	s.Reset()
	snap := s.Snapshot()
	if snap.CurrentDifficulty != model.Medium || snap.SubLevel != 0 || snap.Complete {
		t.Fatalf("unexpected state after reset: %+v", snap)
	}
	if snap.State != Idle {
		t.Fatalf("expected idle after reset, got %s", snap.State)
	}
	if ledger.loads != loadsBefore+1 {
		t.Fatalf("expected the ledger to be reloaded on reset")
	}
	budget := snap.TimeRemaining
	if effects := s.Tick(1); effects != nil {
		t.Fatalf("tick after reset must be a no-op, got %#v", effects)
	}
	if s.Snapshot().TimeRemaining != budget {
		t.Fatalf("clock must stay stopped after reset")
	}
}

func TestResetDuringRunStopsClock(t *testing.T) {
	s := newTestSession(t, nil, model.ModeHead, nil)
	s.Start(model.Easy)
	s.Tick(0.1)
	s.Reset()
	// A tick already queued behind the reset must not fire against the reset session.
	s.Tick(100)
	snap := s.Snapshot()
	if snap.Complete || snap.State != Idle {
		t.Fatalf("stale tick ended the reset session: %+v", snap)
	}
	if len(snap.Targets) != 0 {
		t.Fatalf("expected no targets after reset")
	}
	s.Start(model.Easy)
	if s.State() != InProgress {
		t.Fatalf("expected a fresh run after start, got %s", s.State())
	}
}

func TestInvalidTapsAreNoOps(t *testing.T) {
	s := newTestSession(t, singleTargetTuning(), model.ModeHead, nil)
	if effects := s.Tap("missing"); effects != nil {
		t.Fatalf("tap before start must be ignored")
	}
	s.Start(model.Easy)
	if effects := s.Tap("missing"); effects != nil {
		t.Fatalf("unknown id must be ignored, got %#v", effects)
	}
	id := s.RemainingOfColor()[0]
	s.Tap(id)
	if effects := s.Tap(id); effects != nil {
		t.Fatalf("second tap on a removed target must be ignored, got %#v", effects)
	}
	if effects := s.Tick(1); effects != nil {
		t.Fatalf("clock must be stopped while the level is cleared")
	}
	if effects := s.Advance(); len(effects) == 0 {
		t.Fatalf("expected advance to rebuild the catalog")
	}
	if effects := s.Advance(); effects != nil {
		t.Fatalf("advance outside the cleared state must be ignored")
	}
}

func TestAnchorModeWaitsForPlacement(t *testing.T) {
	s := newTestSession(t, nil, model.ModeAnchor, nil)
	s.Start(model.Easy)
	if s.State() != AwaitingPlacement {
		t.Fatalf("expected awaiting placement, got %s", s.State())
	}
	if effects := s.Tick(1); effects != nil {
		t.Fatalf("clock must not run before placement")
	}
	anchor := model.Vec3{X: 0, Y: 0.8, Z: -1.5}
	s.Place(anchor, false)
	snap := s.Snapshot()
	if snap.State != InProgress || len(snap.Targets) != 10 {
		t.Fatalf("expected 10 placed targets, got %+v", snap)
	}
	for _, tg := range snap.Targets {
		if tg.Position.Y < anchor.Y {
			t.Fatalf("target placed below the anchor surface: %+v", tg.Position)
		}
	}
	if effects := s.Place(anchor, false); effects != nil {
		t.Fatalf("second placement must be ignored")
	}
	s.Reset()
	if s.State() != AwaitingPlacement {
		t.Fatalf("expected reset to await a new placement, got %s", s.State())
	}
}

func TestEmptyCatalogEndsRun(t *testing.T) {
	table := model.DefaultTuning()
	easy := table[model.Easy]
	easy.InitialObjectCount = 0
	table[model.Easy] = easy
	s := newTestSession(t, table, model.ModeHead, nil)
	effects := s.Start(model.Easy)
	if !s.Snapshot().Complete {
		t.Fatalf("expected an empty catalog to end the run")
	}
	if _, ok := effects[len(effects)-1].(GameOver); !ok {
		t.Fatalf("expected GameOver, got %#v", effects)
	}
}

func TestLedgerLoadFailureIsEmptyHistory(t *testing.T) {
	ledger := &memLedger{loadErr: errors.New("disk gone")}
	var logged []string
	s := New(Options{
		Generator: generator.NewWithSeed(generator.Params{}, 1),
		Ledger:    ledger,
		Logf: func(format string, _ ...any) {
			logged = append(logged, format)
		},
	})
	effects := s.Start(model.Easy)
	if s.State() != InProgress {
		t.Fatalf("ledger failure must not block the run")
	}
	var loaded *ScoresLoaded
	for _, eff := range effects {
		if e, ok := eff.(ScoresLoaded); ok {
			loaded = &e
		}
	}
	if loaded == nil || len(loaded.Records) != 0 {
		t.Fatalf("expected empty history, got %#v", loaded)
	}
	if len(logged) != 1 {
		t.Fatalf("expected the failure to be logged once, got %v", logged)
	}
}

func TestLeastCommonPicker(t *testing.T) {
	s := New(Options{
		Generator: generator.NewWithSeed(generator.Params{}, 5),
		Picker:    generator.LeastCommonColor,
	})
	s.Start(model.Easy)
	want, _ := generator.LeastCommonColor(s.Targets())
	if s.Snapshot().TargetColor != want {
		t.Fatalf("expected least common color to be the target color")
	}
}

func TestUrgencyBands(t *testing.T) {
	if UrgencyFor(6) != Calm || UrgencyFor(5) != Warning || UrgencyFor(2.5) != Warning || UrgencyFor(2) != Critical || UrgencyFor(-1) != Critical {
		t.Fatalf("unexpected urgency bands")
	}
	if DisplayTime(-0.2) != 0 || DisplayTime(1.5) != 1.5 {
		t.Fatalf("unexpected display clamp")
	}
}

func TestTickIgnoresInvalidDelta(t *testing.T) {
	s := New(Options{Generator: generator.NewWithSeed(generator.Params{}, 3)})
	s.Start(model.Easy)
	before := s.Snapshot().TimeRemaining

	for _, delta := range []float64{math.NaN(), -1} {
		if effects := s.Tick(delta); len(effects) != 0 {
			t.Fatalf("tick(%v) must be ignored, got %#v", delta, effects)
		}
	}
	if got := s.Snapshot().TimeRemaining; got != before {
		t.Fatalf("time changed from %f to %f", before, got)
	}

	s.Tick(before + 1)
	if snap := s.Snapshot(); snap.State != Over || snap.Won {
		t.Fatalf("expected the clock to still run out, got %+v", snap)
	}
}

package model

import (
	"testing"
	"time"
)

func TestParseDifficulty(t *testing.T) {
	for in, want := range map[string]Difficulty{"easy": Easy, " Medium ": Medium, "HARD": Hard} {
		got, err := ParseDifficulty(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %v, got %v", in, want, got)
		}
	}
	if _, err := ParseDifficulty("insane"); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
}

func TestDifficultyNext(t *testing.T) {
	next, ok := Easy.Next()
	if !ok || next != Medium {
		t.Fatalf("expected medium after easy, got %v %v", next, ok)
	}
	if _, ok := Hard.Next(); ok {
		t.Fatalf("hard must be the last tier")
	}
	if Hardest() != Hard {
		t.Fatalf("unexpected hardest tier %v", Hardest())
	}
}

func TestTuningValidate(t *testing.T) {
	for _, d := range Difficulties {
		if err := DefaultTuning()[d].Validate(); err != nil {
			t.Fatalf("stock %s tuning invalid: %v", d, err)
		}
	}
	bad := DefaultTuning()[Easy]
	bad.TimePerTierSeconds = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for zero tier time")
	}
	bad = DefaultTuning()[Easy]
	bad.WrongTapPenalty = -1
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for negative penalty")
	}
}

func TestTuningLookupFallsBack(t *testing.T) {
	table := TuningTable{Easy: {InitialObjectCount: 2, ColorCount: 1, TimePerTierSeconds: 1}}
	if table.Lookup(Easy).InitialObjectCount != 2 {
		t.Fatalf("override not returned")
	}
	if table.Lookup(Hard) != DefaultTuning()[Hard] {
		t.Fatalf("missing tier must fall back to stock tuning")
	}
}

func TestScoreFilterMatches(t *testing.T) {
	hard := Hard
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	filter := ScoreFilter{Difficulty: &hard, Since: &since}

	if !filter.Matches(Hard, since.Add(time.Hour)) {
		t.Fatalf("expected match")
	}
	if filter.Matches(Easy, since.Add(time.Hour)) {
		t.Fatalf("difficulty filter ignored")
	}
	if filter.Matches(Hard, since.Add(-time.Hour)) {
		t.Fatalf("since filter ignored")
	}
	if !(ScoreFilter{}).Matches(Easy, time.Time{}) {
		t.Fatalf("empty filter must match everything")
	}
}

func TestVec3Dist(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 2}
	if got := a.Len(); got != 3 {
		t.Fatalf("expected length 3, got %v", got)
	}
	if got := a.Dist(a.Add(Vec3{Z: 4})); got != 4 {
		t.Fatalf("expected distance 4, got %v", got)
	}
}

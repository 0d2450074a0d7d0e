package session

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/verte-zerg/huehunt/internal/model"
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	State              State
	Mode               string
	SelectedDifficulty model.Difficulty
	CurrentDifficulty  model.Difficulty
	SubLevel           int
	TimeRemaining      float64
	Complete           bool
	Won                bool
	TargetColor        colorful.Color
	Targets            []model.Target
	RemainingOfColor   int
	Scores             []model.ScoreRecord
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		State:              s.state,
		Mode:               s.mode,
		SelectedDifficulty: s.selected,
		CurrentDifficulty:  s.current,
		SubLevel:           s.subLevel,
		TimeRemaining:      s.timeRemaining,
		Complete:           s.complete,
		Won:                s.won,
		TargetColor:        s.targetColor,
		Targets:            s.Targets(),
		RemainingOfColor:   len(s.remaining),
		Scores:             s.Scores(),
	}
}

// State returns the current phase.
func (s *Session) State() State {
	return s.state
}

// Targets returns a copy of the active catalog in catalog order.
func (s *Session) Targets() []model.Target {
	if len(s.targets) == 0 {
		return nil
	}
	out := make([]model.Target, len(s.targets))
	copy(out, s.targets)
	return out
}

// RemainingOfColor returns the ids still to clear, in catalog order.
func (s *Session) RemainingOfColor() []string {
	ids := make([]string, 0, len(s.remaining))
	for _, t := range s.targets {
		if _, ok := s.remaining[t.ID]; ok {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Scores returns the ledger history loaded at start or reset, plus runs won since.
func (s *Session) Scores() []model.ScoreRecord {
	if len(s.scores) == 0 {
		return nil
	}
	out := make([]model.ScoreRecord, len(s.scores))
	copy(out, s.scores)
	return out
}

// Urgency classifies remaining time for display.
type Urgency int

// Urgency bands.
const (
	Calm Urgency = iota
	Warning
	Critical
)

// UrgencyFor returns Calm above five seconds, Warning above two, Critical otherwise.
func UrgencyFor(remaining float64) Urgency {
	switch {
	case remaining > 5:
		return Calm
	case remaining > 2:
		return Warning
	default:
		return Critical
	}
}

// DisplayTime clamps remaining time at zero.
func DisplayTime(remaining float64) float64 {
	if remaining < 0 {
		return 0
	}
	return remaining
}

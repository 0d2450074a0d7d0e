package session

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/verte-zerg/huehunt/internal/model"
)

// Event is an input to the state machine.
type Event interface {
	isEvent()
}

// StartEvent begins a new run at the given difficulty.
type StartEvent struct {
	Difficulty model.Difficulty
}

// PlaceEvent anchors the scene on a detected surface (anchor mode only).
type PlaceEvent struct {
	Anchor   model.Vec3
	Vertical bool
}

// TapEvent reports that the player tapped a target.
type TapEvent struct {
	ID string
}

// TickEvent advances the countdown by Delta seconds.
type TickEvent struct {
	Delta float64
}

// AdvanceEvent is sent by the host once the level-cleared presentation delay has elapsed.
type AdvanceEvent struct{}

// ResetEvent abandons the run and returns to the starting tier.
type ResetEvent struct{}

func (StartEvent) isEvent()   {}
func (PlaceEvent) isEvent()   {}
func (TapEvent) isEvent()     {}
func (TickEvent) isEvent()    {}
func (AdvanceEvent) isEvent() {}
func (ResetEvent) isEvent()   {}

// Effect describes a change the host should reflect.
type Effect interface {
	isEffect()
}

// CatalogChanged replaces every target on screen. An empty Targets clears the scene.
type CatalogChanged struct {
	Targets     []model.Target
	TargetColor colorful.Color
	Difficulty  model.Difficulty
	SubLevel    int
}

// TargetRemoved drops a single target.
type TargetRemoved struct {
	ID string
}

// PenaltyApplied reports a wrong tap.
type PenaltyApplied struct {
	ID      string
	Seconds float64
}

// LevelCleared fires when the last target of the target color is removed.
// The host waits PresentationDelay and then sends AdvanceEvent.
type LevelCleared struct {
	Difficulty model.Difficulty
	SubLevel   int
}

// GameOver is terminal: either the clock ran out or every tier was cleared.
type GameOver struct {
	Score FinalScore
}

// TimeChanged carries the raw remaining time, which may be negative.
type TimeChanged struct {
	Remaining float64
}

// ScoresLoaded carries the ledger history for display.
type ScoresLoaded struct {
	Records []model.ScoreRecord
}

func (CatalogChanged) isEffect() {}
func (TargetRemoved) isEffect()  {}
func (PenaltyApplied) isEffect() {}
func (LevelCleared) isEffect()   {}
func (GameOver) isEffect()       {}
func (TimeChanged) isEffect()    {}
func (ScoresLoaded) isEffect()   {}

// FinalScore summarizes a finished run.
type FinalScore struct {
	Won                bool
	RemainingTime      float64
	Difficulty         model.Difficulty
	SubLevel           int
	SelectedDifficulty model.Difficulty
}

// Host receives effects from the session.
type Host interface {
	OnCatalogChanged(targets []model.Target, targetColor colorful.Color)
	OnTargetRemoved(id string)
	OnLevelCleared()
	OnGameOver(score FinalScore)
	OnTimeChanged(remaining float64)
	OnScoresLoaded(records []model.ScoreRecord)
}

// Dispatch forwards effects to h in order. PenaltyApplied is reported through OnTimeChanged's
// following effect and has no dedicated callback.
func Dispatch(h Host, effects []Effect) {
	if h == nil {
		return
	}
	for _, eff := range effects {
		switch e := eff.(type) {
		case CatalogChanged:
			h.OnCatalogChanged(e.Targets, e.TargetColor)
		case TargetRemoved:
			h.OnTargetRemoved(e.ID)
		case LevelCleared:
			h.OnLevelCleared()
		case GameOver:
			h.OnGameOver(e.Score)
		case TimeChanged:
			h.OnTimeChanged(e.Remaining)
		case ScoresLoaded:
			h.OnScoresLoaded(e.Records)
		}
	}
}

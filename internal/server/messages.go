package server

import (
	"time"

	"github.com/verte-zerg/huehunt/internal/generator"
	"github.com/verte-zerg/huehunt/internal/model"
	"github.com/verte-zerg/huehunt/internal/session"
)

// Client actions.
const (
	ActionStart = "start"
	ActionPlace = "place"
	ActionTap   = "tap"
	ActionReset = "reset"
)

// Server message types.
const (
	TypeState         = "state"
	TypeCatalog       = "catalog"
	TypeTargetRemoved = "targetRemoved"
	TypePenalty       = "penalty"
	TypeLevelCleared  = "levelCleared"
	TypeGameOver      = "gameOver"
	TypeTime          = "time"
	TypeScores        = "scores"
	TypeError         = "error"
)

// ClientMessage is an action sent by a renderer.
type ClientMessage struct {
	Action     string      `json:"action"`
	Difficulty string      `json:"difficulty,omitempty"`
	ID         string      `json:"id,omitempty"`
	Anchor     *model.Vec3 `json:"anchor,omitempty"`
	Vertical   bool        `json:"vertical,omitempty"`
}

// TargetView is the wire form of a target.
type TargetView struct {
	ID       string     `json:"id"`
	Position model.Vec3 `json:"position"`
	Color    string     `json:"color"`
}

// ScoreView is the wire form of a ledger record or final score.
type ScoreView struct {
	Won                bool    `json:"won,omitempty"`
	RemainingTime      float64 `json:"remainingTime"`
	Difficulty         string  `json:"difficulty,omitempty"`
	SubLevel           int     `json:"subLevel,omitempty"`
	SelectedDifficulty string  `json:"selectedDifficulty"`
	Timestamp          string  `json:"timestamp,omitempty"`
}

// ServerMessage is one effect or status update sent to a renderer.
type ServerMessage struct {
	Type        string       `json:"type"`
	State       string       `json:"state,omitempty"`
	Mode        string       `json:"mode,omitempty"`
	Targets     []TargetView `json:"targets,omitempty"`
	TargetColor string       `json:"targetColor,omitempty"`
	ColorName   string       `json:"colorName,omitempty"`
	Difficulty  string       `json:"difficulty,omitempty"`
	SubLevel    int          `json:"subLevel,omitempty"`
	ID          string       `json:"id,omitempty"`
	Seconds     float64      `json:"seconds,omitempty"`
	Remaining   *float64     `json:"remaining,omitempty"`
	Urgency     string       `json:"urgency,omitempty"`
	Score       *ScoreView   `json:"score,omitempty"`
	Records     []ScoreView  `json:"records,omitempty"`
	Error       string       `json:"error,omitempty"`
}

var urgencyNames = map[session.Urgency]string{
	session.Calm:     "calm",
	session.Warning:  "warning",
	session.Critical: "critical",
}

func stateMessage(snap session.Snapshot) ServerMessage {
	remaining := snap.TimeRemaining
	return ServerMessage{
		Type:       TypeState,
		State:      snap.State.String(),
		Mode:       snap.Mode,
		Difficulty: snap.SelectedDifficulty.String(),
		Remaining:  &remaining,
	}
}

func effectMessage(eff session.Effect) (ServerMessage, bool) {
	switch e := eff.(type) {
	case session.CatalogChanged:
		msg := ServerMessage{
			Type:       TypeCatalog,
			Difficulty: e.Difficulty.String(),
			SubLevel:   e.SubLevel,
			Targets:    make([]TargetView, 0, len(e.Targets)),
		}
		for _, t := range e.Targets {
			msg.Targets = append(msg.Targets, TargetView{ID: t.ID, Position: t.Position, Color: t.Color.Hex()})
		}
		if len(e.Targets) > 0 {
			msg.TargetColor = e.TargetColor.Hex()
			msg.ColorName = generator.ColorName(e.TargetColor)
		}
		return msg, true
	case session.TargetRemoved:
		return ServerMessage{Type: TypeTargetRemoved, ID: e.ID}, true
	case session.PenaltyApplied:
		return ServerMessage{Type: TypePenalty, ID: e.ID, Seconds: e.Seconds}, true
	case session.LevelCleared:
		return ServerMessage{Type: TypeLevelCleared, Difficulty: e.Difficulty.String(), SubLevel: e.SubLevel}, true
	case session.GameOver:
		return ServerMessage{Type: TypeGameOver, Score: &ScoreView{
			Won:                e.Score.Won,
			RemainingTime:      e.Score.RemainingTime,
			Difficulty:         e.Score.Difficulty.String(),
			SubLevel:           e.Score.SubLevel,
			SelectedDifficulty: e.Score.SelectedDifficulty.String(),
		}}, true
	case session.TimeChanged:
		remaining := session.DisplayTime(e.Remaining)
		return ServerMessage{Type: TypeTime, Remaining: &remaining, Urgency: urgencyNames[session.UrgencyFor(e.Remaining)]}, true
	case session.ScoresLoaded:
		records := make([]ScoreView, 0, len(e.Records))
		for _, rec := range e.Records {
			records = append(records, ScoreView{
				RemainingTime:      rec.RemainingTime,
				SelectedDifficulty: rec.SelectedDifficulty.String(),
				Timestamp:          rec.Timestamp.UTC().Format(time.RFC3339),
			})
		}
		return ServerMessage{Type: TypeScores, Records: records}, true
	}
	return ServerMessage{}, false
}

// Package model defines shared data structures.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Difficulty is a totally ordered difficulty tier.
type Difficulty int

// Difficulty tiers in ascending order.
const (
	Easy Difficulty = iota
	Medium
	Hard
)

// Difficulties lists every tier from easiest to hardest.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// Hardest returns the last tier.
func Hardest() Difficulty {
	return Difficulties[len(Difficulties)-1]
}

// String returns the lowercase tier name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// Title returns the capitalized tier name for display.
func (d Difficulty) Title() string {
	s := d.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Hard
}

// Next returns the following tier and false when d is already the hardest.
func (d Difficulty) Next() (Difficulty, bool) {
	if d >= Hardest() {
		return d, false
	}
	return d + 1, true
}

// ParseDifficulty parses a tier name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return Easy, fmt.Errorf("unknown difficulty %q (expected easy, medium or hard)", s)
	}
}

// Tuning holds the fixed constants carried by a difficulty tier.
type Tuning struct {
	InitialObjectCount    int
	ObjectCountIncrement  int
	ColorCount            int
	TimePerTierSeconds    float64
	SubLevelTimeIncrement float64
	WrongTapPenalty       float64
}

// Validate reports the first constant that cannot drive a session.
func (t Tuning) Validate() error {
	switch {
	case t.InitialObjectCount < 1:
		return fmt.Errorf("initial-objects must be >= 1")
	case t.ObjectCountIncrement < 0:
		return fmt.Errorf("object-increment must be >= 0")
	case t.ColorCount < 1:
		return fmt.Errorf("colors must be >= 1")
	case t.TimePerTierSeconds <= 0:
		return fmt.Errorf("tier-time must be > 0")
	case t.SubLevelTimeIncrement < 0:
		return fmt.Errorf("sub-level-time must be >= 0")
	case t.WrongTapPenalty < 0:
		return fmt.Errorf("wrong-tap-penalty must be >= 0")
	}
	return nil
}

// TuningTable maps every tier to its constants.
type TuningTable map[Difficulty]Tuning

// DefaultTuning returns the stock tuning table.
func DefaultTuning() TuningTable {
	return TuningTable{
		Easy: {
			InitialObjectCount:    10,
			ObjectCountIncrement:  5,
			ColorCount:            3,
			TimePerTierSeconds:    10,
			SubLevelTimeIncrement: 3,
			WrongTapPenalty:       1,
		},
		Medium: {
			InitialObjectCount:    20,
			ObjectCountIncrement:  5,
			ColorCount:            4,
			TimePerTierSeconds:    15,
			SubLevelTimeIncrement: 2.5,
			WrongTapPenalty:       1.5,
		},
		Hard: {
			InitialObjectCount:    30,
			ObjectCountIncrement:  5,
			ColorCount:            5,
			TimePerTierSeconds:    20,
			SubLevelTimeIncrement: 2,
			WrongTapPenalty:       2,
		},
	}
}

// Lookup returns the constants for d, falling back to the stock table for missing tiers.
func (t TuningTable) Lookup(d Difficulty) Tuning {
	if tn, ok := t[d]; ok {
		return tn
	}
	return DefaultTuning()[d]
}

// Vec3 is a point or offset in meters.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dist returns the distance between two points.
func (v Vec3) Dist(o Vec3) float64 {
	return v.Sub(o).Len()
}

// Target is a tappable colored sphere. Targets are immutable once created.
type Target struct {
	ID       string
	Position Vec3
	Color    colorful.Color
}

// ScoreRecord captures a run that cleared every tier.
type ScoreRecord struct {
	RemainingTime      float64
	Timestamp          time.Time
	SelectedDifficulty Difficulty
}

// RunRecord captures any finished run, won or lost.
type RunRecord struct {
	EndedAt            time.Time
	SelectedDifficulty Difficulty
	ReachedDifficulty  Difficulty
	SubLevel           int
	Won                bool
	RemainingTime      float64
}

// ScoreFilter defines filters for listing score records.
type ScoreFilter struct {
	Difficulty *Difficulty
	Since      *time.Time
	Last       int
}

// Matches reports whether a record with the given difficulty and time passes
// the difficulty and since filters. Last is applied by the caller.
func (f ScoreFilter) Matches(d Difficulty, at time.Time) bool {
	if f.Difficulty != nil && *f.Difficulty != d {
		return false
	}
	if f.Since != nil && at.Before(*f.Since) {
		return false
	}
	return true
}

// Config defines play settings resolved from flags and the config file.
type Config struct {
	Difficulty        Difficulty
	Mode              string
	TickMs            int
	TargetColor       string
	Seed              int64
	Ledger            string
	MinColorDistance  float64
	ColorAttempts     int
	PlacementAttempts int
	TargetRadius      float64
	SeparationFactor  float64
	Tuning            TuningTable
}

// Placement modes.
const (
	ModeHead   = "head"
	ModeAnchor = "anchor"
)

// Target color strategies.
const (
	TargetColorFirst       = "first"
	TargetColorLeastCommon = "least-common"
)

// Ledger backends.
const (
	LedgerSQLite = "sqlite"
	LedgerGdata  = "gdata"
)

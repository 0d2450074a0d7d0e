// Package generator builds randomized target scenes: color palettes, sphere positions and catalogs.
package generator

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/verte-zerg/huehunt/internal/model"
)

// Stock generation tuning.
const (
	DefaultMinColorDistance  = 0.3
	DefaultColorAttempts     = 10000
	DefaultPlacementAttempts = 1000
	DefaultTargetRadius      = 0.1
	DefaultSeparationFactor  = 2.2
)

// Params configures a Generator. Zero fields fall back to the stock values.
type Params struct {
	Tuning            model.TuningTable
	MinColorDistance  float64
	ColorAttempts     int
	PlacementAttempts int
	TargetRadius      float64
	SeparationFactor  float64
}

func (p Params) withDefaults() Params {
	if p.Tuning == nil {
		p.Tuning = model.DefaultTuning()
	}
	if p.MinColorDistance <= 0 {
		p.MinColorDistance = DefaultMinColorDistance
	}
	if p.ColorAttempts <= 0 {
		p.ColorAttempts = DefaultColorAttempts
	}
	if p.PlacementAttempts <= 0 {
		p.PlacementAttempts = DefaultPlacementAttempts
	}
	if p.TargetRadius <= 0 {
		p.TargetRadius = DefaultTargetRadius
	}
	if p.SeparationFactor <= 0 {
		p.SeparationFactor = DefaultSeparationFactor
	}
	return p
}

// MinSeparation returns the minimum distance between sphere centers.
func (p Params) MinSeparation() float64 {
	p = p.withDefaults()
	return p.TargetRadius * p.SeparationFactor
}

// Generator produces target catalogs. It is not safe for concurrent use;
// the package-level functions taking an explicit *rand.Rand are.
type Generator struct {
	rnd    *rand.Rand
	params Params
}

// New returns a Generator seeded with the current time.
func New(params Params) *Generator {
	return NewWithSeed(params, time.Now().UnixNano())
}

// NewWithSeed returns a Generator with a fixed seed.
func NewWithSeed(params Params, seed int64) *Generator {
	return &Generator{
		rnd:    rand.New(rand.NewSource(seed)),
		params: params.withDefaults(),
	}
}

// Params returns the effective parameters.
func (g *Generator) Params() Params {
	return g.params
}

// Request identifies the (sub)level a catalog is built for.
type Request struct {
	Selected model.Difficulty
	Current  model.Difficulty
	SubLevel int
	Volume   Volume
}

// Build creates the targets for a (sub)level.
func (g *Generator) Build(req Request) []model.Target {
	count := ObjectCount(g.params.Tuning, req.Selected, req.Current, req.SubLevel)
	colors := ColorCount(g.params.Tuning, req.Selected, req.Current)
	vol := req.Volume
	if vol == nil {
		vol = DefaultHeadVolume()
	}
	return BuildCatalog(g.rnd, count, colors, vol, g.params)
}

// BuildCatalog composes a palette and a placement into targets. Each target picks
// its color uniformly from the palette, so several targets may share a color.
func BuildCatalog(rnd *rand.Rand, count, colorCount int, vol Volume, params Params) []model.Target {
	if count <= 0 {
		return nil
	}
	params = params.withDefaults()
	palette := GeneratePalette(rnd, colorCount, params.MinColorDistance, params.ColorAttempts)
	placement := GeneratePositions(rnd, count, vol, params.MinSeparation(), params.PlacementAttempts)

	targets := make([]model.Target, 0, count)
	for i := 0; i < count; i++ {
		color := colorful.Color{R: 1, G: 1, B: 1}
		if len(palette.Colors) > 0 {
			color = palette.Colors[rnd.Intn(len(palette.Colors))]
		}
		targets = append(targets, model.Target{
			ID:       newTargetID(rnd),
			Position: placement.Positions[i],
			Color:    color,
		})
	}
	return targets
}

func newTargetID(rnd *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rnd)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ObjectCount returns how many targets spawn for a (sub)level. The selected tier
// contributes its base count; every tier above it, up to and including the current
// one, adds its increment; each sub-level adds one more target.
func ObjectCount(table model.TuningTable, selected, current model.Difficulty, subLevel int) int {
	count := table.Lookup(selected).InitialObjectCount
	for d := selected + 1; d <= current; d++ {
		count += table.Lookup(d).ObjectCountIncrement
	}
	if subLevel > 0 {
		count += subLevel
	}
	return count
}

// ColorCount returns the palette size for a tier, accumulated like ObjectCount.
func ColorCount(table model.TuningTable, selected, current model.Difficulty) int {
	count := table.Lookup(selected).ColorCount
	for d := selected + 1; d <= current; d++ {
		count += table.Lookup(d).ColorCount
	}
	return count
}

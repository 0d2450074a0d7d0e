package generator

import (
	"math/rand"

	"github.com/verte-zerg/huehunt/internal/model"
)

// Volume is a region targets are scattered in.
type Volume interface {
	Sample(rnd *rand.Rand) model.Vec3
}

// HeadVolume is a region in front of the viewer, in head-relative coordinates
// where -Z points forward.
type HeadVolume struct {
	Distance float64
	Spread   float64
	Jitter   float64
}

// DefaultHeadVolume centers targets one meter ahead with a half-meter spread.
func DefaultHeadVolume() HeadVolume {
	return HeadVolume{Distance: 1.0, Spread: 0.5, Jitter: 0.4}
}

// Sample draws a point; vertical spread is biased upward.
func (v HeadVolume) Sample(rnd *rand.Rand) model.Vec3 {
	return model.Vec3{
		X: uniform(rnd, -v.Spread, v.Spread),
		Y: uniform(rnd, -v.Spread/2, v.Spread),
		Z: -v.Distance + uniform(rnd, -v.Jitter, v.Jitter),
	}
}

// AnchorVolume is a region around a world anchor placed on a detected surface.
type AnchorVolume struct {
	Center   model.Vec3
	Radius   float64
	Vertical bool
	// Clearance keeps sphere centers off the surface.
	Clearance float64
}

// NewAnchorVolume returns a volume around center sized for spheres of targetRadius.
func NewAnchorVolume(center model.Vec3, vertical bool, targetRadius float64) AnchorVolume {
	return AnchorVolume{
		Center:    center,
		Radius:    0.5,
		Vertical:  vertical,
		Clearance: targetRadius,
	}
}

// Sample draws a point on the anchor's open side. Horizontal anchors keep Y above
// the surface; vertical anchors keep Z in front of the wall.
func (v AnchorVolume) Sample(rnd *rand.Rand) model.Vec3 {
	lo := v.Clearance
	hi := v.Radius + v.Clearance
	var off model.Vec3
	if v.Vertical {
		off = model.Vec3{
			X: uniform(rnd, -v.Radius, v.Radius),
			Y: uniform(rnd, -v.Radius/2, v.Radius),
			Z: uniform(rnd, lo, hi),
		}
	} else {
		off = model.Vec3{
			X: uniform(rnd, -v.Radius, v.Radius),
			Y: uniform(rnd, lo, hi),
			Z: uniform(rnd, -v.Radius, v.Radius),
		}
	}
	return v.Center.Add(off)
}

// Placement is a batch of positions. Relaxed[i] is true when Positions[i] was
// accepted after the attempt budget ran out.
type Placement struct {
	Positions []model.Vec3
	Relaxed   []bool
}

// GeneratePositions rejection-samples count points in vol that keep at least
// minSeparation between each other. When the budget for a point runs out the
// last candidate is kept, so overlap is possible under crowded volumes.
func GeneratePositions(rnd *rand.Rand, count int, vol Volume, minSeparation float64, attempts int) Placement {
	if count <= 0 {
		return Placement{}
	}
	if attempts <= 0 {
		attempts = 1
	}
	p := Placement{
		Positions: make([]model.Vec3, 0, count),
		Relaxed:   make([]bool, 0, count),
	}
	for len(p.Positions) < count {
		var candidate model.Vec3
		valid := false
		for i := 0; i < attempts && !valid; i++ {
			candidate = vol.Sample(rnd)
			valid = farFromAll(candidate, p.Positions, minSeparation)
		}
		p.Positions = append(p.Positions, candidate)
		p.Relaxed = append(p.Relaxed, !valid)
	}
	return p
}

func farFromAll(c model.Vec3, placed []model.Vec3, minSeparation float64) bool {
	for _, q := range placed {
		if c.Dist(q) < minSeparation {
			return false
		}
	}
	return true
}

func uniform(rnd *rand.Rand, lo, hi float64) float64 {
	return lo + rnd.Float64()*(hi-lo)
}

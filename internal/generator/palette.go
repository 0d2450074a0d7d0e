package generator

import (
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// Channel bounds for generated colors. The floor keeps spheres away from near-black.
const (
	channelMin = 0.2
	channelMax = 1.0
)

// Palette is a batch of generated colors. Relaxed[i] is true when the attempt
// budget ran out for Colors[i] and the best candidate seen was accepted instead.
type Palette struct {
	Colors  []colorful.Color
	Relaxed []bool
}

// GeneratePalette draws count colors whose pairwise RGB distance is at least
// minDistance. It always returns count colors.
func GeneratePalette(rnd *rand.Rand, count int, minDistance float64, attempts int) Palette {
	if count <= 0 {
		return Palette{}
	}
	if attempts <= 0 {
		attempts = 1
	}
	p := Palette{
		Colors:  make([]colorful.Color, 0, count),
		Relaxed: make([]bool, 0, count),
	}
	for len(p.Colors) < count {
		var best colorful.Color
		bestDist := -1.0
		accepted := false
		for i := 0; i < attempts; i++ {
			candidate := randomColor(rnd)
			d := nearestDistance(candidate, p.Colors)
			if d >= minDistance {
				best = candidate
				accepted = true
				break
			}
			if d > bestDist {
				best = candidate
				bestDist = d
			}
		}
		p.Colors = append(p.Colors, best)
		p.Relaxed = append(p.Relaxed, !accepted)
	}
	return p
}

func randomColor(rnd *rand.Rand) colorful.Color {
	span := channelMax - channelMin
	return colorful.Color{
		R: channelMin + rnd.Float64()*span,
		G: channelMin + rnd.Float64()*span,
		B: channelMin + rnd.Float64()*span,
	}
}

// nearestDistance returns the RGB distance to the closest color in existing,
// or +Inf when existing is empty.
func nearestDistance(c colorful.Color, existing []colorful.Color) float64 {
	nearest := math.Inf(1)
	for _, e := range existing {
		if d := c.DistanceRgb(e); d < nearest {
			nearest = d
		}
	}
	return nearest
}

// ColorName returns a coarse English name for c, or "colored" when none fits.
func ColorName(c colorful.Color) string {
	r, g, b := c.R, c.G, c.B
	switch {
	case r > 0.9 && g > 0.9 && b > 0.9:
		return "white"
	case r > 0.8 && g < 0.3 && b < 0.3:
		return "red"
	case g > 0.8 && r < 0.3 && b < 0.3:
		return "green"
	case b > 0.8 && r < 0.3 && g < 0.3:
		return "blue"
	case r > 0.8 && g > 0.8 && b < 0.3:
		return "yellow"
	case r > 0.8 && g < 0.5 && b > 0.8:
		return "purple"
	case r > 0.8 && g > 0.5 && b < 0.3:
		return "orange"
	default:
		return "colored"
	}
}

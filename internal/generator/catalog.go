package generator

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/verte-zerg/huehunt/internal/model"
)

// ColorPicker chooses the color the player must clear from a catalog.
type ColorPicker func(targets []model.Target) (colorful.Color, bool)

// FirstTargetColor picks the color of the first target in catalog order.
func FirstTargetColor(targets []model.Target) (colorful.Color, bool) {
	if len(targets) == 0 {
		return colorful.Color{}, false
	}
	return targets[0].Color, true
}

// LeastCommonColor picks the color shared by the fewest targets. Ties go to the
// color that appears first in catalog order.
func LeastCommonColor(targets []model.Target) (colorful.Color, bool) {
	if len(targets) == 0 {
		return colorful.Color{}, false
	}
	counts := map[colorful.Color]int{}
	order := make([]colorful.Color, 0, len(targets))
	for _, t := range targets {
		if _, ok := counts[t.Color]; !ok {
			order = append(order, t.Color)
		}
		counts[t.Color]++
	}
	best := order[0]
	for _, c := range order[1:] {
		if counts[c] < counts[best] {
			best = c
		}
	}
	return best, true
}

// PickerFor maps a configured strategy name to a ColorPicker.
func PickerFor(name string) ColorPicker {
	if name == model.TargetColorLeastCommon {
		return LeastCommonColor
	}
	return FirstTargetColor
}

// OfColor returns the targets whose color equals c, in catalog order.
func OfColor(targets []model.Target, c colorful.Color) []model.Target {
	out := make([]model.Target, 0, len(targets))
	for _, t := range targets {
		if t.Color == c {
			out = append(out, t)
		}
	}
	return out
}

package tui

import (
	"math"

	"github.com/verte-zerg/huehunt/internal/model"
)

const labelAlphabet = "1234567890abcdefghijklmnopqrstuvwxyz"

// plane selects the two world axes projected onto the terminal grid.
type plane int

const (
	// planeXY looks at the scene from the front: up is +Y.
	planeXY plane = iota
	// planeXZ looks down on a floor: up is -Z.
	planeXZ
)

// labeler hands out fixed-width key labels to target ids.
type labeler struct {
	width int
	byID  map[string]string
	byKey map[string]string
}

func newLabeler(count int) *labeler {
	width := 1
	for capacity := len(labelAlphabet); capacity < count; capacity *= len(labelAlphabet) {
		width++
	}
	return &labeler{width: width, byID: map[string]string{}, byKey: map[string]string{}}
}

func (l *labeler) assign(id string) string {
	if key, ok := l.byID[id]; ok {
		return key
	}
	key := labelFor(len(l.byID), l.width)
	l.byID[id] = key
	l.byKey[key] = id
	return key
}

func (l *labeler) label(id string) (string, bool) {
	key, ok := l.byID[id]
	return key, ok
}

func (l *labeler) lookup(key string) (string, bool) {
	id, ok := l.byKey[key]
	return id, ok
}

func labelFor(n, width int) string {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = labelAlphabet[n%len(labelAlphabet)]
		n /= len(labelAlphabet)
	}
	return string(out)
}

type placed struct {
	target model.Target
	row    int
	col    int
}

// layoutTargets projects targets onto a cols x rows grid. Targets that land on
// an occupied cell take the next free cell in reading order; targets that find
// no free cell are returned as overflow.
func layoutTargets(targets []model.Target, p plane, cols, rows int) ([]placed, []model.Target) {
	if len(targets) == 0 {
		return nil, nil
	}
	if cols <= 0 || rows <= 0 {
		return nil, targets
	}
	hs := make([]float64, len(targets))
	vs := make([]float64, len(targets))
	for i, t := range targets {
		hs[i] = t.Position.X
		if p == planeXZ {
			vs[i] = t.Position.Z
		} else {
			vs[i] = -t.Position.Y
		}
	}
	hMin, hMax := bounds(hs)
	vMin, vMax := bounds(vs)

	occupied := make([]bool, cols*rows)
	out := make([]placed, 0, len(targets))
	for i, t := range targets {
		col := scale(hs[i], hMin, hMax, cols)
		row := scale(vs[i], vMin, vMax, rows)
		idx, ok := freeCell(occupied, row*cols+col)
		if !ok {
			return out, targets[i:]
		}
		occupied[idx] = true
		out = append(out, placed{target: t, row: idx / cols, col: idx % cols})
	}
	return out, nil
}

func bounds(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func scale(v, lo, hi float64, n int) int {
	if hi-lo < 1e-9 {
		return n / 2
	}
	idx := int(math.Round((v - lo) / (hi - lo) * float64(n-1)))
	return min(max(idx, 0), n-1)
}

func freeCell(occupied []bool, start int) (int, bool) {
	for i := 0; i < len(occupied); i++ {
		idx := (start + i) % len(occupied)
		if !occupied[idx] {
			return idx, true
		}
	}
	return 0, false
}

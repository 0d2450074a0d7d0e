package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one column of a plain-text report table.
type column struct {
	title string
	right bool
	// max caps the column's display width; 0 means unbounded.
	max int
}

func left(title string) column  { return column{title: title} }
func right(title string) column { return column{title: title, right: true} }

// textTable renders aligned rows using terminal display width.
type textTable struct {
	cols []column
	rows [][]string
	rule bool
}

func newTextTable(cols ...column) *textTable {
	return &textTable{cols: cols}
}

// withRule draws a dashed line under the header.
func (t *textTable) withRule() *textTable {
	t.rule = true
	return t
}

func (t *textTable) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *textTable) hasHeader() bool {
	for _, c := range t.cols {
		if c.title != "" {
			return true
		}
	}
	return false
}

func (t *textTable) lines() []string {
	widths := t.widths()
	if len(widths) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.rows)+2)
	if t.hasHeader() {
		titles := make([]string, len(t.cols))
		for i, c := range t.cols {
			titles[i] = c.title
		}
		out = append(out, t.line(titles, widths))
		if t.rule {
			dashes := make([]string, len(widths))
			for i, w := range widths {
				dashes[i] = strings.Repeat("-", w)
			}
			out = append(out, strings.Join(dashes, " "))
		}
	}
	for _, row := range t.rows {
		out = append(out, t.line(row, widths))
	}
	return out
}

func (t *textTable) widths() []int {
	n := len(t.cols)
	for _, row := range t.rows {
		if len(row) > n {
			n = len(row)
		}
	}
	widths := make([]int, n)
	for i, c := range t.cols {
		widths[i] = displayWidth(c.title)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := displayWidth(t.fit(i, cell)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func (t *textTable) line(cells []string, widths []int) string {
	var b strings.Builder
	for i, w := range widths {
		if i > 0 {
			b.WriteByte(' ')
		}
		cell := ""
		if i < len(cells) {
			cell = t.fit(i, cells[i])
		}
		alignRight := i < len(t.cols) && t.cols[i].right
		b.WriteString(padCell(cell, w, alignRight))
	}
	return strings.TrimRight(b.String(), " ")
}

func (t *textTable) fit(col int, cell string) string {
	if col >= len(t.cols) || t.cols[col].max <= 0 {
		return cell
	}
	return runewidth.Truncate(cell, t.cols[col].max, "…")
}

func padCell(value string, width int, alignRight bool) string {
	pad := width - displayWidth(value)
	if pad <= 0 {
		return value
	}
	if alignRight {
		return strings.Repeat(" ", pad) + value
	}
	return value + strings.Repeat(" ", pad)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}

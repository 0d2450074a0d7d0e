package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// chip is a pre-rendered history entry with its display width.
type chip struct {
	s     string
	width int
}

func newChip(text string, style lipgloss.Style) chip {
	return chip{s: style.Render(text), width: runewidth.StringWidth(text)}
}

func renderChips(chips []chip) string {
	parts := make([]string, len(chips))
	for i, c := range chips {
		parts[i] = c.s
	}
	return strings.Join(parts, chipSeparator)
}

const chipSeparator = "  "

// wrapChips lays chips out in lines no wider than width. A chip wider than
// width gets a line of its own.
func wrapChips(chips []chip, width int) string {
	if width <= 0 {
		return renderChips(chips)
	}
	sepWidth := runewidth.StringWidth(chipSeparator)
	var lines []string
	line := make([]chip, 0, len(chips))
	lineWidth := 0
	for _, c := range chips {
		next := lineWidth + c.width
		if len(line) > 0 {
			next += sepWidth
		}
		if next > width && len(line) > 0 {
			lines = append(lines, renderChips(line))
			line = line[:0]
			next = c.width
		}
		line = append(line, c)
		lineWidth = next
	}
	if len(line) > 0 {
		lines = append(lines, renderChips(line))
	}
	return strings.Join(lines, "\n")
}

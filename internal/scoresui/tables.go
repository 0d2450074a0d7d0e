package scoresui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/huehunt/internal/model"
)

const dateLayout = "2006-01-02 15:04"

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func scoreColumns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Difficulty", Width: 10},
		{Title: "Remaining (s)", Width: 13},
	}
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Selected", Width: 8},
		{Title: "Reached", Width: 8},
		{Title: "Level", Width: 5},
		{Title: "Result", Width: 6},
		{Title: "Remaining (s)", Width: 13},
	}
}

// scoreRows lists records newest first.
func scoreRows(scores []model.ScoreRecord) []table.Row {
	rows := make([]table.Row, 0, len(scores))
	for i := len(scores) - 1; i >= 0; i-- {
		rec := scores[i]
		rows = append(rows, table.Row{
			rec.Timestamp.Local().Format(dateLayout),
			rec.SelectedDifficulty.Title(),
			fmt.Sprintf("%.2f", rec.RemainingTime),
		})
	}
	return rows
}

// runRows lists runs newest first.
func runRows(runs []model.RunRecord) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		result := "lost"
		if run.Won {
			result = "won"
		}
		rows = append(rows, table.Row{
			run.EndedAt.Local().Format(dateLayout),
			run.SelectedDifficulty.Title(),
			run.ReachedDifficulty.Title(),
			fmt.Sprintf("%d", run.SubLevel),
			result,
			fmt.Sprintf("%.2f", run.RemainingTime),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// frame fits s into height rows, padding each row to width columns.
func frame(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	rows := strings.Split(s, "\n")
	if len(rows) > height {
		rows = rows[:height]
	}
	for len(rows) < height {
		rows = append(rows, "")
	}
	for i, row := range rows {
		if w := lipgloss.Width(row); w < width {
			rows[i] = row + strings.Repeat(" ", width-w)
		}
	}
	return strings.Join(rows, "\n")
}

func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

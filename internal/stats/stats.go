// Package stats contains score statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/huehunt/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates the results of one selected difficulty.
type Summary struct {
	Difficulty    model.Difficulty
	Runs          int
	Wins          int
	BestRemaining float64
	AvgRemaining  float64
	Furthest      model.Difficulty
	FurthestSub   int
}

// WinRate returns the fraction of runs that were won.
func (s Summary) WinRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Runs)
}

// Summarize builds one summary per difficulty that has scores or runs.
// Wins and remaining times come from the score records; run counts and the
// furthest tier come from the run records.
func Summarize(scores []model.ScoreRecord, runs []model.RunRecord) []Summary {
	byTier := map[model.Difficulty]*Summary{}
	get := func(d model.Difficulty) *Summary {
		s, ok := byTier[d]
		if !ok {
			s = &Summary{Difficulty: d, Furthest: d}
			byTier[d] = s
		}
		return s
	}
	sums := map[model.Difficulty]float64{}
	for _, rec := range scores {
		s := get(rec.SelectedDifficulty)
		s.Wins++
		sums[rec.SelectedDifficulty] += rec.RemainingTime
		if s.Wins == 1 || rec.RemainingTime > s.BestRemaining {
			s.BestRemaining = rec.RemainingTime
		}
	}
	for _, run := range runs {
		s := get(run.SelectedDifficulty)
		s.Runs++
		if run.ReachedDifficulty > s.Furthest ||
			(run.ReachedDifficulty == s.Furthest && run.SubLevel > s.FurthestSub) {
			s.Furthest = run.ReachedDifficulty
			s.FurthestSub = run.SubLevel
		}
	}

	out := make([]Summary, 0, len(byTier))
	for _, d := range model.Difficulties {
		s, ok := byTier[d]
		if !ok {
			continue
		}
		if s.Wins > 0 {
			s.AvgRemaining = sums[d] / float64(s.Wins)
		}
		// Ledgers written without run tracking still count their wins.
		if s.Runs < s.Wins {
			s.Runs = s.Wins
		}
		out = append(out, *s)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the per-difficulty summary table.
func RenderSummary(w io.Writer, summaries []Summary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No scores found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	tbl := newTextTable(
		left("Difficulty"), right("Runs"), right("Wins"), right("Win Rate"),
		right("Best (s)"), right("Avg (s)"), left("Furthest"),
	).withRule()
	for _, s := range summaries {
		tbl.add(
			s.Difficulty.Title(),
			fmt.Sprintf("%d", s.Runs),
			fmt.Sprintf("%d", s.Wins),
			fmt.Sprintf("%.0f%%", s.WinRate()*100),
			fmt.Sprintf("%.1f", s.BestRemaining),
			fmt.Sprintf("%.1f", s.AvgRemaining),
			fmt.Sprintf("%s %d", s.Furthest.Title(), s.FurthestSub),
		)
	}
	return writeLines(w, tbl.lines())
}

// RenderTrend prints a smoothed remaining-time sparkline per difficulty.
func RenderTrend(w io.Writer, scores []model.ScoreRecord, window int) error {
	if len(scores) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Remaining Time Trend"); err != nil {
		return err
	}
	tbl := newTextTable(left(""), left(""), right(""))
	for _, d := range model.Difficulties {
		var values []float64
		for _, rec := range scores {
			if rec.SelectedDifficulty == d {
				values = append(values, rec.RemainingTime)
			}
		}
		if len(values) == 0 {
			continue
		}
		smoothed := MovingAverage(values, window)
		tbl.add(
			d.Title(),
			"["+Sparkline(smoothed)+"]",
			fmt.Sprintf("%.1f", smoothed[len(smoothed)-1]),
		)
	}
	return writeLines(w, tbl.lines())
}

// RenderTopScores prints the best n score records.
func RenderTopScores(w io.Writer, scores []model.ScoreRecord, n int) error {
	top := TopScores(scores, n)
	if len(top) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Top Scores"); err != nil {
		return err
	}
	tbl := newTextTable(right("#"), right("Remaining (s)"), left("Difficulty"), left("Date")).withRule()
	for i, rec := range top {
		tbl.add(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.2f", rec.RemainingTime),
			rec.SelectedDifficulty.Title(),
			rec.Timestamp.Local().Format("2006-01-02 15:04"),
		)
	}
	return writeLines(w, tbl.lines())
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

package stats

import (
	"sort"

	"github.com/verte-zerg/huehunt/internal/model"
)

// TopScores returns the n records with the most remaining time. Ties keep the
// earlier record first.
func TopScores(scores []model.ScoreRecord, n int) []model.ScoreRecord {
	if n <= 0 || len(scores) == 0 {
		return nil
	}
	items := make([]model.ScoreRecord, len(scores))
	copy(items, scores)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RemainingTime > items[j].RemainingTime
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

package stats

import (
	"context"

	"github.com/verte-zerg/huehunt/internal/model"
)

// Source lists recorded scores and runs. Both ledgers implement it.
type Source interface {
	ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error)
	ListRuns(ctx context.Context, filter model.ScoreFilter) ([]model.RunRecord, error)
}

// Report contains precomputed data for score rendering.
type Report struct {
	Scores    []model.ScoreRecord
	Runs      []model.RunRecord
	Summaries []Summary
	Top       []model.ScoreRecord
}

// BuildReport loads and prepares data for score rendering.
func BuildReport(ctx context.Context, src Source, filter model.ScoreFilter, top int) (Report, error) {
	scores, err := src.ListScores(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	runs, err := src.ListRuns(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Scores:    scores,
		Runs:      runs,
		Summaries: Summarize(scores, runs),
		Top:       TopScores(scores, top),
	}, nil
}

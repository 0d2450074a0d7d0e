package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/huehunt/internal/model"
)

// Save-data object names.
const (
	flatObject    = "ledger"
	flatScoreProp = "scores"
	flatRunProp   = "runs"
	// Undecodable lists are moved to <prop>_corrupt before being replaced.
	corruptSuffix = "_corrupt"
)

type flatScore struct {
	RemainingTime float64 `yaml:"remainingTime"`
	Timestamp     string  `yaml:"timestamp"`
	Difficulty    string  `yaml:"selectedDifficulty"`
}

type flatRun struct {
	EndedAt       string  `yaml:"endedAt"`
	Selected      string  `yaml:"selectedDifficulty"`
	Reached       string  `yaml:"reachedDifficulty"`
	SubLevel      int     `yaml:"subLevel"`
	Won           bool    `yaml:"won"`
	RemainingTime float64 `yaml:"remainingTime"`
}

// FlatLedger keeps the score list as a single YAML document in the platform
// save-data directory. A nil manager keeps records in memory only.
type FlatLedger struct {
	mu      sync.Mutex
	manager *gdata.Manager
	scores  []flatScore
	runs    []flatRun
}

// OpenFlat opens the save-data directory for appName.
func OpenFlat(appName string) (*FlatLedger, error) {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("failed to open save data: %w", err)
	}
	return NewFlat(manager), nil
}

// NewFlat wraps an existing manager. manager may be nil.
func NewFlat(manager *gdata.Manager) *FlatLedger {
	return &FlatLedger{manager: manager}
}

// Load returns every score record in append order.
func (l *FlatLedger) Load(_ context.Context) ([]model.ScoreRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	scores, err := readList(l, flatScoreProp, l.scores)
	if err != nil {
		return nil, err
	}
	l.scores = scores
	out := make([]model.ScoreRecord, 0, len(l.scores))
	for _, fs := range l.scores {
		rec, err := fs.record()
		if err != nil {
			log.Printf("ledger: skipping score entry: %v", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Append adds a record and rewrites the list.
func (l *FlatLedger) Append(_ context.Context, rec model.ScoreRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	scores, err := readList(l, flatScoreProp, l.scores)
	if err != nil {
		return err
	}
	l.scores = append(scores, flatScore{
		RemainingTime: rec.RemainingTime,
		Timestamp:     rec.Timestamp.UTC().Format(time.RFC3339Nano),
		Difficulty:    rec.SelectedDifficulty.String(),
	})
	return l.write(flatScoreProp, l.scores)
}

// RecordRun adds a finished run.
func (l *FlatLedger) RecordRun(_ context.Context, run model.RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	runs, err := readList(l, flatRunProp, l.runs)
	if err != nil {
		return err
	}
	l.runs = append(runs, flatRun{
		EndedAt:       run.EndedAt.UTC().Format(time.RFC3339Nano),
		Selected:      run.SelectedDifficulty.String(),
		Reached:       run.ReachedDifficulty.String(),
		SubLevel:      run.SubLevel,
		Won:           run.Won,
		RemainingTime: run.RemainingTime,
	})
	return l.write(flatRunProp, l.runs)
}

// ListScores returns score records matching the filter in append order.
func (l *FlatLedger) ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error) {
	all, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.ScoreRecord
	for _, rec := range all {
		if filter.Matches(rec.SelectedDifficulty, rec.Timestamp) {
			out = append(out, rec)
		}
	}
	return lastN(out, filter.Last), nil
}

// ListRuns returns the recorded runs matching the filter in append order.
func (l *FlatLedger) ListRuns(_ context.Context, filter model.ScoreFilter) ([]model.RunRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	runs, err := readList(l, flatRunProp, l.runs)
	if err != nil {
		return nil, err
	}
	l.runs = runs
	var out []model.RunRecord
	for _, fr := range l.runs {
		run, err := fr.record()
		if err != nil {
			log.Printf("ledger: skipping run entry: %v", err)
			continue
		}
		if filter.Matches(run.SelectedDifficulty, run.EndedAt) {
			out = append(out, run)
		}
	}
	return lastN(out, filter.Last), nil
}

// readList returns the stored list for prop. Without a manager the in-memory
// list cur is returned. A list that cannot be decoded is moved aside and
// treated as empty, so the next write starts a fresh history.
func readList[T any](l *FlatLedger, prop string, cur []T) ([]T, error) {
	if l.manager == nil {
		return cur, nil
	}
	if !l.manager.ObjectPropExists(flatObject, prop) {
		return nil, nil
	}
	data, err := l.manager.LoadObjectProp(flatObject, prop)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", prop, err)
	}
	var out []T
	if err := yaml.Unmarshal(data, &out); err != nil {
		log.Printf("ledger: %s is unreadable, starting empty: %v", prop, err)
		if serr := l.manager.SaveObjectProp(flatObject, prop+corruptSuffix, data); serr != nil {
			log.Printf("ledger: failed to keep unreadable %s: %v", prop, serr)
		}
		if werr := l.write(prop, []T{}); werr != nil {
			log.Printf("ledger: %v", werr)
		}
		return nil, nil
	}
	return out, nil
}

func (l *FlatLedger) write(prop string, v any) error {
	if l.manager == nil {
		return nil
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", prop, err)
	}
	if err := l.manager.SaveObjectProp(flatObject, prop, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", prop, err)
	}
	return nil
}

func (fs flatScore) record() (model.ScoreRecord, error) {
	ts, err := time.Parse(time.RFC3339Nano, fs.Timestamp)
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("invalid score timestamp %q: %w", fs.Timestamp, err)
	}
	d, err := model.ParseDifficulty(fs.Difficulty)
	if err != nil {
		return model.ScoreRecord{}, err
	}
	return model.ScoreRecord{RemainingTime: fs.RemainingTime, Timestamp: ts, SelectedDifficulty: d}, nil
}

func (fr flatRun) record() (model.RunRecord, error) {
	ended, err := time.Parse(time.RFC3339Nano, fr.EndedAt)
	if err != nil {
		return model.RunRecord{}, fmt.Errorf("invalid run timestamp %q: %w", fr.EndedAt, err)
	}
	selected, err := model.ParseDifficulty(fr.Selected)
	if err != nil {
		return model.RunRecord{}, err
	}
	reached, err := model.ParseDifficulty(fr.Reached)
	if err != nil {
		return model.RunRecord{}, err
	}
	return model.RunRecord{
		EndedAt:            ended,
		SelectedDifficulty: selected,
		ReachedDifficulty:  reached,
		SubLevel:           fr.SubLevel,
		Won:                fr.Won,
		RemainingTime:      fr.RemainingTime,
	}, nil
}

// Package session implements the level/sub-level state machine of a run.
//
// A Session is owned by a single scheduling context. The host delivers taps,
// clock ticks and the delayed advance on one queue; the session never starts
// timers or goroutines of its own.
package session

import (
	"context"
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/verte-zerg/huehunt/internal/generator"
	"github.com/verte-zerg/huehunt/internal/model"
)

// Timing defaults for hosts.
const (
	DefaultTickInterval = 100 * time.Millisecond
	PresentationDelay   = time.Second
)

// MaxSubLevel is the last sub-level of a tier.
const MaxSubLevel = 10

// MinCarryOver is the floor applied to leftover time when a new (sub)level starts.
const MinCarryOver = 5.0

// State is the phase of a session.
type State int

// Session phases.
const (
	Idle State = iota
	AwaitingPlacement
	InProgress
	Cleared
	Over
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingPlacement:
		return "awaiting-placement"
	case InProgress:
		return "in-progress"
	case Cleared:
		return "level-cleared"
	case Over:
		return "game-over"
	default:
		return "unknown"
	}
}

// Ledger persists finished runs.
type Ledger interface {
	Load(ctx context.Context) ([]model.ScoreRecord, error)
	Append(ctx context.Context, rec model.ScoreRecord) error
}

// RunRecorder is implemented by ledgers that also keep lost runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run model.RunRecord) error
}

// Options configures a Session.
type Options struct {
	Generator *generator.Generator
	// Mode is model.ModeHead or model.ModeAnchor.
	Mode   string
	Ledger Ledger
	Picker generator.ColorPicker
	Host   Host
	Now    func() time.Time
	Logf   func(format string, args ...any)
}

// Session is the mutable run aggregate.
type Session struct {
	gen    *generator.Generator
	mode   string
	ledger Ledger
	picker generator.ColorPicker
	host   Host
	now    func() time.Time
	logf   func(format string, args ...any)

	state         State
	selected      model.Difficulty
	current       model.Difficulty
	subLevel      int
	timeRemaining float64
	complete      bool
	won           bool
	targetColor   colorful.Color
	targets       []model.Target
	remaining     map[string]struct{}
	volume        generator.Volume
	scores        []model.ScoreRecord
}

// New constructs an idle session.
func New(opts Options) *Session {
	s := &Session{
		gen:       opts.Generator,
		mode:      opts.Mode,
		ledger:    opts.Ledger,
		picker:    opts.Picker,
		host:      opts.Host,
		now:       opts.Now,
		logf:      opts.Logf,
		remaining: map[string]struct{}{},
	}
	if s.gen == nil {
		s.gen = generator.New(generator.Params{})
	}
	if s.mode == "" {
		s.mode = model.ModeHead
	}
	if s.picker == nil {
		s.picker = generator.FirstTargetColor
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logf == nil {
		s.logf = func(string, ...any) {}
	}
	s.timeRemaining = s.tuning(s.selected).TimePerTierSeconds
	return s
}

// Start begins a new run and dispatches the effects to the host.
func (s *Session) Start(d model.Difficulty) []Effect {
	return s.dispatch(s.Handle(StartEvent{Difficulty: d}))
}

// Place anchors the scene and starts the clock in anchor mode.
func (s *Session) Place(anchor model.Vec3, vertical bool) []Effect {
	return s.dispatch(s.Handle(PlaceEvent{Anchor: anchor, Vertical: vertical}))
}

// Tap reports a tapped target.
func (s *Session) Tap(id string) []Effect {
	return s.dispatch(s.Handle(TapEvent{ID: id}))
}

// Tick advances the countdown.
func (s *Session) Tick(delta float64) []Effect {
	return s.dispatch(s.Handle(TickEvent{Delta: delta}))
}

// Advance moves past a cleared level.
func (s *Session) Advance() []Effect {
	return s.dispatch(s.Handle(AdvanceEvent{}))
}

// Reset abandons the run.
func (s *Session) Reset() []Effect {
	return s.dispatch(s.Handle(ResetEvent{}))
}

func (s *Session) dispatch(effects []Effect) []Effect {
	Dispatch(s.host, effects)
	return effects
}

// Handle applies ev and returns the resulting effects without calling the host.
func (s *Session) Handle(ev Event) []Effect {
	switch e := ev.(type) {
	case StartEvent:
		return s.handleStart(e)
	case PlaceEvent:
		return s.handlePlace(e)
	case TapEvent:
		return s.handleTap(e)
	case TickEvent:
		return s.handleTick(e)
	case AdvanceEvent:
		return s.handleAdvance()
	case ResetEvent:
		return s.handleReset()
	default:
		return nil
	}
}

func (s *Session) handleStart(e StartEvent) []Effect {
	if !e.Difficulty.Valid() {
		return nil
	}
	effects := s.clearTargets()
	s.selected = e.Difficulty
	s.current = e.Difficulty
	s.subLevel = 0
	s.complete = false
	s.won = false
	s.timeRemaining = s.tuning(s.selected).TimePerTierSeconds
	effects = append(effects, s.loadScores())

	if s.mode == model.ModeAnchor {
		s.state = AwaitingPlacement
		s.volume = nil
		return append(effects, TimeChanged{Remaining: s.timeRemaining})
	}
	s.volume = generator.DefaultHeadVolume()
	return append(effects, s.buildLevel()...)
}

func (s *Session) handlePlace(e PlaceEvent) []Effect {
	if s.state != AwaitingPlacement {
		return nil
	}
	s.volume = generator.NewAnchorVolume(e.Anchor, e.Vertical, s.gen.Params().TargetRadius)
	return s.buildLevel()
}

func (s *Session) handleTap(e TapEvent) []Effect {
	if s.state != InProgress {
		return nil
	}
	idx := s.indexOf(e.ID)
	if idx < 0 {
		return nil
	}
	if _, ok := s.remaining[e.ID]; !ok {
		penalty := s.tuning(s.selected).WrongTapPenalty
		s.timeRemaining -= penalty
		return []Effect{
			PenaltyApplied{ID: e.ID, Seconds: penalty},
			TimeChanged{Remaining: s.timeRemaining},
		}
	}

	delete(s.remaining, e.ID)
	s.targets = append(s.targets[:idx], s.targets[idx+1:]...)
	effects := []Effect{TargetRemoved{ID: e.ID}}
	if len(s.remaining) == 0 {
		s.state = Cleared
		effects = append(effects, LevelCleared{Difficulty: s.current, SubLevel: s.subLevel})
	}
	return effects
}

func (s *Session) handleTick(e TickEvent) []Effect {
	if s.state != InProgress || !(e.Delta >= 0) {
		return nil
	}
	s.timeRemaining -= e.Delta
	effects := []Effect{TimeChanged{Remaining: s.timeRemaining}}
	if s.timeRemaining <= 0 {
		effects = append(effects, s.finish(false)...)
	}
	return effects
}

func (s *Session) handleAdvance() []Effect {
	if s.state != Cleared {
		return nil
	}
	carryOver := math.Max(s.timeRemaining, MinCarryOver)
	if s.subLevel < MaxSubLevel {
		s.subLevel++
		s.timeRemaining = carryOver + s.tuning(s.selected).SubLevelTimeIncrement
		return s.buildLevel()
	}
	if next, ok := s.current.Next(); ok {
		s.current = next
		s.subLevel = 0
		s.timeRemaining = carryOver + s.tuning(next).TimePerTierSeconds
		return s.buildLevel()
	}
	return s.finish(true)
}

func (s *Session) handleReset() []Effect {
	s.state = Idle
	effects := s.clearTargets()
	s.current = s.selected
	s.subLevel = 0
	s.complete = false
	s.won = false
	s.timeRemaining = s.tuning(s.selected).TimePerTierSeconds
	if s.mode == model.ModeAnchor {
		s.state = AwaitingPlacement
		s.volume = nil
	}
	effects = append(effects, s.loadScores(), TimeChanged{Remaining: s.timeRemaining})
	return effects
}

// buildLevel regenerates the catalog for the current (sub)level and starts the clock.
func (s *Session) buildLevel() []Effect {
	targets := s.gen.Build(generator.Request{
		Selected: s.selected,
		Current:  s.current,
		SubLevel: s.subLevel,
		Volume:   s.volume,
	})
	color, ok := s.picker(targets)
	if !ok {
		s.logf("empty catalog for %s sub-level %d; ending run\n", s.current, s.subLevel)
		return s.finish(false)
	}
	s.targets = targets
	s.targetColor = color
	s.remaining = map[string]struct{}{}
	for _, t := range generator.OfColor(targets, color) {
		s.remaining[t.ID] = struct{}{}
	}
	s.state = InProgress
	return []Effect{
		CatalogChanged{
			Targets:     s.Targets(),
			TargetColor: color,
			Difficulty:  s.current,
			SubLevel:    s.subLevel,
		},
		TimeChanged{Remaining: s.timeRemaining},
	}
}

// finish ends the run. Only a won run is written to the ledger.
func (s *Session) finish(won bool) []Effect {
	effects := s.clearTargets()
	s.state = Over
	s.complete = true
	s.won = won
	score := FinalScore{
		Won:                won,
		RemainingTime:      s.timeRemaining,
		Difficulty:         s.current,
		SubLevel:           s.subLevel,
		SelectedDifficulty: s.selected,
	}
	s.recordRun(model.RunRecord{
		EndedAt:            s.now(),
		SelectedDifficulty: s.selected,
		ReachedDifficulty:  s.current,
		SubLevel:           s.subLevel,
		Won:                won,
		RemainingTime:      s.timeRemaining,
	})
	if won {
		s.appendScore(model.ScoreRecord{
			RemainingTime:      s.timeRemaining,
			Timestamp:          s.now(),
			SelectedDifficulty: s.selected,
		})
	}
	return append(effects, GameOver{Score: score})
}

func (s *Session) clearTargets() []Effect {
	had := len(s.targets) > 0
	s.targets = nil
	s.remaining = map[string]struct{}{}
	s.targetColor = colorful.Color{}
	if !had {
		return nil
	}
	return []Effect{CatalogChanged{Difficulty: s.current, SubLevel: s.subLevel}}
}

func (s *Session) loadScores() Effect {
	s.scores = nil
	if s.ledger != nil {
		records, err := s.ledger.Load(context.Background())
		if err != nil {
			s.logf("failed to load scores: %v\n", err)
		} else {
			s.scores = records
		}
	}
	return ScoresLoaded{Records: s.Scores()}
}

func (s *Session) appendScore(rec model.ScoreRecord) {
	s.scores = append(s.scores, rec)
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Append(context.Background(), rec); err != nil {
		s.logf("failed to save score: %v\n", err)
	}
}

func (s *Session) recordRun(run model.RunRecord) {
	rr, ok := s.ledger.(RunRecorder)
	if !ok {
		return
	}
	if err := rr.RecordRun(context.Background(), run); err != nil {
		s.logf("failed to save run: %v\n", err)
	}
}

func (s *Session) indexOf(id string) int {
	for i, t := range s.targets {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) tuning(d model.Difficulty) model.Tuning {
	return s.gen.Params().Tuning.Lookup(d)
}

// Package tui provides the Bubble Tea terminal host for a hunt session.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/verte-zerg/huehunt/internal/generator"
	"github.com/verte-zerg/huehunt/internal/model"
	"github.com/verte-zerg/huehunt/internal/session"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeLines   = 6
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	penaltyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))

	urgencyColors = map[session.Urgency]string{
		session.Calm:     "#52C41A",
		session.Warning:  "#FAAD14",
		session.Critical: "#FF4D4F",
	}
)

type tickMsg time.Time

type advanceMsg struct {
	generation int
}

// Model implements the Bubble Tea hunt UI. It is also the session host:
// effects update the fields read by View.
type Model struct {
	config   model.Config
	sess     *session.Session
	interval time.Duration

	width  int
	height int

	difficulty  model.Difficulty
	targets     []model.Target
	targetColor colorful.Color
	plane       plane
	labels      *labeler
	pending     string

	remaining   float64
	barMax      float64
	bar         progress.Model
	notice      string
	cleared     bool
	final       *session.FinalScore
	scores      []model.ScoreRecord
	lastTick    time.Time
	generation  int
	needAdvance bool
}

// NewModel constructs the hunt UI and its session.
func NewModel(cfg model.Config, gen *generator.Generator, ledger session.Ledger, picker generator.ColorPicker) *Model {
	interval := time.Duration(cfg.TickMs) * time.Millisecond
	if interval <= 0 {
		interval = session.DefaultTickInterval
	}
	m := &Model{
		config:     cfg,
		interval:   interval,
		difficulty: cfg.Difficulty,
		bar:        progress.New(progress.WithoutPercentage(), progress.WithWidth(defaultWidth/2)),
		labels:     newLabeler(0),
	}
	m.sess = session.New(session.Options{
		Generator: gen,
		Mode:      cfg.Mode,
		Ledger:    ledger,
		Picker:    picker,
		Host:      m,
		Logf:      logErrf,
	})
	m.remaining = m.sess.Snapshot().TimeRemaining
	m.barMax = m.remaining
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width/2, 10)
		return m, nil
	case tickMsg:
		m.handleTick(time.Time(msg))
		return m, tea.Batch(m.tick(), m.scheduleAdvance())
	case advanceMsg:
		if msg.generation == m.generation {
			m.sess.Advance()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.handleKey(msg)
		return m, m.scheduleAdvance()
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	width, height := m.width, m.height
	if width == 0 || height == 0 {
		width, height = defaultWidth, defaultHeight
	}
	gridRows := max(height-chromeLines, 1)
	lines := []string{
		m.renderHeader(),
		m.renderInstruction(),
		m.renderBar(),
	}
	body := lipgloss.JoinVertical(lipgloss.Center, lines...)
	board := m.renderBoard(width, gridRows)
	content := lipgloss.JoinVertical(lipgloss.Center, body, board, m.renderHistory(width))
	footer := m.renderFooter()
	if height < 3 {
		return content
	}
	main := lipgloss.Place(width, height-1, lipgloss.Center, lipgloss.Center, content)
	return main + "\n" + lipgloss.Place(width, 1, lipgloss.Center, lipgloss.Center, footer)
}

// OnCatalogChanged implements session.Host.
func (m *Model) OnCatalogChanged(targets []model.Target, targetColor colorful.Color) {
	m.targets = append([]model.Target(nil), targets...)
	m.targetColor = targetColor
	m.labels = newLabeler(len(targets))
	m.pending = ""
	m.cleared = false
	m.barMax = m.remaining
	for _, t := range m.targets {
		m.labels.assign(t.ID)
	}
}

// OnTargetRemoved implements session.Host.
func (m *Model) OnTargetRemoved(id string) {
	for i, t := range m.targets {
		if t.ID == id {
			m.targets = append(m.targets[:i], m.targets[i+1:]...)
			break
		}
	}
	m.notice = ""
}

// OnLevelCleared implements session.Host.
func (m *Model) OnLevelCleared() {
	m.cleared = true
	m.needAdvance = true
}

// OnGameOver implements session.Host.
func (m *Model) OnGameOver(score session.FinalScore) {
	m.final = &score
	m.cleared = false
	m.scores = m.sess.Scores()
}

// OnTimeChanged implements session.Host.
func (m *Model) OnTimeChanged(remaining float64) {
	if remaining > m.barMax || len(m.targets) == 0 {
		m.barMax = remaining
	}
	m.remaining = remaining
}

// OnScoresLoaded implements session.Host.
func (m *Model) OnScoresLoaded(records []model.ScoreRecord) {
	m.scores = records
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// scheduleAdvance returns the delayed advance command after a cleared level.
func (m *Model) scheduleAdvance() tea.Cmd {
	if !m.needAdvance {
		return nil
	}
	m.needAdvance = false
	generation := m.generation
	return tea.Tick(session.PresentationDelay, func(time.Time) tea.Msg {
		return advanceMsg{generation: generation}
	})
}

func (m *Model) handleTick(now time.Time) {
	if m.sess.State() != session.InProgress {
		m.lastTick = time.Time{}
		return
	}
	delta := m.interval.Seconds()
	if !m.lastTick.IsZero() {
		delta = now.Sub(m.lastTick).Seconds()
	}
	m.lastTick = now
	m.sess.Tick(delta)
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	state := m.sess.State()
	switch msg.Type {
	case tea.KeyEsc:
		m.generation++
		m.final = nil
		m.cleared = false
		m.notice = ""
		m.sess.Reset()
		return
	case tea.KeyEnter:
		if state == session.Idle || state == session.Over {
			m.start()
		}
		return
	case tea.KeyTab:
		if state == session.Idle || state == session.Over {
			m.difficulty = nextDifficulty(m.difficulty)
		}
		return
	case tea.KeyRunes:
	default:
		return
	}

	if state == session.AwaitingPlacement {
		switch string(msg.Runes) {
		case "f":
			m.place(false)
		case "w":
			m.place(true)
		}
		return
	}
	if state != session.InProgress {
		return
	}
	for _, r := range msg.Runes {
		m.pending += string(r)
		if len(m.pending) < m.labels.width {
			continue
		}
		id, ok := m.labels.lookup(m.pending)
		m.pending = ""
		if !ok {
			continue
		}
		m.tap(id)
	}
}

func (m *Model) start() {
	m.generation++
	m.final = nil
	m.notice = ""
	m.plane = planeXY
	m.lastTick = time.Time{}
	m.sess.Start(m.difficulty)
}

func (m *Model) place(vertical bool) {
	m.plane = planeXZ
	if vertical {
		m.plane = planeXY
	}
	m.lastTick = time.Time{}
	m.sess.Place(model.Vec3{}, vertical)
}

func (m *Model) tap(id string) {
	for _, eff := range m.sess.Tap(id) {
		if p, ok := eff.(session.PenaltyApplied); ok {
			m.notice = fmt.Sprintf("-%.1fs", p.Seconds)
		}
	}
}

func (m *Model) renderHeader() string {
	snap := m.sess.Snapshot()
	switch snap.State {
	case session.Idle, session.Over:
		return titleStyle.Render(fmt.Sprintf("huehunt · %s", m.difficulty.Title()))
	case session.AwaitingPlacement:
		return titleStyle.Render(fmt.Sprintf("huehunt · %s · place the scene", snap.SelectedDifficulty.Title()))
	}
	return titleStyle.Render(fmt.Sprintf("%s · level %d/%d · %.1fs",
		snap.CurrentDifficulty.Title(), snap.SubLevel, session.MaxSubLevel, session.DisplayTime(m.remaining)))
}

func (m *Model) renderInstruction() string {
	switch {
	case m.final != nil && m.final.Won:
		return statusStyle.Render(fmt.Sprintf("You won with %.1fs left!", m.final.RemainingTime))
	case m.final != nil:
		return statusStyle.Render(fmt.Sprintf("Time's up at %s level %d.", m.final.Difficulty.Title(), m.final.SubLevel))
	case m.cleared:
		return statusStyle.Render("Level cleared!")
	case m.sess.State() == session.AwaitingPlacement:
		return statusStyle.Render("Press f to place on a floor or w on a wall")
	case m.sess.State() != session.InProgress:
		return statusStyle.Render("Press Enter to start")
	}
	swatch := lipgloss.NewStyle().Background(lipgloss.Color(m.targetColor.Hex())).Render("  ")
	line := fmt.Sprintf("Tap %s spheres %s", generator.ColorName(m.targetColor), swatch)
	if m.notice != "" {
		line += " " + penaltyStyle.Render(m.notice)
	}
	return line
}

func (m *Model) renderBar() string {
	if m.barMax <= 0 {
		return ""
	}
	percent := session.DisplayTime(m.remaining) / m.barMax
	if percent > 1 {
		percent = 1
	}
	m.bar.FullColor = urgencyColors[session.UrgencyFor(m.remaining)]
	return m.bar.ViewAs(percent)
}

func (m *Model) renderBoard(width, rows int) string {
	if len(m.targets) == 0 {
		return strings.Repeat("\n", rows-1)
	}
	cellWidth := m.labels.width + 2
	cols := max(width*8/10/cellWidth, 1)
	// Give grid rows to an overflow strip until every target is drawn.
	gridRows := rows
	for {
		layout, overflow := layoutTargets(m.targets, m.plane, cols, gridRows)
		strip := m.renderOverflow(overflow, width)
		stripRows := 0
		if strip != "" {
			stripRows = strings.Count(strip, "\n") + 1
		}
		if gridRows+stripRows <= rows || gridRows <= 1 {
			grid := m.renderGrid(layout, cols, gridRows, cellWidth)
			if strip == "" {
				return grid
			}
			return grid + "\n" + strip
		}
		gridRows--
	}
}

func (m *Model) renderGrid(layout []placed, cols, rows, cellWidth int) string {
	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
	}
	for _, p := range layout {
		label, _ := m.labels.label(p.target.ID)
		grid[p.row][p.col] = chipStyle(p.target.Color).Render(" " + label + " ")
	}
	blank := strings.Repeat(" ", cellWidth)
	lines := make([]string, rows)
	for r, row := range grid {
		var b strings.Builder
		for _, cell := range row {
			if cell == "" {
				b.WriteString(blank)
				continue
			}
			b.WriteString(cell)
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderOverflow(targets []model.Target, width int) string {
	if len(targets) == 0 {
		return ""
	}
	chips := make([]chip, 0, len(targets)+1)
	chips = append(chips, newChip(fmt.Sprintf("+%d", len(targets)), footerStyle))
	for _, t := range targets {
		label, _ := m.labels.label(t.ID)
		chips = append(chips, newChip(" "+label+" ", chipStyle(t.Color)))
	}
	return wrapChips(chips, width)
}

func (m *Model) renderHistory(width int) string {
	if len(m.scores) == 0 {
		return ""
	}
	recent := m.scores
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	chips := make([]chip, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		rec := recent[i]
		chips = append(chips, newChip(fmt.Sprintf("%.1fs %s", rec.RemainingTime, rec.SelectedDifficulty), footerStyle))
	}
	return wrapChips(chips, width*7/10)
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if best, ok := bestScore(m.scores, m.difficulty); ok {
		segments = append(segments, fmt.Sprintf("Best %s %.1fs", m.difficulty, best))
	}
	segments = append(segments, fmt.Sprintf("Runs won %d", len(m.scores)))
	segments = append(segments, "Enter start · Tab difficulty · Esc reset · Ctrl+C quit")
	return footerStyle.Render(strings.Join(segments, "  "))
}

func bestScore(scores []model.ScoreRecord, d model.Difficulty) (float64, bool) {
	best, found := 0.0, false
	for _, rec := range scores {
		if rec.SelectedDifficulty != d {
			continue
		}
		if !found || rec.RemainingTime > best {
			best, found = rec.RemainingTime, true
		}
	}
	return best, found
}

func nextDifficulty(d model.Difficulty) model.Difficulty {
	if next, ok := d.Next(); ok {
		return next
	}
	return model.Difficulties[0]
}

func chipStyle(c colorful.Color) lipgloss.Style {
	fg := "#F0F0F0"
	if 0.299*c.R+0.587*c.G+0.114*c.B > 0.6 {
		fg = "#141414"
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Foreground(lipgloss.Color(fg))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

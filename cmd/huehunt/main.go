// Package main provides the CLI entrypoint for huehunt.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/huehunt/internal/config"
	"github.com/verte-zerg/huehunt/internal/generator"
	"github.com/verte-zerg/huehunt/internal/model"
	"github.com/verte-zerg/huehunt/internal/scoresui"
	"github.com/verte-zerg/huehunt/internal/server"
	"github.com/verte-zerg/huehunt/internal/session"
	"github.com/verte-zerg/huehunt/internal/stats"
	"github.com/verte-zerg/huehunt/internal/store"
	"github.com/verte-zerg/huehunt/internal/tui"
)

const (
	defaultDifficulty  = "easy"
	defaultTickMs      = 100
	defaultAddr        = ":8080"
	defaultTrendWindow = 5
	defaultTop         = 10
)

var (
	gameDifficulty  string
	gameMode        string
	gameTickMs      int
	gameTargetColor string
	gameSeed        int64
	gameLedger      string

	genMinColorDistance  float64
	genColorAttempts     int
	genPlacementAttempts int
	genTargetRadius      float64
	genSeparationFactor  float64

	serveAddr string

	scoresTier   string
	scoresSince  string
	scoresLast   int
	scoresWindow int
	scoresTop    int
	scoresPlain  bool
)

// ledger is implemented by both score backends.
type ledger interface {
	session.Ledger
	session.RunRecorder
	stats.Source
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "huehunt",
		Short:         "Find every sphere of the target colour before time runs out",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}
	addGameFlags(rootCmd)

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newScoresCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func addGameFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&gameDifficulty, "difficulty", defaultDifficulty, "starting difficulty (easy, medium, hard)")
	cmd.Flags().StringVar(&gameMode, "mode", model.ModeHead, "placement mode (head, anchor)")
	cmd.Flags().IntVar(&gameTickMs, "tick-ms", defaultTickMs, "countdown tick interval in milliseconds")
	cmd.Flags().StringVar(&gameTargetColor, "target-color", model.TargetColorFirst, "target colour rule (first, least-common)")
	cmd.Flags().Int64Var(&gameSeed, "seed", 0, "random seed (0 seeds from the clock)")
	cmd.Flags().StringVar(&gameLedger, "ledger", model.LedgerSQLite, "score ledger backend (sqlite, gdata)")
	cmd.Flags().Float64Var(&genMinColorDistance, "min-color-distance", generator.DefaultMinColorDistance, "minimum RGB distance between palette colours")
	cmd.Flags().IntVar(&genColorAttempts, "color-attempts", generator.DefaultColorAttempts, "palette sampling attempts per colour")
	cmd.Flags().IntVar(&genPlacementAttempts, "placement-attempts", generator.DefaultPlacementAttempts, "placement sampling attempts per target")
	cmd.Flags().Float64Var(&genTargetRadius, "target-radius", generator.DefaultTargetRadius, "sphere radius in meters")
	cmd.Flags().Float64Var(&genSeparationFactor, "separation-factor", generator.DefaultSeparationFactor, "minimum center distance as a multiple of the radius (2.0-2.4)")
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	led, closeLedger := openPlayLedger(cfg.Ledger)
	defer closeLedger()

	gen := newGenerator(cfg)
	m := tui.NewModel(cfg, gen, led, generator.PickerFor(cfg.TargetColor))
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions to remote renderers over WebSocket",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	addGameFlags(cmd)
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, fileCfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)

	led, closeLedger := openPlayLedger(cfg.Ledger)
	defer closeLedger()

	srv := server.New(server.Options{
		Params:       generatorParams(cfg),
		Seed:         cfg.Seed,
		Mode:         cfg.Mode,
		Ledger:       led,
		Picker:       generator.PickerFor(cfg.TargetColor),
		TickInterval: time.Duration(cfg.TickMs) * time.Millisecond,
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.ListenAndServe(ctx, serveAddr); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func newScoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show recorded scores",
		Args:  cobra.NoArgs,
		RunE:  runScoresCmd,
	}
	cmd.Flags().StringVar(&gameLedger, "ledger", model.LedgerSQLite, "score ledger backend (sqlite, gdata)")
	cmd.Flags().StringVar(&scoresTier, "tier", "", "difficulty filter")
	cmd.Flags().StringVar(&scoresSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&scoresLast, "last", 0, "limit to last N records")
	cmd.Flags().IntVar(&scoresWindow, "window", defaultTrendWindow, "moving average window for trends")
	cmd.Flags().IntVar(&scoresTop, "top", defaultTop, "number of top scores to print")
	cmd.Flags().BoolVar(&scoresPlain, "plain", false, "print plain tables instead of the browser")
	return cmd
}

func runScoresCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "ledger", &gameLedger, fileCfg.Game.Ledger)

	filter, err := parseScoreFilter(scoresTier, scoresSince, scoresLast)
	if err != nil {
		return err
	}
	if scoresWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	if err := validateLedger(gameLedger); err != nil {
		return err
	}
	led, closeLedger, err := openLedger(gameLedger)
	if err != nil {
		return err
	}
	defer closeLedger()

	if scoresPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return printScores(cmd, led, filter)
	}
	m := scoresui.NewModel(led, filter, scoresWindow)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run scores TUI: %w", err)
	}
	return nil
}

func printScores(cmd *cobra.Command, src stats.Source, filter model.ScoreFilter) error {
	report, err := stats.BuildReport(cmd.Context(), src, filter, scoresTop)
	if err != nil {
		return fmt.Errorf("failed to load scores: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Summaries); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderTrend(out, report.Scores, scoresWindow); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderTopScores(out, report.Top, scoresTop); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		logErrf("Created config %s\n", path)
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		logErrln("EDITOR is not set; using vi")
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// resolveConfig merges the config file under the explicitly set flags and validates the result.
func resolveConfig(cmd *cobra.Command) (model.Config, config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "difficulty", &gameDifficulty, fileCfg.Game.Difficulty)
	applyStringConfig(cmd, "mode", &gameMode, fileCfg.Game.Mode)
	applyIntConfig(cmd, "tick-ms", &gameTickMs, fileCfg.Game.TickMs)
	applyStringConfig(cmd, "target-color", &gameTargetColor, fileCfg.Game.TargetColor)
	applyInt64Config(cmd, "seed", &gameSeed, fileCfg.Game.Seed)
	applyStringConfig(cmd, "ledger", &gameLedger, fileCfg.Game.Ledger)
	applyFloatConfig(cmd, "min-color-distance", &genMinColorDistance, fileCfg.Generator.MinColorDistance)
	applyIntConfig(cmd, "color-attempts", &genColorAttempts, fileCfg.Generator.ColorAttempts)
	applyIntConfig(cmd, "placement-attempts", &genPlacementAttempts, fileCfg.Generator.PlacementAttempts)
	applyFloatConfig(cmd, "target-radius", &genTargetRadius, fileCfg.Generator.TargetRadius)
	applyFloatConfig(cmd, "separation-factor", &genSeparationFactor, fileCfg.Generator.SeparationFactor)

	difficulty, err := model.ParseDifficulty(gameDifficulty)
	if err != nil {
		return model.Config{}, fileCfg, fmt.Errorf("--difficulty: %w", err)
	}
	table, err := fileCfg.ApplyTuning(model.DefaultTuning())
	if err != nil {
		return model.Config{}, fileCfg, err
	}
	cfg := model.Config{
		Difficulty:        difficulty,
		Mode:              strings.ToLower(strings.TrimSpace(gameMode)),
		TickMs:            gameTickMs,
		TargetColor:       strings.ToLower(strings.TrimSpace(gameTargetColor)),
		Seed:              gameSeed,
		Ledger:            strings.ToLower(strings.TrimSpace(gameLedger)),
		MinColorDistance:  genMinColorDistance,
		ColorAttempts:     genColorAttempts,
		PlacementAttempts: genPlacementAttempts,
		TargetRadius:      genTargetRadius,
		SeparationFactor:  genSeparationFactor,
		Tuning:            table,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, fileCfg, err
	}
	return cfg, fileCfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Mode != model.ModeHead && cfg.Mode != model.ModeAnchor {
		return fmt.Errorf("--mode must be %q or %q", model.ModeHead, model.ModeAnchor)
	}
	if cfg.TickMs <= 0 {
		return fmt.Errorf("--tick-ms must be > 0")
	}
	if cfg.TargetColor != model.TargetColorFirst && cfg.TargetColor != model.TargetColorLeastCommon {
		return fmt.Errorf("--target-color must be %q or %q", model.TargetColorFirst, model.TargetColorLeastCommon)
	}
	if err := validateLedger(cfg.Ledger); err != nil {
		return err
	}
	if cfg.MinColorDistance <= 0 || cfg.MinColorDistance > math.Sqrt(3) {
		return fmt.Errorf("--min-color-distance must be in (0, %.3f]", math.Sqrt(3))
	}
	if cfg.ColorAttempts <= 0 {
		return fmt.Errorf("--color-attempts must be > 0")
	}
	if cfg.PlacementAttempts <= 0 {
		return fmt.Errorf("--placement-attempts must be > 0")
	}
	if cfg.TargetRadius <= 0 {
		return fmt.Errorf("--target-radius must be > 0")
	}
	if cfg.SeparationFactor < 2.0 || cfg.SeparationFactor > 2.4 {
		return fmt.Errorf("--separation-factor must be between 2.0 and 2.4")
	}
	for _, d := range model.Difficulties {
		if err := cfg.Tuning.Lookup(d).Validate(); err != nil {
			return fmt.Errorf("[tuning.%s] %w", d, err)
		}
	}
	return nil
}

func validateLedger(name string) error {
	if name != model.LedgerSQLite && name != model.LedgerGdata {
		return fmt.Errorf("--ledger must be %q or %q", model.LedgerSQLite, model.LedgerGdata)
	}
	return nil
}

func parseScoreFilter(tier, since string, last int) (model.ScoreFilter, error) {
	var filter model.ScoreFilter
	if tier != "" {
		d, err := model.ParseDifficulty(tier)
		if err != nil {
			return filter, fmt.Errorf("--tier: %w", err)
		}
		filter.Difficulty = &d
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	if last < 0 {
		return filter, fmt.Errorf("--last must be >= 0")
	}
	filter.Last = last
	return filter, nil
}

func generatorParams(cfg model.Config) generator.Params {
	return generator.Params{
		Tuning:            cfg.Tuning,
		MinColorDistance:  cfg.MinColorDistance,
		ColorAttempts:     cfg.ColorAttempts,
		PlacementAttempts: cfg.PlacementAttempts,
		TargetRadius:      cfg.TargetRadius,
		SeparationFactor:  cfg.SeparationFactor,
	}
}

func newGenerator(cfg model.Config) *generator.Generator {
	if cfg.Seed != 0 {
		return generator.NewWithSeed(generatorParams(cfg), cfg.Seed)
	}
	return generator.New(generatorParams(cfg))
}

// openPlayLedger opens the configured ledger for a run. A ledger that cannot be
// opened is replaced by an in-memory one for the rest of the process.
func openPlayLedger(name string) (ledger, func()) {
	led, closeLedger, err := openLedger(name)
	if err != nil {
		logErrf("%v; scores will not be saved\n", err)
		return store.NewFlat(nil), func() {}
	}
	return led, closeLedger
}

func openLedger(name string) (ledger, func(), error) {
	if name == model.LedgerGdata {
		flat, err := store.OpenFlat(config.AppName)
		if err != nil {
			return nil, nil, err
		}
		return flat, func() {}, nil
	}
	path := config.DefaultDBPath()
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return st, closeFn, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# huehunt configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# difficulty = %q        # easy, medium or hard
# mode = %q              # head or anchor
# tick-ms = %d             # Countdown tick interval
# target-color = %q     # first or least-common
# seed = 0                 # 0 seeds from the clock
# ledger = %q          # sqlite or gdata

[generator]
# min-color-distance = %.2f
# color-attempts = %d
# placement-attempts = %d
# target-radius = %.2f
# separation-factor = %.1f  # 2.0-2.4

# Per-difficulty overrides; unset keys keep the stock values.
# [tuning.easy]
# initial-objects = 10
# object-increment = 5
# colors = 3
# tier-time = 10.0
# sub-level-time = 3.0
# wrong-tap-penalty = 1.0

[server]
# addr = %q
`,
		defaultDifficulty,
		model.ModeHead,
		defaultTickMs,
		model.TargetColorFirst,
		model.LedgerSQLite,
		generator.DefaultMinColorDistance,
		generator.DefaultColorAttempts,
		generator.DefaultPlacementAttempts,
		generator.DefaultTargetRadius,
		generator.DefaultSeparationFactor,
		defaultAddr,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

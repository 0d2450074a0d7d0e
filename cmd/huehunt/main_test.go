package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/huehunt/internal/generator"
	"github.com/verte-zerg/huehunt/internal/model"
	"github.com/verte-zerg/huehunt/internal/store"
)

func validConfig() model.Config {
	return model.Config{
		Difficulty:        model.Easy,
		Mode:              model.ModeHead,
		TickMs:            defaultTickMs,
		TargetColor:       model.TargetColorFirst,
		Ledger:            model.LedgerSQLite,
		MinColorDistance:  generator.DefaultMinColorDistance,
		ColorAttempts:     generator.DefaultColorAttempts,
		PlacementAttempts: generator.DefaultPlacementAttempts,
		TargetRadius:      generator.DefaultTargetRadius,
		SeparationFactor:  generator.DefaultSeparationFactor,
		Tuning:            model.DefaultTuning(),
	}
}

func TestValidateConfigDefaults(t *testing.T) {
	if err := validateConfig(validConfig()); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateConfigRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.Config)
		want   string
	}{
		{"mode", func(c *model.Config) { c.Mode = "orbit" }, "--mode"},
		{"tick", func(c *model.Config) { c.TickMs = 0 }, "--tick-ms"},
		{"target color", func(c *model.Config) { c.TargetColor = "rarest" }, "--target-color"},
		{"ledger", func(c *model.Config) { c.Ledger = "csv" }, "--ledger"},
		{"distance", func(c *model.Config) { c.MinColorDistance = 2 }, "--min-color-distance"},
		{"color attempts", func(c *model.Config) { c.ColorAttempts = 0 }, "--color-attempts"},
		{"placement attempts", func(c *model.Config) { c.PlacementAttempts = -1 }, "--placement-attempts"},
		{"radius", func(c *model.Config) { c.TargetRadius = 0 }, "--target-radius"},
		{"separation low", func(c *model.Config) { c.SeparationFactor = 1.5 }, "--separation-factor"},
		{"separation high", func(c *model.Config) { c.SeparationFactor = 2.5 }, "--separation-factor"},
		{"tuning", func(c *model.Config) {
			table := model.DefaultTuning()
			hard := table[model.Hard]
			hard.ColorCount = 0
			table[model.Hard] = hard
			c.Tuning = table
		}, "[tuning.hard]"},
	}
	for _, tc := range cases {
		cfg := validConfig()
		tc.mutate(&cfg)
		err := validateConfig(cfg)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected %q in %q", tc.name, tc.want, err.Error())
		}
	}
}

func TestParseScoreFilter(t *testing.T) {
	filter, err := parseScoreFilter("Hard", "2026-01-02", 5)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if filter.Difficulty == nil || *filter.Difficulty != model.Hard {
		t.Fatalf("unexpected tier: %v", filter.Difficulty)
	}
	if filter.Since == nil || filter.Since.Day() != 2 || filter.Since.Month() != 1 {
		t.Fatalf("unexpected since: %v", filter.Since)
	}
	if filter.Last != 5 {
		t.Fatalf("unexpected last: %d", filter.Last)
	}

	if _, err := parseScoreFilter("insane", "", 0); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
	if _, err := parseScoreFilter("", "02/01/2026", 0); err == nil {
		t.Fatalf("expected error for bad date")
	}
	if _, err := parseScoreFilter("", "", -1); err == nil {
		t.Fatalf("expected error for negative last")
	}
}

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	var mode string
	var tick int
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&mode, "mode", model.ModeHead, "")
	cmd.Flags().IntVar(&tick, "tick-ms", defaultTickMs, "")
	if err := cmd.Flags().Set("mode", model.ModeHead); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	fileMode := model.ModeAnchor
	fileTick := 40
	applyStringConfig(cmd, "mode", &mode, &fileMode)
	applyIntConfig(cmd, "tick-ms", &tick, &fileTick)

	if mode != model.ModeHead {
		t.Fatalf("explicit flag must win, got %q", mode)
	}
	if tick != 40 {
		t.Fatalf("config must fill unset flag, got %d", tick)
	}
	applyIntConfig(cmd, "tick-ms", &tick, nil)
	if tick != 40 {
		t.Fatalf("nil config value must be ignored")
	}
}

func TestDefaultConfigTemplateMentionsSections(t *testing.T) {
	tpl := defaultConfigTemplate()
	for _, want := range []string{"[game]", "[generator]", "[tuning.easy]", "[server]", "separation-factor"} {
		if !strings.Contains(tpl, want) {
			t.Fatalf("template missing %q", want)
		}
	}
}

func TestOpenPlayLedgerFallsBackToMemory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("XDG_DATA_HOME", blocker)

	if _, _, err := openLedger(model.LedgerSQLite); err == nil {
		t.Fatalf("expected the sqlite ledger to fail under a regular file")
	}
	led, closeLedger := openPlayLedger(model.LedgerSQLite)
	defer closeLedger()
	if _, ok := led.(*store.FlatLedger); !ok {
		t.Fatalf("expected an in-memory fallback, got %T", led)
	}

	ctx := context.Background()
	rec := model.ScoreRecord{RemainingTime: 2.5, Timestamp: time.Unix(10, 0), SelectedDifficulty: model.Hard}
	if err := led.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	loaded, err := led.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].RemainingTime != 2.5 {
		t.Fatalf("unexpected records: %+v", loaded)
	}
}

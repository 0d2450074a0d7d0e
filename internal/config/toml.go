// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/huehunt/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game      GameConfig            `toml:"game"`
	Generator GeneratorConfig       `toml:"generator"`
	Tuning    map[string]TierConfig `toml:"tuning"`
	Server    ServerConfig          `toml:"server"`
}

// GameConfig maps session-related settings.
type GameConfig struct {
	Difficulty  *string `toml:"difficulty"`
	Mode        *string `toml:"mode"`
	TickMs      *int    `toml:"tick-ms"`
	TargetColor *string `toml:"target-color"`
	Seed        *int64  `toml:"seed"`
	Ledger      *string `toml:"ledger"`
}

// GeneratorConfig maps scene generation settings.
type GeneratorConfig struct {
	MinColorDistance  *float64 `toml:"min-color-distance"`
	ColorAttempts     *int     `toml:"color-attempts"`
	PlacementAttempts *int     `toml:"placement-attempts"`
	TargetRadius      *float64 `toml:"target-radius"`
	SeparationFactor  *float64 `toml:"separation-factor"`
}

// TierConfig overrides individual tuning constants of one difficulty.
type TierConfig struct {
	InitialObjectCount    *int     `toml:"initial-objects"`
	ObjectCountIncrement  *int     `toml:"object-increment"`
	ColorCount            *int     `toml:"colors"`
	TimePerTierSeconds    *float64 `toml:"tier-time"`
	SubLevelTimeIncrement *float64 `toml:"sub-level-time"`
	WrongTapPenalty       *float64 `toml:"wrong-tap-penalty"`
}

// ServerConfig maps the remote host settings.
type ServerConfig struct {
	Addr *string `toml:"addr"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ApplyTuning returns base with the file's per-tier overrides applied.
func (c FileConfig) ApplyTuning(base model.TuningTable) (model.TuningTable, error) {
	out := model.TuningTable{}
	for _, d := range model.Difficulties {
		out[d] = base.Lookup(d)
	}
	for name, tier := range c.Tuning {
		d, err := model.ParseDifficulty(name)
		if err != nil {
			return nil, fmt.Errorf("invalid [tuning.%s]: %w", name, err)
		}
		tn := out[d]
		setInt(&tn.InitialObjectCount, tier.InitialObjectCount)
		setInt(&tn.ObjectCountIncrement, tier.ObjectCountIncrement)
		setInt(&tn.ColorCount, tier.ColorCount)
		setFloat(&tn.TimePerTierSeconds, tier.TimePerTierSeconds)
		setFloat(&tn.SubLevelTimeIncrement, tier.SubLevelTimeIncrement)
		setFloat(&tn.WrongTapPenalty, tier.WrongTapPenalty)
		out[d] = tn
	}
	return out, nil
}

func setInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}

func setFloat(target, value *float64) {
	if value != nil {
		*target = *value
	}
}

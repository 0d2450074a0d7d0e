package config

import (
	"os"
	"path/filepath"
)

// AppName names the config, data and save-data directories.
const AppName = "huehunt"

// ConfigPathEnv overrides the config file location when set.
const ConfigPathEnv = "HUEHUNT_CONFIG"

// xdgHome resolves an XDG base directory, falling back to a path under the
// user's home and finally to the working directory.
func xdgHome(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// DefaultDBPath returns the SQLite ledger path under XDG_DATA_HOME.
func DefaultDBPath() string {
	return filepath.Join(xdgHome("XDG_DATA_HOME", ".local", "share"), AppName, AppName+".db")
}

// DefaultConfigPath returns the TOML config path, honoring ConfigPathEnv.
func DefaultConfigPath() string {
	if v := os.Getenv(ConfigPathEnv); v != "" {
		return v
	}
	return filepath.Join(xdgHome("XDG_CONFIG_HOME", ".config"), AppName, "config.toml")
}

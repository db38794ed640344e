// Package config holds the engine's tunable settings with TOML file
// loading for the CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Caches sets per-cache capacities. Zero keeps the engine default.
type Caches struct {
	Validity    int `toml:"validity"`
	Symbols     int `toml:"symbols"`
	Docs        int `toml:"docs"`
	Hover       int `toml:"hover"`
	Inferred    int `toml:"inferred"`
	Diagnostics int `toml:"diagnostics"`
}

// Config is the engine configuration.
type Config struct {
	// DebounceMillis is the minimum delay between diagnostics
	// recomputations for one document during fast typing.
	DebounceMillis int `toml:"debounce_millis"`

	// SnapshotMaxAgeDays is how old a standard-library snapshot may be
	// before it is treated as stale.
	SnapshotMaxAgeDays int `toml:"snapshot_max_age_days"`

	// Include/Exclude are doublestar globs applied during workspace
	// discovery, relative to the workspace root.
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`

	Caches Caches `toml:"caches"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		DebounceMillis:     300,
		SnapshotMaxAgeDays: 7,
	}
}

// Load reads a TOML config file, applying it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DebounceInterval converts DebounceMillis to a duration.
func (c Config) DebounceInterval() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// SnapshotMaxAge converts SnapshotMaxAgeDays to a duration.
func (c Config) SnapshotMaxAge() time.Duration {
	return time.Duration(c.SnapshotMaxAgeDays) * 24 * time.Hour
}

// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/plantree/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Grove  GroveConfig  `toml:"grove"`
	Widget WidgetConfig `toml:"widget"`
}

// GroveConfig maps growth settings.
type GroveConfig struct {
	MorningMode   *bool    `toml:"morning-mode"`
	ThresholdLow  *int     `toml:"threshold-low"`
	ThresholdHigh *int     `toml:"threshold-high"`
	GrowthSpeed   *float64 `toml:"growth-speed"`
	MergeCount    *int     `toml:"merge-count"`
}

// WidgetConfig maps host settings.
type WidgetConfig struct {
	CaptureCmd     *string `toml:"capture-cmd"`
	AutosaveTicks  *int    `toml:"autosave-ticks"`
	TickMs         *int    `toml:"tick-ms"`
	LeaderboardTop *int    `toml:"leaderboard-top"`
	DataDir        *string `toml:"data-dir"`
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

// Overlay returns base with every grove key set in the file applied on top.
func (g GroveConfig) Overlay(base model.Settings) model.Settings {
	if g.MorningMode != nil {
		base.MorningMode = *g.MorningMode
	}
	if g.ThresholdLow != nil {
		base.ThresholdLow = *g.ThresholdLow
	}
	if g.ThresholdHigh != nil {
		base.ThresholdHigh = *g.ThresholdHigh
	}
	if g.GrowthSpeed != nil {
		base.GrowthSpeed = *g.GrowthSpeed
	}
	if g.MergeCount != nil {
		base.MergeCount = *g.MergeCount
	}
	return base
}

// IsSet reports whether any grove key is present in the file.
func (g GroveConfig) IsSet() bool {
	return g.MorningMode != nil || g.ThresholdLow != nil || g.ThresholdHigh != nil ||
		g.GrowthSpeed != nil || g.MergeCount != nil
}

// Merge returns g with every key set in over replacing its own.
func (g GroveConfig) Merge(over GroveConfig) GroveConfig {
	if over.MorningMode != nil {
		g.MorningMode = over.MorningMode
	}
	if over.ThresholdLow != nil {
		g.ThresholdLow = over.ThresholdLow
	}
	if over.ThresholdHigh != nil {
		g.ThresholdHigh = over.ThresholdHigh
	}
	if over.GrowthSpeed != nil {
		g.GrowthSpeed = over.GrowthSpeed
	}
	if over.MergeCount != nil {
		g.MergeCount = over.MergeCount
	}
	return g
}

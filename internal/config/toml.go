// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game   GameConfig   `toml:"game"`
	Server ServerConfig `toml:"server"`
}

// GameConfig maps pit stop difficulty settings.
type GameConfig struct {
	CycleMs       *int     `toml:"cycle-ms"`
	MovementSpeed *float64 `toml:"movement-speed"`
	ShrinkRate    *float64 `toml:"shrink-rate"`
	MinWidth      *float64 `toml:"min-width"`
	Tolerance     *float64 `toml:"tolerance"`
	Oscillator    *string  `toml:"oscillator"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr     *string `toml:"addr"`
	LogLevel *string `toml:"log-level"`
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
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Trainer TrainerConfig `toml:"trainer"`
	Audio   AudioConfig   `toml:"audio"`
	Log     LogConfig     `toml:"log"`
}

// TrainerConfig maps trainer settings. Set values override the saved ones at startup.
type TrainerConfig struct {
	Mode       *string  `toml:"mode"`
	Difficulty *string  `toml:"difficulty"`
	Obstacle   *string  `toml:"obstacle"`
	Sound      *string  `toml:"sound"`
	Volume     *float64 `toml:"volume"`
}

// AudioConfig maps output device settings.
type AudioConfig struct {
	SampleRate *int `toml:"sample-rate"`
	BufferMs   *int `toml:"buffer-ms"`
}

// LogConfig maps diagnostics log settings.
type LogConfig struct {
	Dir   *string `toml:"dir"`
	Level *string `toml:"level"`
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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
	if cfg.Trainer.Sound != nil || cfg.Audio.SampleRate != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[trainer]
mode = "3d"
difficulty = "hard"
sound = "ocean"
volume = 0.4

[audio]
sample-rate = 48000

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Trainer.Mode == nil || *cfg.Trainer.Mode != "3d" {
		t.Fatalf("unexpected mode: %v", cfg.Trainer.Mode)
	}
	if cfg.Trainer.Volume == nil || *cfg.Trainer.Volume != 0.4 {
		t.Fatalf("unexpected volume: %v", cfg.Trainer.Volume)
	}
	if cfg.Trainer.Obstacle != nil {
		t.Fatalf("expected unset obstacle to stay nil")
	}
	if cfg.Audio.SampleRate == nil || *cfg.Audio.SampleRate != 48000 {
		t.Fatalf("unexpected sample rate: %v", cfg.Audio.SampleRate)
	}
	if cfg.Audio.BufferMs != nil {
		t.Fatalf("expected unset buffer to stay nil")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected level: %v", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[trainer]\nlanguage = \"en\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "trainer.language") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	if got := DefaultConfigPath(); got != "/tmp/cfg/blindsound/config.toml" {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != "/tmp/data/blindsound/blindsound.db" {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultLogDir(); got != "/tmp/state/blindsound/logs" {
		t.Fatalf("unexpected log dir %q", got)
	}
}

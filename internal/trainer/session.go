// Package trainer runs rounds and owns the persisted trainer state.
package trainer

import (
	"context"
	"errors"

	"github.com/verte-zerg/blindsound/internal/catalog"
	"github.com/verte-zerg/blindsound/internal/log"
	"github.com/verte-zerg/blindsound/internal/model"
	"github.com/verte-zerg/blindsound/internal/store"
)

// Repository is the durable storage the session reads once and writes after
// every mutation.
type Repository interface {
	LoadSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, settings model.Settings) error
	LoadStats(ctx context.Context) (model.StatsData, error)
	SaveStats(ctx context.Context, stats model.StatsData) error
	LoadMode(ctx context.Context) (model.Mode, error)
	SaveMode(ctx context.Context, mode model.Mode) error
	InsertRound(ctx context.Context, rec model.RoundRecord) (int64, error)
}

// Session holds the settings, statistics and mode for one run of the trainer.
// It is owned by a single goroutine.
type Session struct {
	repo     Repository
	settings model.Settings
	stats    model.StatsData
	mode     model.Mode
	loaded   bool
}

// NewSession returns a session with defaults; call Load before use.
func NewSession(repo Repository) *Session {
	return &Session{
		repo:     repo,
		settings: model.DefaultSettings(),
		mode:     model.Mode2D,
	}
}

// Load reads persisted state. Missing or corrupt values fall back to defaults
// and are logged; Load itself never fails.
func (s *Session) Load(ctx context.Context) {
	if s.repo != nil {
		if settings, err := s.repo.LoadSettings(ctx); err == nil {
			s.settings = settings
		} else {
			warnLoad("settings", err)
			s.settings = model.DefaultSettings()
		}
		if stats, err := s.repo.LoadStats(ctx); err == nil {
			s.stats = stats
		} else {
			warnLoad("stats", err)
			s.stats = model.StatsData{}
		}
		if mode, err := s.repo.LoadMode(ctx); err == nil {
			s.mode = mode
		} else {
			warnLoad("mode", err)
			s.mode = model.Mode2D
		}
	}
	s.loaded = true
}

func warnLoad(what string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		log.Debugf("no saved %s, using defaults", what)
		return
	}
	log.Warnf("failed to load %s, using defaults: %v", what, err)
}

// Loaded reports whether Load has completed.
func (s *Session) Loaded() bool {
	return s.loaded
}

// Settings returns a snapshot of the current settings.
func (s *Session) Settings() model.Settings {
	return s.settings
}

// Stats returns a snapshot of the aggregate statistics.
func (s *Session) Stats() model.StatsData {
	return s.stats
}

// Mode returns the selected mode.
func (s *Session) Mode() model.Mode {
	return s.mode
}

// SetDifficulty updates and persists the difficulty.
func (s *Session) SetDifficulty(ctx context.Context, d model.Difficulty) {
	s.settings.Difficulty = d
	s.saveSettings(ctx)
}

// SetObstacle updates and persists the obstacle.
func (s *Session) SetObstacle(ctx context.Context, o catalog.Obstacle) {
	s.settings.Obstacle = o
	s.saveSettings(ctx)
}

// SetSound updates and persists the sound.
func (s *Session) SetSound(ctx context.Context, snd catalog.Sound) {
	s.settings.Sound = snd
	s.saveSettings(ctx)
}

// SetVolume clamps v to [0,1] and persists it.
func (s *Session) SetVolume(ctx context.Context, v float64) {
	s.settings.Volume = max(0, min(1, v))
	s.saveSettings(ctx)
}

// ApplySettings replaces all settings at once. Invalid settings are rejected.
func (s *Session) ApplySettings(ctx context.Context, settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.settings = settings
	s.saveSettings(ctx)
	return nil
}

// SetMode updates and persists the mode.
func (s *Session) SetMode(ctx context.Context, mode model.Mode) {
	s.mode = mode
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveMode(ctx, mode); err != nil {
		log.Warnf("failed to save mode: %v", err)
	}
}

// RecordVerdict stores the stats resulting from a scored round.
func (s *Session) RecordVerdict(ctx context.Context, stats model.StatsData, rec model.RoundRecord) {
	s.stats = stats
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveStats(ctx, stats); err != nil {
		log.Warnf("failed to save stats: %v", err)
	}
	if _, err := s.repo.InsertRound(ctx, rec); err != nil {
		log.Warnf("failed to record round: %v", err)
	}
}

func (s *Session) saveSettings(ctx context.Context) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveSettings(ctx, s.settings); err != nil {
		log.Warnf("failed to save settings: %v", err)
	}
}

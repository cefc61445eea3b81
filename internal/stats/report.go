package stats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/blindsound/internal/catalog"
	"github.com/verte-zerg/blindsound/internal/model"
	"github.com/verte-zerg/blindsound/internal/store"
)

// minWeakAttempts is how many rounds a sound needs before it can be called weak.
const minWeakAttempts = 3

// Source is the storage a report is built from.
type Source interface {
	LoadStats(ctx context.Context) (model.StatsData, error)
	ListRounds(ctx context.Context, cfg model.StatsConfig) ([]model.RoundRecord, error)
	ListBreakdown(ctx context.Context, cfg model.StatsConfig, dim store.Dimension) ([]model.Breakdown, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Config       model.StatsConfig
	Stats        model.StatsData
	Rounds       []model.RoundRecord
	BySound      []model.Breakdown
	ByObstacle   []model.Breakdown
	ByDifficulty []model.Breakdown
}

// BuildReport loads and prepares data for stats rendering. Missing aggregate
// stats are treated as zero.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	data, err := src.LoadStats(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Report{}, fmt.Errorf("failed to load stats: %w", err)
	}
	rounds, err := src.ListRounds(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list rounds: %w", err)
	}
	report := Report{Config: cfg, Stats: data, Rounds: rounds}
	targets := []struct {
		dim  store.Dimension
		dest *[]model.Breakdown
	}{
		{store.BySound, &report.BySound},
		{store.ByObstacle, &report.ByObstacle},
		{store.ByDifficulty, &report.ByDifficulty},
	}
	for _, target := range targets {
		rows, err := src.ListBreakdown(ctx, cfg, target.dim)
		if err != nil {
			return Report{}, fmt.Errorf("failed to aggregate by %s: %w", target.dim, err)
		}
		*target.dest = rows
	}
	return report, nil
}

// Mode returns the mode the report focuses on.
func (r Report) Mode() model.Mode {
	if r.Config.Mode == "" {
		return model.Mode2D
	}
	return r.Config.Mode
}

// WeakSounds names the sounds with the lowest accuracy.
func (r Report) WeakSounds(n int) []string {
	keys := Weakest(r.BySound, minWeakAttempts, n)
	for i, k := range keys {
		keys[i] = SoundLabel(k)
	}
	return keys
}

// SoundLabel renders a stored sound id with its icon.
func SoundLabel(key string) string {
	s, err := catalog.ParseSound(key)
	if err != nil {
		return key
	}
	info := s.Info()
	return info.Icon + " " + info.Name
}

// ObstacleLabel renders a stored obstacle id with its icon.
func ObstacleLabel(key string) string {
	o, err := catalog.ParseObstacle(key)
	if err != nil {
		return key
	}
	info := o.Info()
	return info.Icon + " " + info.Name
}

// RenderPlain writes the whole report as text sized to totalWidth.
func RenderPlain(w io.Writer, r Report, totalWidth int, useColor bool) error {
	if err := RenderSummary(w, r.Stats, r.Mode()); err != nil {
		return err
	}
	if err := RenderModeTable(w, r.Stats); err != nil {
		return err
	}
	if err := RenderBreakdown(w, "By Sound", r.BySound, SoundLabel); err != nil {
		return err
	}
	if err := RenderBreakdown(w, "By Obstacle", r.ByObstacle, ObstacleLabel); err != nil {
		return err
	}
	if err := RenderBreakdown(w, "By Difficulty", r.ByDifficulty, nil); err != nil {
		return err
	}
	if weak := r.WeakSounds(3); len(weak) > 0 {
		if _, err := fmt.Fprintf(w, "Needs practice: %s\n\n", strings.Join(weak, ", ")); err != nil {
			return err
		}
	}
	return RenderCurves(w, r.Rounds, r.Config.CurveWindow, totalWidth, 0, useColor)
}

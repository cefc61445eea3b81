// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/blindsound/internal/catalog"
)

// Mode selects the planar or the planar-plus-depth task.
type Mode string

// Modes.
const (
	Mode2D Mode = "2d"
	Mode3D Mode = "3d"
)

// Modes returns every mode.
func Modes() []Mode {
	return []Mode{Mode2D, Mode3D}
}

// ParseMode resolves a mode id.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(Mode2D):
		return Mode2D, nil
	case string(Mode3D):
		return Mode3D, nil
	}
	return "", fmt.Errorf("unknown mode %q (want 2d or 3d)", value)
}

// Difficulty controls source distance and the correctness threshold.
type Difficulty string

// Difficulties.
const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties returns every difficulty in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// ParseDifficulty resolves a difficulty id.
func ParseDifficulty(value string) (Difficulty, error) {
	for _, d := range Difficulties() {
		if strings.EqualFold(strings.TrimSpace(value), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", value)
}

// RadiusFactor is the fraction of the arena radius a source is placed at.
func (d Difficulty) RadiusFactor() float64 {
	switch d {
	case Easy:
		return 0.7
	case Medium:
		return 0.85
	case Hard:
		return 1.0
	default:
		panic(fmt.Sprintf("model: unhandled difficulty %q", string(d)))
	}
}

// Threshold is the pixel distance a guess must stay under to count as correct.
func (d Difficulty) Threshold() float64 {
	switch d {
	case Easy:
		return 50
	case Medium:
		return 35
	case Hard:
		return 20
	default:
		panic(fmt.Sprintf("model: unhandled difficulty %q", string(d)))
	}
}

// Next returns the following difficulty, wrapping around.
func (d Difficulty) Next() Difficulty {
	switch d {
	case Easy:
		return Medium
	case Medium:
		return Hard
	default:
		return Easy
	}
}

// Point is a canvas-space position. Z is the depth offset and is meaningful
// only when HasZ is set, which holds exactly in 3D mode.
type Point struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z,omitempty"`
	HasZ bool    `json:"hasZ,omitempty"`
}

// Pt builds a planar point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Pt3 builds a point carrying depth.
func Pt3(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z, HasZ: true}
}

// Arena describes the canvas the task is played on.
type Arena struct {
	CanvasSize float64
	Radius     float64
}

// DefaultArena matches the 400px canvas with a 150px source ring.
func DefaultArena() Arena {
	return Arena{CanvasSize: 400, Radius: 150}
}

// Center returns the canvas midpoint coordinate (same on both axes).
func (a Arena) Center() float64 {
	return a.CanvasSize / 2
}

// Settings are the user-editable trainer options.
type Settings struct {
	Difficulty Difficulty       `json:"difficulty"`
	Obstacle   catalog.Obstacle `json:"obstacleType"`
	Sound      catalog.Sound    `json:"soundType"`
	Volume     float64          `json:"volume"`
}

// DefaultSettings returns the first-run settings.
func DefaultSettings() Settings {
	return Settings{
		Difficulty: Easy,
		Obstacle:   catalog.NoObstacle,
		Sound:      catalog.Kalimba,
		Volume:     0.7,
	}
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	if _, err := ParseDifficulty(string(s.Difficulty)); err != nil {
		return err
	}
	if !s.Obstacle.Valid() {
		return fmt.Errorf("unknown obstacle %q", string(s.Obstacle))
	}
	if !s.Sound.Valid() {
		return fmt.Errorf("unknown sound %q", string(s.Sound))
	}
	if s.Volume < 0 || s.Volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %.2f", s.Volume)
	}
	return nil
}

// Counters are the attempt and streak counters tracked per scope.
type Counters struct {
	TotalAttempts   int `json:"totalAttempts"`
	CorrectAttempts int `json:"correctAttempts"`
	CurrentStreak   int `json:"currentStreak"`
	BestStreak      int `json:"bestStreak"`
}

// Accuracy returns the correct share in [0,1].
func (c Counters) Accuracy() float64 {
	if c.TotalAttempts <= 0 {
		return 0
	}
	return float64(c.CorrectAttempts) / float64(c.TotalAttempts)
}

// ModeStats holds counters for each mode.
type ModeStats struct {
	TwoD   Counters `json:"2d"`
	ThreeD Counters `json:"3d"`
}

// For returns the counters of a mode.
func (m *ModeStats) For(mode Mode) *Counters {
	switch mode {
	case Mode2D:
		return &m.TwoD
	case Mode3D:
		return &m.ThreeD
	default:
		panic(fmt.Sprintf("model: unhandled mode %q", string(mode)))
	}
}

// StatsData is the persisted aggregate. Top-level totals are the sum over
// modes; the top-level streaks are a separate global counter.
type StatsData struct {
	Counters
	ModeStats ModeStats `json:"modeStats"`
}

// RoundState is the ephemeral state of one round.
type RoundState struct {
	Source     Point
	Guess      *Point
	IsPlaying  bool
	ShowResult bool
	StatusFind bool
}

// RoundRecord is a resolved round kept in history.
type RoundRecord struct {
	ID         int64
	StartedAt  time.Time
	ResolvedAt time.Time
	Mode       Mode
	Difficulty Difficulty
	Obstacle   catalog.Obstacle
	Sound      catalog.Sound
	Source     Point
	Guess      Point
	DistancePx float64
	Correct    bool
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode        Mode
	Since       *time.Time
	Last        int
	CurveWindow int
}

// Breakdown aggregates rounds sharing one value of a dimension.
type Breakdown struct {
	Key          string
	Attempts     int
	Correct      int
	MeanDistance float64
}

// Accuracy returns the correct share in [0,1].
func (b Breakdown) Accuracy() float64 {
	if b.Attempts <= 0 {
		return 0
	}
	return float64(b.Correct) / float64(b.Attempts)
}

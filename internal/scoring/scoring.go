// Package scoring judges guesses and folds verdicts into the statistics.
package scoring

import (
	"math"

	"github.com/verte-zerg/blindsound/internal/model"
)

// DepthWeight scales squared depth error before the square root.
const DepthWeight = 100

// MetersPerPixel converts canvas distance into the displayed meters.
const MetersPerPixel = 0.02

// Verdict is the outcome of one scored guess.
type Verdict struct {
	DistancePx float64
	Correct    bool
	Stats      model.StatsData
}

// Distance returns the error between guess and truth. Depth counts only in 3D
// when both points carry it.
func Distance(guess, truth model.Point, mode model.Mode) float64 {
	dx := guess.X - truth.X
	dy := guess.Y - truth.Y
	if mode == model.Mode3D && guess.HasZ && truth.HasZ {
		dz := guess.Z - truth.Z
		return math.Sqrt(dx*dx + dy*dy + dz*dz*DepthWeight)
	}
	return math.Hypot(dx, dy)
}

// Score judges a guess and returns the stats that result from it.
func Score(guess, truth model.Point, difficulty model.Difficulty, mode model.Mode, prev model.StatsData) Verdict {
	dist := Distance(guess, truth, mode)
	correct := dist < difficulty.Threshold()
	return Verdict{
		DistancePx: dist,
		Correct:    correct,
		Stats:      Apply(prev, mode, correct),
	}
}

// Apply folds one verdict into prev. Totals are recomputed from the modes;
// the top-level streak is tracked independently of the per-mode streaks.
func Apply(prev model.StatsData, mode model.Mode, correct bool) model.StatsData {
	next := prev
	bump(next.ModeStats.For(mode), correct)

	next.TotalAttempts = next.ModeStats.TwoD.TotalAttempts + next.ModeStats.ThreeD.TotalAttempts
	next.CorrectAttempts = next.ModeStats.TwoD.CorrectAttempts + next.ModeStats.ThreeD.CorrectAttempts
	if correct {
		next.CurrentStreak++
	} else {
		next.CurrentStreak = 0
	}
	next.BestStreak = max(next.BestStreak, next.CurrentStreak)
	return next
}

func bump(c *model.Counters, correct bool) {
	c.TotalAttempts++
	if correct {
		c.CorrectAttempts++
		c.CurrentStreak++
	} else {
		c.CurrentStreak = 0
	}
	c.BestStreak = max(c.BestStreak, c.CurrentStreak)
}

// Meters converts a pixel distance for display.
func Meters(px float64) float64 {
	return px * MetersPerPixel
}

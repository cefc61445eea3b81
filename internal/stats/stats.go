// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/blindsound/internal/model"
	"github.com/verte-zerg/blindsound/internal/scoring"
)

const sparkChars = " .:-=+*#%@"

// Level is a coarse skill label derived from accuracy.
type Level int

// Levels, lowest first.
const (
	Beginner Level = iota
	Novice
	Experienced
	Expert
)

func (l Level) String() string {
	switch l {
	case Beginner:
		return "beginner"
	case Novice:
		return "novice"
	case Experienced:
		return "experienced"
	case Expert:
		return "expert"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// LevelFor maps an accuracy percentage to a level.
func LevelFor(accuracyPct float64) Level {
	switch {
	case accuracyPct >= 85:
		return Expert
	case accuracyPct >= 60:
		return Experienced
	case accuracyPct >= 30:
		return Novice
	default:
		return Beginner
	}
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[max(0, min(len(sparkChars)-1, idx))])
	}
	return b.String()
}

// AccuracyBar draws correct versus missed attempts as a bar of the given width.
func AccuracyBar(c model.Counters, width int) string {
	if width <= 0 {
		return ""
	}
	if c.TotalAttempts == 0 {
		return strings.Repeat("·", width)
	}
	filled := int(math.Round(c.Accuracy() * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// RenderSummary prints the aggregate counters with the selected mode highlighted.
func RenderSummary(w io.Writer, data model.StatsData, mode model.Mode) error {
	if data.TotalAttempts == 0 {
		_, err := fmt.Fprintln(w, "No rounds played yet.")
		return err
	}
	current := *data.ModeStats.For(mode)
	acc := current.Accuracy() * 100
	lines := []string{
		"Summary",
		fmt.Sprintf("Mode: %s", strings.ToUpper(string(mode))),
		fmt.Sprintf("Level: %s (%.1f%%)", LevelFor(acc), acc),
		fmt.Sprintf("Overall accuracy: %.1f%% %s", data.Accuracy()*100, AccuracyBar(data.Counters, 20)),
		fmt.Sprintf("Correct: %d  Missed: %d  Total: %d", data.CorrectAttempts, data.TotalAttempts-data.CorrectAttempts, data.TotalAttempts),
		fmt.Sprintf("Streak: %d  Best streak: %d", data.CurrentStreak, data.BestStreak),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderModeTable prints the per-mode counters.
func RenderModeTable(w io.Writer, data model.StatsData) error {
	if _, err := fmt.Fprintln(w, "Per-Mode"); err != nil {
		return err
	}
	headers := []string{"Mode", "Attempts", "Correct", "Accuracy", "Streak", "Best", "Level"}
	rows := make([][]string, 0, len(model.Modes()))
	for _, mode := range model.Modes() {
		c := *data.ModeStats.For(mode)
		rows = append(rows, []string{
			strings.ToUpper(string(mode)),
			fmt.Sprintf("%d", c.TotalAttempts),
			fmt.Sprintf("%d", c.CorrectAttempts),
			fmt.Sprintf("%.1f%%", c.Accuracy()*100),
			fmt.Sprintf("%d", c.CurrentStreak),
			fmt.Sprintf("%d", c.BestStreak),
			LevelFor(c.Accuracy() * 100).String(),
		})
	}
	return writeTable(w, headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true})
}

// RenderBreakdown prints accuracy grouped by one dimension. label turns a
// stored key into its display text.
func RenderBreakdown(w io.Writer, title string, rows []model.Breakdown, label func(string) string) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	headers := []string{"Name", "Attempts", "Accuracy", "Avg error (m)"}
	table := make([][]string, 0, len(rows))
	for _, b := range rows {
		name := b.Key
		if label != nil {
			name = label(b.Key)
		}
		table = append(table, []string{
			name,
			fmt.Sprintf("%d", b.Attempts),
			fmt.Sprintf("%.1f%%", b.Accuracy()*100),
			fmt.Sprintf("%.2f", scoring.Meters(b.MeanDistance)),
		})
	}
	return writeTable(w, headers, table, map[int]bool{1: true, 2: true, 3: true})
}

// Weakest returns the keys with the lowest accuracy among rows that have at
// least minAttempts, at most n of them.
func Weakest(rows []model.Breakdown, minAttempts, n int) []string {
	if n <= 0 {
		return nil
	}
	candidates := make([]model.Breakdown, 0, len(rows))
	for _, b := range rows {
		if b.Attempts >= minAttempts {
			candidates = append(candidates, b)
		}
	}
	sortBreakdowns(candidates)
	out := make([]string, 0, min(n, len(candidates)))
	for _, b := range candidates[:min(n, len(candidates))] {
		out = append(out, b.Key)
	}
	return out
}

// RenderCurves plots rolling accuracy and error distance over the rounds.
func RenderCurves(w io.Writer, rounds []model.RoundRecord, window, totalWidth, height int, useColor bool) error {
	if len(rounds) == 0 {
		return nil
	}
	hits := make([]float64, len(rounds))
	errs := make([]float64, len(rounds))
	for i, r := range rounds {
		if r.Correct {
			hits[i] = 100
		}
		errs[i] = scoring.Meters(r.DistancePx)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Learning Curves", []Series{
		{Name: "Accuracy %", Values: MovingAverage(hits, window)},
		{Name: "Error m", Values: MovingAverage(errs, window)},
	}, width, height, useColor)
}

// RenderSparklines prints one compact line per curve.
func RenderSparklines(w io.Writer, rounds []model.RoundRecord, window int) error {
	if len(rounds) == 0 {
		_, err := fmt.Fprintln(w, "No round history.")
		return err
	}
	hits := make([]float64, len(rounds))
	errs := make([]float64, len(rounds))
	for i, r := range rounds {
		if r.Correct {
			hits[i] = 1
		}
		errs[i] = r.DistancePx
	}
	if _, err := fmt.Fprintf(w, "Accuracy %s\n", Sparkline(MovingAverage(hits, window))); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Error    %s\n", Sparkline(MovingAverage(errs, window)))
	return err
}

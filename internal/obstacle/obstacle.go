// Package obstacle maps obstacle categories to filter presets.
package obstacle

import (
	"fmt"

	"github.com/verte-zerg/blindsound/internal/catalog"
	"github.com/verte-zerg/blindsound/internal/dsp"
)

// FilterFor returns the filter preset of an obstacle. ok is false for none.
//
// Maze has a preset but is reported by Bypassed, so the router never inserts
// it; its several reflective surfaces are modeled as no net filtering.
func FilterFor(o catalog.Obstacle) (dsp.FilterSpec, bool) {
	switch o {
	case catalog.NoObstacle:
		return dsp.FilterSpec{}, false
	case catalog.Wall:
		return dsp.FilterSpec{Kind: dsp.Lowpass, CutoffHz: 1500}, true
	case catalog.Pillar:
		return dsp.FilterSpec{Kind: dsp.Bandpass, CutoffHz: 1000, Q: 1}, true
	case catalog.Corner:
		return dsp.FilterSpec{Kind: dsp.Highpass, CutoffHz: 500}, true
	case catalog.Tunnel:
		return dsp.FilterSpec{Kind: dsp.Lowshelf, CutoffHz: 800, GainDB: -8}, true
	case catalog.Maze:
		return dsp.FilterSpec{Kind: dsp.Bandpass, CutoffHz: 350, Q: 1}, true
	default:
		panic(fmt.Sprintf("obstacle: unhandled obstacle %q", string(o)))
	}
}

// Bypassed reports whether the obstacle's preset is skipped when routing.
func Bypassed(o catalog.Obstacle) bool {
	return o == catalog.Maze
}

// Stage returns the filter the router should insert, if any.
func Stage(o catalog.Obstacle) (dsp.FilterSpec, bool) {
	spec, ok := FilterFor(o)
	if !ok || Bypassed(o) {
		return dsp.FilterSpec{}, false
	}
	return spec, true
}

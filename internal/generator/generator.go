// Package generator draws random sound source positions.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/blindsound/internal/model"
)

// Generator produces randomized source positions.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Source places a source on the ring of radius arena.Radius scaled by the
// difficulty, at a uniform angle. In 3D a depth offset in [-1, 1) is added.
func (g *Generator) Source(arena model.Arena, difficulty model.Difficulty, mode model.Mode) model.Point {
	angle := g.rnd.Float64() * 2 * math.Pi
	dist := arena.Radius * difficulty.RadiusFactor()
	x := arena.Center() + math.Cos(angle)*dist
	y := arena.Center() + math.Sin(angle)*dist
	if mode == model.Mode3D {
		return model.Pt3(x, y, (g.rnd.Float64()-0.5)*2)
	}
	return model.Pt(x, y)
}

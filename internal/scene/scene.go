// Package scene converts between canvas pixels and 3D scene units.
package scene

import "github.com/verte-zerg/blindsound/internal/model"

// Defaults for the 3D view.
const (
	DefaultSceneRadius  = 3.0
	DefaultMarkerHeight = 0.15
)

// Vec3 is a scene-space position. Y is up.
type Vec3 struct {
	X, Y, Z float64
}

// Mapper maps canvas points onto the ground plane of the scene.
type Mapper struct {
	Arena        model.Arena
	SceneRadius  float64
	MarkerHeight float64
}

// NewMapper returns a Mapper with the default scene geometry.
func NewMapper(arena model.Arena) Mapper {
	return Mapper{Arena: arena, SceneRadius: DefaultSceneRadius, MarkerHeight: DefaultMarkerHeight}
}

func (m Mapper) scale() float64 {
	return m.SceneRadius / m.Arena.Radius
}

// CanvasToScene maps canvas x to scene X and canvas y to scene Z. Depth, when
// present, becomes scene Y; otherwise the marker height is used.
func (m Mapper) CanvasToScene(p model.Point) Vec3 {
	s := m.scale()
	c := m.Arena.Center()
	y := m.MarkerHeight
	if p.HasZ {
		y = p.Z
	}
	return Vec3{X: (p.X - c) * s, Y: y, Z: (p.Y - c) * s}
}

// SceneToCanvas is the inverse of CanvasToScene; scene Y becomes depth.
func (m Mapper) SceneToCanvas(v Vec3) model.Point {
	s := m.scale()
	c := m.Arena.Center()
	return model.Pt3(v.X/s+c, v.Z/s+c, v.Y)
}

// Marker returns where a point is drawn: on the ground plane at marker height.
func (m Mapper) Marker(p model.Point) Vec3 {
	v := m.CanvasToScene(p)
	v.Y = m.MarkerHeight
	return v
}

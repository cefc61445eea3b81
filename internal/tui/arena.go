package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/blindsound/internal/catalog"
	"github.com/verte-zerg/blindsound/internal/model"
)

// Grid cells are roughly twice as tall as wide, so the arena uses twice as
// many columns as rows to stay round.
const (
	gridCols = 44
	gridRows = 22
)

type glyph int

const (
	glyphEmpty glyph = iota
	glyphRing
	glyphObstacle
	glyphTrail
	glyphListener
	glyphSource
	glyphGuess
	glyphCursor
)

var (
	ringStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80"))
	obstacleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	trailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	listenerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80")).Bold(true)
	guessStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Bold(true)
	missStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// arenaView is everything the grid needs to draw one frame.
type arenaView struct {
	arena    model.Arena
	obstacle catalog.Obstacle
	cursor   model.Point
	guess    *model.Point
	source   *model.Point
	correct  bool
}

// cellCenter maps a grid cell to the canvas point at its center.
func cellCenter(a model.Arena, col, row int) model.Point {
	return model.Pt(
		(float64(col)+0.5)*a.CanvasSize/gridCols,
		(float64(row)+0.5)*a.CanvasSize/gridRows,
	)
}

// cellOf maps a canvas point to the grid cell containing it.
func cellOf(a model.Arena, p model.Point) (col, row int) {
	col = int(math.Floor(p.X / a.CanvasSize * gridCols))
	row = int(math.Floor(p.Y / a.CanvasSize * gridRows))
	return max(0, min(gridCols-1, col)), max(0, min(gridRows-1, row))
}

// clampToCanvas keeps p inside the canvas.
func clampToCanvas(a model.Arena, p model.Point) model.Point {
	p.X = max(0, min(a.CanvasSize, p.X))
	p.Y = max(0, min(a.CanvasSize, p.Y))
	return p
}

// obstacleCovers reports whether the sketch of o covers canvas point p.
// Shapes are drawn around the listener at the canvas center.
func obstacleCovers(o catalog.Obstacle, c float64, p model.Point) bool {
	dx, dy := p.X-c, p.Y-c
	switch o {
	case catalog.NoObstacle:
		return false
	case catalog.Wall:
		return inRect(dx, dy, -80, -10, 160, 20)
	case catalog.Pillar:
		for _, off := range [][2]float64{{-60, -60}, {60, 60}, {60, -60}, {-60, 60}} {
			if math.Hypot(dx-off[0], dy-off[1]) <= 15 {
				return true
			}
		}
		return false
	case catalog.Corner:
		return inRect(dx, dy, -100, -100, 60, 60)
	case catalog.Tunnel:
		d := math.Hypot(dx, dy)
		return d >= 50 && d <= 80
	case catalog.Maze:
		return inRect(dx, dy, -90, -90, 30, 180) ||
			inRect(dx, dy, 60, -90, 30, 180) ||
			inRect(dx, dy, -60, -30, 120, 20) ||
			inRect(dx, dy, -60, 10, 120, 20)
	default:
		panic("tui: unhandled obstacle " + string(o))
	}
}

func inRect(x, y, left, top, w, h float64) bool {
	return x >= left && x <= left+w && y >= top && y <= top+h
}

// segmentDistance is the distance from p to the segment a-b.
func segmentDistance(p, a, b model.Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	length := vx*vx + vy*vy
	if length == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*vx + (p.Y-a.Y)*vy) / length
	t = max(0, min(1, t))
	return math.Hypot(p.X-(a.X+t*vx), p.Y-(a.Y+t*vy))
}

// classify picks the glyph for one cell. Later layers win.
func (v arenaView) classify(col, row int) glyph {
	center := v.arena.Center()
	p := cellCenter(v.arena, col, row)
	cellW := v.arena.CanvasSize / gridCols
	cellH := v.arena.CanvasSize / gridRows
	half := math.Max(cellW, cellH) / 2

	g := glyphEmpty
	if d := math.Hypot(p.X-center, p.Y-center); math.Abs(d-v.arena.Radius) < half && (col+row)%2 == 0 {
		g = glyphRing
	}
	if obstacleCovers(v.obstacle, center, p) {
		g = glyphObstacle
	}
	if v.source != nil && v.guess != nil && segmentDistance(p, *v.source, *v.guess) < cellW/2 {
		g = glyphTrail
	}
	if lc, lr := cellOf(v.arena, model.Pt(center, center)); lc == col && lr == row {
		g = glyphListener
	}
	if v.source != nil {
		if sc, sr := cellOf(v.arena, *v.source); sc == col && sr == row {
			g = glyphSource
		}
	}
	if v.guess != nil {
		if gc, gr := cellOf(v.arena, *v.guess); gc == col && gr == row {
			g = glyphGuess
		}
	}
	if cc, cr := cellOf(v.arena, v.cursor); cc == col && cr == row {
		g = glyphCursor
	}
	return g
}

func (v arenaView) render(g glyph) string {
	switch g {
	case glyphEmpty:
		return " "
	case glyphRing:
		return ringStyle.Render("·")
	case glyphObstacle:
		return obstacleStyle.Render("▓")
	case glyphTrail:
		return trailStyle.Render("∙")
	case glyphListener:
		return listenerStyle.Render("◎")
	case glyphSource:
		return sourceStyle.Render("●")
	case glyphGuess:
		if v.source != nil && !v.correct {
			return missStyle.Render("✕")
		}
		return guessStyle.Render("✕")
	case glyphCursor:
		return cursorStyle.Render("+")
	default:
		return " "
	}
}

// Render draws the arena grid, one line per row.
func (v arenaView) Render() string {
	lines := make([]string, gridRows)
	var b strings.Builder
	for row := 0; row < gridRows; row++ {
		b.Reset()
		for col := 0; col < gridCols; col++ {
			b.WriteString(v.render(v.classify(col, row)))
		}
		lines[row] = b.String()
	}
	return strings.Join(lines, "\n")
}

// fitWidth truncates s to width display cells. Catalog icons are emoji that
// take two cells, so byte or rune counts are not enough.
func fitWidth(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// Package tui provides the Bubble Tea training interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/blindsound/internal/model"
	"github.com/verte-zerg/blindsound/internal/scene"
	"github.com/verte-zerg/blindsound/internal/scoring"
	"github.com/verte-zerg/blindsound/internal/spatial"
	"github.com/verte-zerg/blindsound/internal/stats"
	"github.com/verte-zerg/blindsound/internal/trainer"
)

const (
	cursorStep     = 10.0
	fineCursorStep = 2.0
	depthStep      = 0.1
	volumeStep     = 0.1
	// headerLines is the number of lines drawn above the arena.
	headerLines = 3
	// footerLines is the number of lines drawn below the arena.
	footerLines = 4
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	correctStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80")).Bold(true)
	wrongStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// armMsg fires when the pre-play delay of a round has elapsed.
type armMsg struct {
	roundID uint64
}

// playbackDoneMsg reports that a playback ended or was stopped.
type playbackDoneMsg struct {
	id uint64
}

// Model implements the Bubble Tea training UI.
type Model struct {
	ctx     context.Context
	trainer *trainer.Trainer
	mapper  scene.Mapper

	width  int
	height int

	cursor model.Point
	depth  float64
}

// NewModel constructs a training TUI model around a loaded trainer.
func NewModel(ctx context.Context, tr *trainer.Trainer) *Model {
	arena := tr.Arena()
	return &Model{
		ctx:     ctx,
		trainer: tr,
		mapper:  scene.NewMapper(arena),
		cursor:  model.Pt(arena.Center(), arena.Center()),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case armMsg:
		pb, ok := m.trainer.BeginPlayback(msg.roundID)
		if !ok {
			return m, nil
		}
		return m, waitPlayback(pb)
	case playbackDoneMsg:
		m.trainer.PlaybackEnded(msg.id)
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	session := m.trainer.Session()
	settings := session.Settings()
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.trainer.Reset()
		return m, tea.Quit
	case "n", " ":
		return m, m.newRound()
	case "s":
		m.trainer.Stop()
	case "enter":
		m.guess()
	case "up", "k":
		m.moveCursor(0, -cursorStep)
	case "down", "j":
		m.moveCursor(0, cursorStep)
	case "left", "h":
		m.moveCursor(-cursorStep, 0)
	case "right", "l":
		m.moveCursor(cursorStep, 0)
	case "shift+up", "K":
		m.moveCursor(0, -fineCursorStep)
	case "shift+down", "J":
		m.moveCursor(0, fineCursorStep)
	case "shift+left", "H":
		m.moveCursor(-fineCursorStep, 0)
	case "shift+right", "L":
		m.moveCursor(fineCursorStep, 0)
	case "[":
		m.depth = max(-1, m.depth-depthStep)
	case "]":
		m.depth = min(1, m.depth+depthStep)
	case "d":
		session.SetDifficulty(m.ctx, settings.Difficulty.Next())
	case "o":
		session.SetObstacle(m.ctx, settings.Obstacle.Next())
	case "t":
		session.SetSound(m.ctx, settings.Sound.Next())
	case "+", "=":
		session.SetVolume(m.ctx, settings.Volume+volumeStep)
	case "-":
		session.SetVolume(m.ctx, settings.Volume-volumeStep)
	case "m":
		next := model.Mode3D
		if session.Mode() == model.Mode3D {
			next = model.Mode2D
		}
		m.trainer.SetMode(m.ctx, next)
		m.depth = 0
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	p, ok := m.canvasAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	switch {
	case msg.Action == tea.MouseActionMotion:
		m.cursor = p
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.cursor = p
		m.guess()
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelUp:
		m.depth = min(1, m.depth+depthStep)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelDown:
		m.depth = max(-1, m.depth-depthStep)
	}
	return m, nil
}

func (m *Model) newRound() tea.Cmd {
	round := m.trainer.NewRound()
	return tea.Tick(round.Delay, func(time.Time) tea.Msg {
		return armMsg{roundID: round.ID}
	})
}

func waitPlayback(pb *spatial.Playback) tea.Cmd {
	return func() tea.Msg {
		<-pb.Done()
		return playbackDoneMsg{id: pb.ID()}
	}
}

func (m *Model) moveCursor(dx, dy float64) {
	m.cursor = clampToCanvas(m.trainer.Arena(), model.Pt(m.cursor.X+dx, m.cursor.Y+dy))
}

// guessPoint is the canvas point the cursor designates. In 3D the depth
// control is a scene height and is carried back through the mapper.
func (m *Model) guessPoint() model.Point {
	if m.trainer.Session().Mode() != model.Mode3D {
		return model.Pt(m.cursor.X, m.cursor.Y)
	}
	v := m.mapper.CanvasToScene(model.Pt(m.cursor.X, m.cursor.Y))
	v.Y = m.depth
	return m.mapper.SceneToCanvas(v)
}

func (m *Model) guess() {
	m.trainer.Guess(m.ctx, m.guessPoint())
}

// arenaOrigin is the screen cell of the arena's top-left corner.
func (m *Model) arenaOrigin() (x, y int) {
	total := headerLines + gridRows + footerLines
	return max(0, (m.width-gridCols)/2), max(0, (m.height-total)/2) + headerLines
}

// canvasAt maps a screen cell to a canvas point, if it lies on the arena.
func (m *Model) canvasAt(x, y int) (model.Point, bool) {
	ox, oy := m.arenaOrigin()
	col, row := x-ox, y-oy
	if col < 0 || col >= gridCols || row < 0 || row >= gridRows {
		return model.Point{}, false
	}
	return cellCenter(m.trainer.Arena(), col, row), true
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lines := []string{
		titleStyle.Render(fitWidth(m.renderSettings(), m.width)),
		statusStyle.Render(fitWidth(m.renderPrompt(), m.width)),
		"",
	}
	lines = append(lines, strings.Split(m.arenaView().Render(), "\n")...)
	lines = append(lines,
		"",
		m.renderResult(),
		footerStyle.Render(fitWidth(m.renderFooter(), m.width)),
		footerStyle.Render(fitWidth(helpLine(m.trainer.Session().Mode()), m.width)),
	)

	ox, oy := m.arenaOrigin()
	pad := strings.Repeat(" ", ox)
	top := oy - headerLines
	out := make([]string, 0, top+len(lines))
	for i := 0; i < top; i++ {
		out = append(out, "")
	}
	for i, line := range lines {
		if i >= headerLines && i < headerLines+gridRows {
			line = pad + line
		} else {
			line = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, line)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func (m *Model) arenaView() arenaView {
	round := m.trainer.Round()
	v := arenaView{
		arena:    m.trainer.Arena(),
		obstacle: m.trainer.Session().Settings().Obstacle,
		cursor:   m.cursor,
		guess:    round.Guess,
	}
	if res, ok := m.trainer.Result(); ok {
		src := res.Source
		v.source = &src
		v.correct = res.Correct
	}
	return v
}

func (m *Model) renderSettings() string {
	s := m.trainer.Session().Settings()
	sound := s.Sound.Info()
	obstacle := s.Obstacle.Info()
	mode := strings.ToUpper(string(m.trainer.Session().Mode()))
	return fmt.Sprintf("%s %s · %s %s · %s · vol %d%% · %s",
		sound.Icon, sound.Name, obstacle.Icon, obstacle.Name, s.Difficulty, int(s.Volume*100+0.5), mode)
}

func (m *Model) renderPrompt() string {
	prompt := ""
	switch m.trainer.State() {
	case trainer.Idle:
		prompt = "Press n to play a sound"
	case trainer.Armed:
		prompt = "Get ready…"
	case trainer.Playing:
		prompt = "Listening… press s to stop"
	case trainer.AwaitingGuess:
		prompt = "Where was it? Move the cursor and press enter"
	case trainer.Resolved:
		prompt = "Press n for the next round"
	}
	if m.trainer.Session().Mode() == model.Mode3D {
		v := m.mapper.CanvasToScene(m.guessPoint())
		prompt += fmt.Sprintf("  │  height %+.1f  scene (%.2f, %.2f, %.2f)", m.depth, v.X, v.Y, v.Z)
	}
	return prompt
}

func (m *Model) renderResult() string {
	res, ok := m.trainer.Result()
	if !ok {
		return ""
	}
	limit := scoring.Meters(res.Threshold)
	if res.Correct {
		return correctStyle.Render(fmt.Sprintf("✓ Correct! Off by %.2f m (within %.2f m)", res.Meters, limit))
	}
	return wrongStyle.Render(fmt.Sprintf("✗ Missed by %.2f m (needed under %.2f m)", res.Meters, limit))
}

func (m *Model) renderFooter() string {
	data := m.trainer.Session().Stats()
	mode := m.trainer.Session().Mode()
	modeStats := data.ModeStats
	c := *modeStats.For(mode)
	acc := c.Accuracy() * 100
	return fmt.Sprintf("Rounds %d · %.1f%% · Streak %d (best %d) · %s %s %.0f%% %s",
		data.TotalAttempts, data.Accuracy()*100, data.CurrentStreak, data.BestStreak,
		strings.ToUpper(string(mode)), stats.LevelFor(acc), acc, stats.AccuracyBar(c, 10))
}

func helpLine(mode model.Mode) string {
	help := "n play · s stop · arrows/mouse aim · enter guess · d difficulty · o obstacle · t sound · +/- volume · m mode · q quit"
	if mode == model.Mode3D {
		help = "[ ] height · " + help
	}
	return help
}

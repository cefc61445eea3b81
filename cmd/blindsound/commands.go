package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/blindsound/internal/catalog"
	"github.com/verte-zerg/blindsound/internal/config"
	"github.com/verte-zerg/blindsound/internal/encoder"
	"github.com/verte-zerg/blindsound/internal/generator"
	"github.com/verte-zerg/blindsound/internal/log"
	"github.com/verte-zerg/blindsound/internal/model"
	"github.com/verte-zerg/blindsound/internal/spatial"
	"github.com/verte-zerg/blindsound/internal/stats"
	"github.com/verte-zerg/blindsound/internal/statsui"
	"github.com/verte-zerg/blindsound/internal/store"
	"github.com/verte-zerg/blindsound/internal/synth"
)

var (
	statsPlain       bool
	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsReset       bool

	renderMode     string
	renderSound    string
	renderObstacle string
	renderVolume   float64
	renderX        float64
	renderY        float64
	renderZ        float64
	renderRate     int
	renderOut      string
	renderSeed     int64
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the TUI")
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter (2d or 3d)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsReset, "reset", false, "delete all statistics and round history")
	return cmd
}

func parseStatsConfig() (model.StatsConfig, error) {
	cfg := model.StatsConfig{Last: statsLast, CurveWindow: statsCurveWindow}
	if statsMode != "" {
		mode, err := model.ParseMode(statsMode)
		if err != nil {
			return cfg, fmt.Errorf("invalid --mode: %w", err)
		}
		cfg.Mode = mode
	}
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if cfg.Last < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	if cfg.CurveWindow < 1 {
		return cfg, fmt.Errorf("--curve-window must be >= 1")
	}
	return cfg, nil
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := parseStatsConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	if statsReset {
		if err := st.ResetStats(ctx); err != nil {
			return fmt.Errorf("failed to reset stats: %w", err)
		}
		logErrln("Statistics and round history cleared.")
		return nil
	}

	if statsPlain {
		report, err := stats.BuildReport(ctx, st, cfg)
		if err != nil {
			return err
		}
		return stats.RenderPlain(cmd.OutOrStdout(), report, 0, false)
	}

	ui := statsui.NewModel(st, cfg)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newSoundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sounds",
		Short: "List sound and obstacle categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeCatalog(cmd.OutOrStdout())
		},
	}
}

const catalogNameWidth = 18

func writeCatalog(w io.Writer) error {
	lines := []string{"Sounds:"}
	for _, s := range catalog.Sounds() {
		info := s.Info()
		lines = append(lines, catalogLine(string(s), info))
	}
	lines = append(lines, "", "Obstacles:")
	for _, o := range catalog.Obstacles() {
		info := o.Info()
		lines = append(lines, catalogLine(string(o), info))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// catalogLine pads by display width since icons are double-width emoji.
func catalogLine(id string, info catalog.Entry) string {
	label := runewidth.FillRight(info.Icon+" "+info.Name, catalogNameWidth)
	return fmt.Sprintf("  %-12s %s %s", id, label, info.Description)
}

func parseSound(value string) (catalog.Sound, error) {
	s, err := catalog.ParseSound(value)
	if err != nil {
		return "", fmt.Errorf("invalid --sound: %w (see: blindsound sounds)", err)
	}
	return s, nil
}

func parseObstacle(value string) (catalog.Obstacle, error) {
	o, err := catalog.ParseObstacle(value)
	if err != nil {
		return "", fmt.Errorf("invalid --obstacle: %w (see: blindsound sounds)", err)
	}
	return o, nil
}

func newRenderCmd() *cobra.Command {
	defaults := model.DefaultSettings()
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Export a spatialized sound to FLAC",
		Args:  cobra.NoArgs,
		RunE:  runRenderCmd,
	}
	cmd.Flags().StringVar(&renderMode, "mode", defaultMode, "mode (2d or 3d)")
	cmd.Flags().StringVar(&renderSound, "sound", string(defaults.Sound), "sound category")
	cmd.Flags().StringVar(&renderObstacle, "obstacle", string(defaults.Obstacle), "obstacle category")
	cmd.Flags().Float64Var(&renderVolume, "volume", defaults.Volume, "volume (0-1)")
	cmd.Flags().Float64Var(&renderX, "x", 0, "source x on the 400px canvas (default: random)")
	cmd.Flags().Float64Var(&renderY, "y", 0, "source y on the 400px canvas (default: random)")
	cmd.Flags().Float64Var(&renderZ, "z", 0, "source depth in 3d mode (-1 to 1)")
	cmd.Flags().IntVar(&renderRate, "sample-rate", defaultSampleRate, "sample rate in Hz")
	cmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default: export dir)")
	cmd.Flags().Int64Var(&renderSeed, "seed", 0, "seed for noise and random position (0: time based)")
	return cmd
}

// renderRequest is a validated render invocation.
type renderRequest struct {
	mode     model.Mode
	settings model.Settings
	pos      model.Point
	rate     int
	seed     int64
}

func buildRenderRequest(cmd *cobra.Command) (renderRequest, error) {
	var req renderRequest
	mode, err := model.ParseMode(renderMode)
	if err != nil {
		return req, fmt.Errorf("invalid --mode: %w", err)
	}
	sound, err := parseSound(renderSound)
	if err != nil {
		return req, err
	}
	obstacle, err := parseObstacle(renderObstacle)
	if err != nil {
		return req, err
	}
	settings := model.Settings{Difficulty: model.Easy, Obstacle: obstacle, Sound: sound, Volume: renderVolume}
	if err := settings.Validate(); err != nil {
		return req, fmt.Errorf("invalid settings: %w", err)
	}
	if renderRate <= 0 {
		return req, fmt.Errorf("--sample-rate must be > 0")
	}
	if renderZ < -1 || renderZ > 1 {
		return req, fmt.Errorf("--z must be between -1 and 1")
	}

	seed := renderSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	arena := model.DefaultArena()
	pos := generator.NewWithSeed(seed).Source(arena, settings.Difficulty, mode)
	if cmd.Flags().Changed("x") {
		pos.X = renderX
	}
	if cmd.Flags().Changed("y") {
		pos.Y = renderY
	}
	if mode == model.Mode3D && cmd.Flags().Changed("z") {
		pos.Z = renderZ
	}
	if pos.X < 0 || pos.X > arena.CanvasSize || pos.Y < 0 || pos.Y > arena.CanvasSize {
		return req, fmt.Errorf("position (%.0f, %.0f) is outside the %.0fpx canvas", pos.X, pos.Y, arena.CanvasSize)
	}
	return renderRequest{mode: mode, settings: settings, pos: pos, rate: renderRate, seed: seed}, nil
}

func (r renderRequest) defaultPath() string {
	name := fmt.Sprintf("blindsound-%s-%s-%s-%s.flac",
		r.settings.Sound, r.settings.Obstacle, r.mode, time.Now().Format("20060102-150405"))
	return filepath.Join(config.DefaultExportDir(), name)
}

// encode renders the request offline and returns the FLAC bytes.
func (r renderRequest) encode() ([]byte, error) {
	bank := synth.NewBankWithSource(r.rate, rand.New(rand.NewSource(r.seed)))
	buf, ok := bank.Get(r.settings.Sound)
	if !ok {
		return nil, fmt.Errorf("no buffer for sound %q", r.settings.Sound)
	}
	frames := spatial.Render(buf, r.pos, r.settings, r.mode, model.DefaultArena(), beep.SampleRate(r.rate))
	data, err := encoder.EncodeStereo(frames, r.rate)
	if err != nil {
		return nil, fmt.Errorf("failed to encode flac: %w", err)
	}
	return data, nil
}

func runRenderCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	closeLog := setupLog(cmd, fileCfg)
	defer closeLog()

	req, err := buildRenderRequest(cmd)
	if err != nil {
		return err
	}
	data, err := req.encode()
	if err != nil {
		return err
	}

	out := renderOut
	if out == "" {
		out = req.defaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	log.Info(fmt.Sprintf("rendered %s to %s", req.settings.Sound, out))

	pos := fmt.Sprintf("(%.0f, %.0f)", req.pos.X, req.pos.Y)
	if req.pos.HasZ {
		pos = fmt.Sprintf("(%.0f, %.0f, %+.2f)", req.pos.X, req.pos.Y, req.pos.Z)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s at %s, pan %+.2f)\n",
		out, strings.ToLower(req.settings.Sound.Info().Name), pos, spatial.Pan(req.pos.X, model.DefaultArena()))
	return err
}

// Package main provides the CLI entrypoint for blindsound.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/blindsound/internal/config"
	"github.com/verte-zerg/blindsound/internal/generator"
	"github.com/verte-zerg/blindsound/internal/log"
	"github.com/verte-zerg/blindsound/internal/model"
	"github.com/verte-zerg/blindsound/internal/spatial"
	"github.com/verte-zerg/blindsound/internal/store"
	"github.com/verte-zerg/blindsound/internal/synth"
	"github.com/verte-zerg/blindsound/internal/trainer"
	"github.com/verte-zerg/blindsound/internal/tui"
)

const (
	defaultMode        = "2d"
	defaultSampleRate  = 44100
	defaultBufferMs    = 100
	defaultLogLevel    = "info"
	defaultCurveWindow = 10
)

var (
	trainMode       string
	trainDifficulty string
	trainObstacle   string
	trainSound      string
	trainVolume     float64
	audioSampleRate int
	audioBufferMs   int
	logDir          string
	logLevel        string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := model.DefaultSettings()
	rootCmd := &cobra.Command{
		Use:           "blindsound",
		Short:         "Terminal trainer for locating sounds by ear",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrainCmd,
	}

	rootCmd.Flags().StringVar(&trainMode, "mode", defaultMode, "training mode (2d or 3d)")
	rootCmd.Flags().StringVar(&trainDifficulty, "difficulty", string(defaults.Difficulty), "difficulty (easy, medium, hard)")
	rootCmd.Flags().StringVar(&trainObstacle, "obstacle", string(defaults.Obstacle), "obstacle between listener and source")
	rootCmd.Flags().StringVar(&trainSound, "sound", string(defaults.Sound), "sound category (see: blindsound sounds)")
	rootCmd.Flags().Float64Var(&trainVolume, "volume", defaults.Volume, "playback volume (0-1)")
	rootCmd.Flags().IntVar(&audioSampleRate, "sample-rate", defaultSampleRate, "output sample rate in Hz")
	rootCmd.Flags().IntVar(&audioBufferMs, "buffer-ms", defaultBufferMs, "speaker buffer length in milliseconds")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "diagnostics log directory (default: $"+log.EnvPath+" or XDG state dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "diagnostics log level")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSoundsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRenderCmd())

	return rootCmd
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrides, err := resolveOverrides(cmd, fileCfg)
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "sample-rate", &audioSampleRate, fileCfg.Audio.SampleRate)
	applyIntConfig(cmd, "buffer-ms", &audioBufferMs, fileCfg.Audio.BufferMs)
	if audioSampleRate <= 0 {
		return fmt.Errorf("--sample-rate must be > 0")
	}
	if audioBufferMs <= 0 {
		return fmt.Errorf("--buffer-ms must be > 0")
	}

	closeLog := setupLog(cmd, fileCfg)
	defer closeLog()

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
	session := trainer.NewSession(st)
	session.Load(ctx)
	if err := overrides.apply(ctx, session); err != nil {
		return err
	}

	sink := spatial.NewSpeakerSink(beep.SampleRate(audioSampleRate))
	if err := sink.Init(time.Duration(audioBufferMs) * time.Millisecond); err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	defer sink.Close()

	bank := synth.NewBank(audioSampleRate)
	bank.Preload()

	settings := session.Settings()
	log.SessionStart(string(session.Mode()), string(settings.Difficulty), string(settings.Obstacle), string(settings.Sound), settings.Volume, audioSampleRate)

	router := spatial.NewRouter(sink, model.DefaultArena())
	tr := trainer.New(session, router, bank, generator.New())
	program := tea.NewProgram(tui.NewModel(ctx, tr), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// setupLog opens the diagnostics log. Failures are reported and training
// continues without a log.
func setupLog(cmd *cobra.Command, fileCfg config.FileConfig) func() {
	applyStringConfig(cmd, "log-dir", &logDir, fileCfg.Log.Dir)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	dir, err := log.ResolveDir(logDir, config.DefaultLogDir())
	if err != nil {
		logErrf("failed to resolve log dir: %v\n", err)
		return func() {}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logErrf("failed to create log dir: %v\n", err)
		return func() {}
	}
	log.SetDir(dir)
	if err := log.Init(logLevel); err != nil {
		logErrf("failed to open log: %v\n", err)
		return func() {}
	}
	return log.Close
}

// trainerOverrides are the settings given by flag or config file. They replace
// the saved values for this run and are persisted like any other change.
type trainerOverrides struct {
	mode     *model.Mode
	settings func(model.Settings) model.Settings
	changed  bool
}

func resolveOverrides(cmd *cobra.Command, fileCfg config.FileConfig) (trainerOverrides, error) {
	var o trainerOverrides
	tc := fileCfg.Trainer

	if configured(cmd, "mode", tc.Mode) {
		applyStringConfig(cmd, "mode", &trainMode, tc.Mode)
		mode, err := model.ParseMode(trainMode)
		if err != nil {
			return o, fmt.Errorf("invalid --mode: %w", err)
		}
		o.mode = &mode
	}

	var edits []func(*model.Settings)
	if configured(cmd, "difficulty", tc.Difficulty) {
		applyStringConfig(cmd, "difficulty", &trainDifficulty, tc.Difficulty)
		d, err := model.ParseDifficulty(trainDifficulty)
		if err != nil {
			return o, fmt.Errorf("invalid --difficulty: %w", err)
		}
		edits = append(edits, func(s *model.Settings) { s.Difficulty = d })
	}
	if configured(cmd, "obstacle", tc.Obstacle) {
		applyStringConfig(cmd, "obstacle", &trainObstacle, tc.Obstacle)
		obstacle, err := parseObstacle(trainObstacle)
		if err != nil {
			return o, err
		}
		edits = append(edits, func(s *model.Settings) { s.Obstacle = obstacle })
	}
	if configured(cmd, "sound", tc.Sound) {
		applyStringConfig(cmd, "sound", &trainSound, tc.Sound)
		sound, err := parseSound(trainSound)
		if err != nil {
			return o, err
		}
		edits = append(edits, func(s *model.Settings) { s.Sound = sound })
	}
	if configured(cmd, "volume", tc.Volume) {
		applyFloatConfig(cmd, "volume", &trainVolume, tc.Volume)
		if trainVolume < 0 || trainVolume > 1 {
			return o, fmt.Errorf("--volume must be between 0 and 1")
		}
		v := trainVolume
		edits = append(edits, func(s *model.Settings) { s.Volume = v })
	}
	o.changed = len(edits) > 0
	o.settings = func(s model.Settings) model.Settings {
		for _, edit := range edits {
			edit(&s)
		}
		return s
	}
	return o, nil
}

func (o trainerOverrides) apply(ctx context.Context, session *trainer.Session) error {
	if o.changed {
		if err := session.ApplySettings(ctx, o.settings(session.Settings())); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
	}
	if o.mode != nil && *o.mode != session.Mode() {
		session.SetMode(ctx, *o.mode)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	defaults := model.DefaultSettings()
	return fmt.Sprintf(`# blindsound configuration
# Uncomment a value to enable it. CLI flags override config values,
# and both override the settings saved by the last session.

[trainer]
# mode = %q               # 2d or 3d
# difficulty = %q       # easy, medium or hard
# obstacle = %q           # none, wall, pillar, corner, tunnel, maze
# sound = %q         # see: blindsound sounds
# volume = %.1f             # Playback volume (0-1)

[audio]
# sample-rate = %d      # Output sample rate in Hz
# buffer-ms = %d          # Speaker buffer length in milliseconds

[log]
# dir = ""                 # Diagnostics log directory
# level = %q            # debug, info, warn or error
`,
		defaultMode,
		defaults.Difficulty,
		defaults.Obstacle,
		defaults.Sound,
		defaults.Volume,
		defaultSampleRate,
		defaultBufferMs,
		defaultLogLevel,
	)
}

// configured reports whether a value was given by flag or config file.
func configured[T any](cmd *cobra.Command, name string, value *T) bool {
	return value != nil || cmd.Flags().Changed(name)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

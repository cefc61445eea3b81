// Package log writes the diagnostics log. Every call is a no-op until Init
// succeeds, so the TUI never has stray output on its terminal.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// EnvPath overrides the default log directory.
const EnvPath = "BLINDSOUND_LOG_PATH"

const fileName = "blindsound_log.txt"

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	dir      string
)

// ResolveDir picks the log directory: flag, then environment, then fallback.
func ResolveDir(flagPath, fallback string) (string, error) {
	if flagPath != "" {
		return absolute(flagPath)
	}
	if envPath := os.Getenv(EnvPath); envPath != "" {
		return absolute(envPath)
	}
	return fallback, nil
}

func absolute(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}

// SetDir sets the directory Init writes the log file to.
func SetDir(d string) {
	dir = d
}

// Dir returns the directory set by SetDir.
func Dir() string {
	return dir
}

// Path returns the log file location.
func Path() string {
	return filepath.Join(dir, fileName)
}

// Init opens the log file. level is a zerolog level name; empty means info.
func Init(level string) error {
	logMu.Lock()
	defer logMu.Unlock()

	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	diagFile = f

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).Level(lvl).With().Timestamp().Int("pid", os.Getpid()).Logger()
	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		if err := diagFile.Close(); err != nil {
			// Best-effort close.
			_ = err
		}
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Debugf(format string, args ...any) {
	if logReady {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

// SessionStart records the effective startup settings.
func SessionStart(mode, difficulty, obstacle, sound string, volume float64, sampleRate int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("mode", mode).
		Str("difficulty", difficulty).
		Str("obstacle", obstacle).
		Str("sound", sound).
		Float64("volume", volume).
		Int("sample_rate", sampleRate).
		Msg("session_start")
}

// RoundStarted records a freshly drawn source.
func RoundStarted(round uint64, mode string, x, y, z float64) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Uint64("round", round).
		Str("mode", mode).
		Float64("x", x).
		Float64("y", y).
		Float64("z", z).
		Msg("round_started")
}

// RoundResolved records a scored guess.
func RoundResolved(round uint64, mode, difficulty string, distancePx float64, correct bool, streak int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Uint64("round", round).
		Str("mode", mode).
		Str("difficulty", difficulty).
		Float64("distance_px", distancePx).
		Bool("correct", correct).
		Int("streak", streak).
		Msg("round_resolved")
}

// PlaybackFailed records a playback that could not start.
func PlaybackFailed(round uint64, sound string, err error) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Uint64("round", round).
		Str("sound", sound).
		Err(err).
		Msg("playback_failed")
}

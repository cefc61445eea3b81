// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/blindsound/internal/catalog"
	"github.com/verte-zerg/blindsound/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Keys of the persisted values. They match the names the web trainer used.
const (
	KeySettings = "soundTrainerSettings"
	KeyStats    = "soundTrainerStats"
	KeyMode     = "soundTrainerMode"
)

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("store: not found")
	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("store: corrupt value")
)

// Dimension selects the column rounds are grouped by.
type Dimension string

// Dimensions.
const (
	BySound      Dimension = "sound"
	ByObstacle   Dimension = "obstacle"
	ByDifficulty Dimension = "difficulty"
)

// Store wraps SQLite access for trainer data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			resolved_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			obstacle TEXT NOT NULL,
			sound TEXT NOT NULL,
			source_x REAL NOT NULL,
			source_y REAL NOT NULL,
			source_z REAL,
			guess_x REAL NOT NULL,
			guess_y REAL NOT NULL,
			guess_z REAL,
			distance_px REAL NOT NULL,
			correct INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_resolved_at ON rounds(resolved_at);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_mode ON rounds(mode);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) decode(ctx context.Context, key string, v any) error {
	raw, err := s.get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

// LoadSettings returns the saved settings. Fields absent from the stored value
// keep their defaults; the legacy "chime" sound id is mapped to wind.
func (s *Store) LoadSettings(ctx context.Context) (model.Settings, error) {
	settings := model.DefaultSettings()
	if err := s.decode(ctx, KeySettings, &settings); err != nil {
		return model.DefaultSettings(), err
	}
	if sound, err := catalog.ParseSound(string(settings.Sound)); err == nil {
		settings.Sound = sound
	}
	if err := settings.Validate(); err != nil {
		return model.DefaultSettings(), fmt.Errorf("%w: %s: %v", ErrCorrupt, KeySettings, err)
	}
	return settings, nil
}

// SaveSettings persists settings.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) error {
	return s.put(ctx, KeySettings, settings)
}

// LoadStats returns the saved aggregate statistics.
func (s *Store) LoadStats(ctx context.Context) (model.StatsData, error) {
	var stats model.StatsData
	if err := s.decode(ctx, KeyStats, &stats); err != nil {
		return model.StatsData{}, err
	}
	// Totals are derived from the per-mode counters; saved totals may lag behind.
	stats.TotalAttempts = stats.ModeStats.TwoD.TotalAttempts + stats.ModeStats.ThreeD.TotalAttempts
	stats.CorrectAttempts = stats.ModeStats.TwoD.CorrectAttempts + stats.ModeStats.ThreeD.CorrectAttempts
	if !countersValid(stats.Counters) || !countersValid(stats.ModeStats.TwoD) || !countersValid(stats.ModeStats.ThreeD) {
		return model.StatsData{}, fmt.Errorf("%w: %s: negative or inconsistent counters", ErrCorrupt, KeyStats)
	}
	return stats, nil
}

func countersValid(c model.Counters) bool {
	return c.TotalAttempts >= 0 && c.CorrectAttempts >= 0 && c.CorrectAttempts <= c.TotalAttempts &&
		c.CurrentStreak >= 0 && c.BestStreak >= c.CurrentStreak
}

// SaveStats persists the aggregate statistics.
func (s *Store) SaveStats(ctx context.Context, stats model.StatsData) error {
	return s.put(ctx, KeyStats, stats)
}

// LoadMode returns the last selected mode.
func (s *Store) LoadMode(ctx context.Context) (model.Mode, error) {
	var raw string
	if err := s.decode(ctx, KeyMode, &raw); err != nil {
		return model.Mode2D, err
	}
	mode, err := model.ParseMode(raw)
	if err != nil {
		return model.Mode2D, fmt.Errorf("%w: %s: %v", ErrCorrupt, KeyMode, err)
	}
	return mode, nil
}

// SaveMode persists the selected mode.
func (s *Store) SaveMode(ctx context.Context, mode model.Mode) error {
	return s.put(ctx, KeyMode, string(mode))
}

// ResetStats clears the aggregate statistics and the round history.
func (s *Store) ResetStats(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, KeyStats); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM rounds`); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// InsertRound stores a resolved round.
func (s *Store) InsertRound(ctx context.Context, rec model.RoundRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds (started_at, resolved_at, mode, difficulty, obstacle, sound,
			source_x, source_y, source_z, guess_x, guess_y, guess_z, distance_px, correct)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.ResolvedAt.UTC().Format(time.RFC3339Nano),
		string(rec.Mode),
		string(rec.Difficulty),
		string(rec.Obstacle),
		string(rec.Sound),
		rec.Source.X, rec.Source.Y, depth(rec.Source),
		rec.Guess.X, rec.Guess.Y, depth(rec.Guess),
		rec.DistancePx,
		rec.Correct,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func depth(p model.Point) sql.NullFloat64 {
	return sql.NullFloat64{Float64: p.Z, Valid: p.HasZ}
}

func point(x, y float64, z sql.NullFloat64) model.Point {
	if z.Valid {
		return model.Pt3(x, y, z.Float64)
	}
	return model.Pt(x, y)
}

func filters(cfg model.StatsConfig) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, string(cfg.Mode))
	}
	if cfg.Since != nil {
		clauses = append(clauses, "resolved_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	return strings.Join(clauses, " AND "), args
}

// recentRounds is a subquery selecting the filtered rounds, limited to the most
// recent cfg.Last when set.
func recentRounds(cfg model.StatsConfig) (string, []any) {
	where, args := filters(cfg)
	query := fmt.Sprintf(`SELECT * FROM rounds WHERE %s ORDER BY resolved_at DESC, id DESC`, where)
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	return query, args
}

// ListRounds returns rounds filtered by stats config, oldest first.
func (s *Store) ListRounds(ctx context.Context, cfg model.StatsConfig) ([]model.RoundRecord, error) {
	sub, args := recentRounds(cfg)
	query := fmt.Sprintf(`SELECT id, started_at, resolved_at, mode, difficulty, obstacle, sound,
		source_x, source_y, source_z, guess_x, guess_y, guess_z, distance_px, correct
		FROM (%s)
		ORDER BY resolved_at ASC, id ASC`, sub)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rounds []model.RoundRecord
	for rows.Next() {
		var (
			rec                  model.RoundRecord
			startedAt, resolved  string
			mode, diff, obs, snd string
			sx, sy, gx, gy       float64
			sz, gz               sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &startedAt, &resolved, &mode, &diff, &obs, &snd,
			&sx, &sy, &sz, &gx, &gy, &gz, &rec.DistancePx, &rec.Correct); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.ResolvedAt, err = time.Parse(time.RFC3339Nano, resolved); err != nil {
			return nil, err
		}
		rec.Mode = model.Mode(mode)
		rec.Difficulty = model.Difficulty(diff)
		rec.Obstacle = catalog.Obstacle(obs)
		rec.Sound = catalog.Sound(snd)
		rec.Source = point(sx, sy, sz)
		rec.Guess = point(gx, gy, gz)
		rounds = append(rounds, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rounds, nil
}

// ListBreakdown aggregates the filtered rounds by one dimension, best
// accuracy first.
func (s *Store) ListBreakdown(ctx context.Context, cfg model.StatsConfig, dim Dimension) ([]model.Breakdown, error) {
	switch dim {
	case BySound, ByObstacle, ByDifficulty:
	default:
		return nil, fmt.Errorf("unknown breakdown dimension %q", string(dim))
	}
	sub, args := recentRounds(cfg)
	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) AS attempts, SUM(correct) AS correct, AVG(distance_px) AS mean_distance
		FROM (%[2]s)
		GROUP BY %[1]s
		ORDER BY CAST(SUM(correct) AS REAL) / COUNT(*) DESC, %[1]s ASC`, string(dim), sub)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Breakdown
	for rows.Next() {
		var b model.Breakdown
		if err := rows.Scan(&b.Key, &b.Attempts, &b.Correct, &b.MeanDistance); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

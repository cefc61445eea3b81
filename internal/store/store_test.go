package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/blindsound/internal/catalog"
	"github.com/verte-zerg/blindsound/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "blindsound.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return st
}

func TestMissingKeysReportNotFound(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.LoadSettings(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for settings, got %v", err)
	}
	if _, err := st.LoadStats(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for stats, got %v", err)
	}
	mode, err := st.LoadMode(ctx)
	if !errors.Is(err, ErrNotFound) || mode != model.Mode2D {
		t.Fatalf("expected default mode with ErrNotFound, got %s %v", mode, err)
	}
}

func TestSettingsStatsModeRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	settings := model.Settings{Difficulty: model.Hard, Obstacle: catalog.Tunnel, Sound: catalog.Ocean, Volume: 0.25}
	if err := st.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	got, err := st.LoadSettings(ctx)
	if err != nil || got != settings {
		t.Fatalf("expected %+v, got %+v (%v)", settings, got, err)
	}

	stats := model.StatsData{
		Counters:  model.Counters{TotalAttempts: 3, CorrectAttempts: 2, CurrentStreak: 1, BestStreak: 2},
		ModeStats: model.ModeStats{TwoD: model.Counters{TotalAttempts: 2, CorrectAttempts: 1, CurrentStreak: 0, BestStreak: 1}, ThreeD: model.Counters{TotalAttempts: 1, CorrectAttempts: 1, CurrentStreak: 1, BestStreak: 1}},
	}
	if err := st.SaveStats(ctx, stats); err != nil {
		t.Fatalf("save stats: %v", err)
	}
	gotStats, err := st.LoadStats(ctx)
	if err != nil || gotStats != stats {
		t.Fatalf("expected %+v, got %+v (%v)", stats, gotStats, err)
	}

	if err := st.SaveMode(ctx, model.Mode3D); err != nil {
		t.Fatalf("save mode: %v", err)
	}
	if mode, err := st.LoadMode(ctx); err != nil || mode != model.Mode3D {
		t.Fatalf("expected 3d, got %s (%v)", mode, err)
	}
}

func TestStatsJSONShape(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	stats := model.StatsData{Counters: model.Counters{TotalAttempts: 1, CorrectAttempts: 1, CurrentStreak: 1, BestStreak: 1}}
	stats.ModeStats.TwoD = stats.Counters
	if err := st.SaveStats(ctx, stats); err != nil {
		t.Fatalf("save stats: %v", err)
	}
	raw, err := st.get(ctx, KeyStats)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := `{"totalAttempts":1,"correctAttempts":1,"currentStreak":1,"bestStreak":1,"modeStats":{"2d":{"totalAttempts":1,"correctAttempts":1,"currentStreak":1,"bestStreak":1},"3d":{"totalAttempts":0,"correctAttempts":0,"currentStreak":0,"bestStreak":0}}}`
	if raw != want {
		t.Fatalf("unexpected stored shape:\n%s", raw)
	}
}

func TestStatsTotalsFollowModeCounters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.db.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		KeyStats, `{"totalAttempts":9,"correctAttempts":1,"currentStreak":1,"bestStreak":2,"modeStats":{"2d":{"totalAttempts":2,"correctAttempts":2,"currentStreak":1,"bestStreak":2},"3d":{"totalAttempts":0,"correctAttempts":0,"currentStreak":0,"bestStreak":0}}}`, "x"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	stats, err := st.LoadStats(ctx)
	if err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if stats.TotalAttempts != 2 || stats.CorrectAttempts != 2 {
		t.Fatalf("expected totals summed from modes, got %+v", stats.Counters)
	}
	if stats.CurrentStreak != 1 || stats.BestStreak != 2 {
		t.Fatalf("streaks must be kept as saved, got %+v", stats.Counters)
	}
}

func TestCorruptValuesReportCorrupt(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for _, key := range []string{KeySettings, KeyStats, KeyMode} {
		if err := st.put(ctx, key, "ignored"); err != nil {
			t.Fatalf("put: %v", err)
		}
		if _, err := st.db.ExecContext(ctx, `UPDATE kv SET value = ? WHERE key = ?`, "{not json", key); err != nil {
			t.Fatalf("corrupt: %v", err)
		}
	}
	settings, err := st.LoadSettings(ctx)
	if !errors.Is(err, ErrCorrupt) || settings != model.DefaultSettings() {
		t.Fatalf("expected defaults with ErrCorrupt, got %+v %v", settings, err)
	}
	if _, err := st.LoadStats(ctx); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for stats, got %v", err)
	}
	if _, err := st.LoadMode(ctx); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for mode, got %v", err)
	}
}

func TestInvalidSettingsReportCorrupt(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.db.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		KeySettings, `{"difficulty":"easy","obstacleType":"none","soundType":"bell","volume":7}`, "x"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := st.LoadSettings(ctx); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for out of range volume, got %v", err)
	}
}

func TestLegacySettingsAreUpgraded(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.db.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		KeySettings, `{"soundType":"chime","difficulty":"medium"}`, "x"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := st.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Sound != catalog.Wind || got.Difficulty != model.Medium {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if got.Volume != 0.7 || got.Obstacle != catalog.NoObstacle {
		t.Fatalf("expected missing fields to keep defaults: %+v", got)
	}
}

func sampleRound(at time.Time, mode model.Mode, sound catalog.Sound, correct bool) model.RoundRecord {
	rec := model.RoundRecord{
		StartedAt:  at.Add(-2 * time.Second),
		ResolvedAt: at,
		Mode:       mode,
		Difficulty: model.Easy,
		Obstacle:   catalog.Wall,
		Sound:      sound,
		Source:     model.Pt(325, 200),
		Guess:      model.Pt(330, 205),
		DistancePx: 7.07,
		Correct:    correct,
	}
	if mode == model.Mode3D {
		rec.Source = model.Pt3(325, 200, 0.5)
		rec.Guess = model.Pt3(330, 205, -0.25)
	}
	return rec
}

func TestRoundsFilterAndOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []model.RoundRecord{
		sampleRound(base, model.Mode2D, catalog.Bell, true),
		sampleRound(base.Add(time.Minute), model.Mode3D, catalog.Bell, false),
		sampleRound(base.Add(2*time.Minute), model.Mode2D, catalog.Piano, false),
		sampleRound(base.Add(3*time.Minute), model.Mode2D, catalog.Bell, true),
	}
	for _, rec := range recs {
		if _, err := st.InsertRound(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := st.ListRounds(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || !all[0].ResolvedAt.Equal(base) {
		t.Fatalf("expected 4 rounds oldest first, got %d", len(all))
	}
	if all[1].Source != model.Pt3(325, 200, 0.5) || all[1].Guess != model.Pt3(330, 205, -0.25) {
		t.Fatalf("expected depth to round trip, got %+v / %+v", all[1].Source, all[1].Guess)
	}
	if all[0].Source.HasZ {
		t.Fatalf("expected planar source for 2d round")
	}

	twoD, err := st.ListRounds(ctx, model.StatsConfig{Mode: model.Mode2D, Last: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(twoD) != 2 || twoD[0].Sound != catalog.Piano || twoD[1].Sound != catalog.Bell {
		t.Fatalf("unexpected last-2 2d rounds: %+v", twoD)
	}

	since := base.Add(90 * time.Second)
	recent, err := st.ListRounds(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 rounds since, got %d", len(recent))
	}

	breakdown, err := st.ListBreakdown(ctx, model.StatsConfig{Mode: model.Mode2D}, BySound)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(breakdown) != 2 || breakdown[0].Key != string(catalog.Bell) || breakdown[0].Attempts != 2 || breakdown[0].Correct != 2 {
		t.Fatalf("unexpected breakdown: %+v", breakdown)
	}
	if _, err := st.ListBreakdown(ctx, model.StatsConfig{}, Dimension("x; DROP TABLE rounds")); err == nil {
		t.Fatalf("expected unknown dimension to be rejected")
	}

	if err := st.ResetStats(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	after, err := st.ListRounds(ctx, model.StatsConfig{})
	if err != nil || len(after) != 0 {
		t.Fatalf("expected empty history after reset, got %d (%v)", len(after), err)
	}
}

func TestResetKeepsSettings(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	settings := model.DefaultSettings()
	settings.Sound = catalog.Flute
	if err := st.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.SaveStats(ctx, model.StatsData{Counters: model.Counters{TotalAttempts: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.ResetStats(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := st.LoadStats(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected stats cleared, got %v", err)
	}
	if got, err := st.LoadSettings(ctx); err != nil || got.Sound != catalog.Flute {
		t.Fatalf("expected settings kept, got %+v (%v)", got, err)
	}
}

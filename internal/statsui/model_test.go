package statsui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/blindsound/internal/catalog"
	"github.com/verte-zerg/blindsound/internal/model"
	"github.com/verte-zerg/blindsound/internal/store"
)

type fakeSource struct {
	stats   model.StatsData
	rounds  []model.RoundRecord
	lastCfg model.StatsConfig
}

func (f *fakeSource) LoadStats(context.Context) (model.StatsData, error) {
	return f.stats, nil
}

func (f *fakeSource) ListRounds(_ context.Context, cfg model.StatsConfig) ([]model.RoundRecord, error) {
	f.lastCfg = cfg
	return f.rounds, nil
}

func (f *fakeSource) ListBreakdown(_ context.Context, _ model.StatsConfig, dim store.Dimension) ([]model.Breakdown, error) {
	switch dim {
	case store.BySound:
		return []model.Breakdown{{Key: string(catalog.Ocean), Attempts: 2, Correct: 1, MeanDistance: 30}}, nil
	case store.ByObstacle:
		return []model.Breakdown{{Key: string(catalog.Wall), Attempts: 2, Correct: 1, MeanDistance: 30}}, nil
	default:
		return []model.Breakdown{{Key: string(model.Easy), Attempts: 2, Correct: 1, MeanDistance: 30}}, nil
	}
}

func seededSource() *fakeSource {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return &fakeSource{
		stats: model.StatsData{Counters: model.Counters{TotalAttempts: 2, CorrectAttempts: 1, CurrentStreak: 1, BestStreak: 1}},
		rounds: []model.RoundRecord{
			{ResolvedAt: base, Mode: model.Mode2D, Difficulty: model.Easy, Obstacle: catalog.Wall, Sound: catalog.Ocean, DistancePx: 60},
			{ResolvedAt: base.Add(time.Minute), Mode: model.Mode2D, Difficulty: model.Easy, Obstacle: catalog.Wall, Sound: catalog.Ocean, DistancePx: 10, Correct: true},
		},
	}
}

func sized(t *testing.T, m *Model) *Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(*Model)
}

func TestTablesArePopulated(t *testing.T) {
	m := sized(t, NewModel(seededSource(), model.StatsConfig{CurveWindow: 1}))
	if got := len(m.tables[tabBreakdown].Rows()); got != 3 {
		t.Fatalf("expected one breakdown row per group, got %d", got)
	}
	history := m.tables[tabHistory].Rows()
	if len(history) != 2 || history[0][6] != "hit" || history[1][6] != "miss" {
		t.Fatalf("expected newest round first, got %v", history)
	}
	if history[0][5] != "0.20" {
		t.Fatalf("expected error in meters, got %q", history[0][5])
	}
}

func TestOverviewShowsCards(t *testing.T) {
	m := sized(t, NewModel(seededSource(), model.StatsConfig{CurveWindow: 1}))
	view := m.View()
	for _, want := range []string{"Overview", "Rounds", "Best streak", "Filters: mode=any"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
	if lines := strings.Split(view, "\n"); len(lines) != 30 {
		t.Fatalf("expected view to fill the height, got %d lines", len(lines))
	}
}

func TestEmptyOverview(t *testing.T) {
	m := sized(t, NewModel(&fakeSource{}, model.StatsConfig{CurveWindow: 1}))
	if !strings.Contains(m.View(), "No rounds played yet.") {
		t.Fatalf("expected empty message")
	}
}

func TestModeKeyCyclesFilter(t *testing.T) {
	src := seededSource()
	m := sized(t, NewModel(src, model.StatsConfig{CurveWindow: 1}))
	key := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")}
	want := []model.Mode{model.Mode2D, model.Mode3D, ""}
	for _, mode := range want {
		m.Update(key)
		if src.lastCfg.Mode != mode {
			t.Fatalf("expected mode %q, got %q", mode, src.lastCfg.Mode)
		}
	}
}

func TestTabNavigationWraps(t *testing.T) {
	m := sized(t, NewModel(seededSource(), model.StatsConfig{CurveWindow: 1}))
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabHistory {
		t.Fatalf("expected wrap to history, got %d", m.activeTab)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabOverview {
		t.Fatalf("expected wrap to overview, got %d", m.activeTab)
	}
}

func TestParseFilters(t *testing.T) {
	cfg, err := parseFilters("3d", "2026-01-02", "20", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode != model.Mode3D || cfg.Last != 20 || cfg.CurveWindow != 1 || cfg.Since == nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg, err := parseFilters("any", "", "", "5"); err != nil || cfg.Mode != "" || cfg.CurveWindow != 5 {
		t.Fatalf("expected any mode, got %+v (%v)", cfg, err)
	}
	bad := [][4]string{
		{"4d", "", "", ""},
		{"", "yesterday", "", ""},
		{"", "", "-1", ""},
		{"", "", "", "0"},
	}
	for _, in := range bad {
		if _, err := parseFilters(in[0], in[1], in[2], in[3]); err == nil {
			t.Fatalf("expected error for %v", in)
		}
	}
}

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct {
		in, next, prev int
	}{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{10, 15, 5},
	}
	for _, tc := range cases {
		if got := nextCurveWindow(tc.in); got != tc.next {
			t.Fatalf("next(%d) = %d, want %d", tc.in, got, tc.next)
		}
		if got := prevCurveWindow(tc.in); got != tc.prev {
			t.Fatalf("prev(%d) = %d, want %d", tc.in, got, tc.prev)
		}
	}
}

func TestFitLines(t *testing.T) {
	got := fitLines("a\nb\nc", 3, 2)
	if got != "a  \nb  " {
		t.Fatalf("unexpected fit: %q", got)
	}
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

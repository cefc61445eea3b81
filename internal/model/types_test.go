package model

import (
	"testing"

	"github.com/verte-zerg/blindsound/internal/catalog"
)

func TestDifficultyTables(t *testing.T) {
	cases := []struct {
		d         Difficulty
		factor    float64
		threshold float64
		next      Difficulty
	}{
		{Easy, 0.7, 50, Medium},
		{Medium, 0.85, 35, Hard},
		{Hard, 1.0, 20, Easy},
	}
	for _, tc := range cases {
		if tc.d.RadiusFactor() != tc.factor || tc.d.Threshold() != tc.threshold || tc.d.Next() != tc.next {
			t.Fatalf("unexpected table for %s", tc.d)
		}
		parsed, err := ParseDifficulty(string(tc.d))
		if err != nil || parsed != tc.d {
			t.Fatalf("parse %s: %v", tc.d, err)
		}
	}
	if _, err := ParseDifficulty("extreme"); err == nil {
		t.Fatalf("expected unknown difficulty rejected")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		if got, err := ParseMode(string(m)); err != nil || got != m {
			t.Fatalf("parse %s: %v", m, err)
		}
	}
	if got, _ := ParseMode(" 3D "); got != Mode3D {
		t.Fatalf("expected case-insensitive parse")
	}
	if _, err := ParseMode("4d"); err == nil {
		t.Fatalf("expected unknown mode rejected")
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	bad := []Settings{
		{Difficulty: "x", Obstacle: catalog.Wall, Sound: catalog.Bell, Volume: 0.5},
		{Difficulty: Easy, Obstacle: "moat", Sound: catalog.Bell, Volume: 0.5},
		{Difficulty: Easy, Obstacle: catalog.Wall, Sound: "kazoo", Volume: 0.5},
		{Difficulty: Easy, Obstacle: catalog.Wall, Sound: catalog.Bell, Volume: -0.1},
		{Difficulty: Easy, Obstacle: catalog.Wall, Sound: catalog.Bell, Volume: 1.1},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Fatalf("expected %+v rejected", s)
		}
	}
}

func TestModeStatsFor(t *testing.T) {
	var ms ModeStats
	ms.For(Mode3D).TotalAttempts = 2
	ms.For(Mode2D).CorrectAttempts = 1
	if ms.ThreeD.TotalAttempts != 2 || ms.TwoD.CorrectAttempts != 1 {
		t.Fatalf("For must address the mode's counters: %+v", ms)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown mode")
		}
	}()
	ms.For("4d")
}

func TestArenaAndAccuracy(t *testing.T) {
	a := DefaultArena()
	if a.Center() != 200 || a.Radius != 150 {
		t.Fatalf("unexpected arena %+v", a)
	}
	if (Counters{}).Accuracy() != 0 || (Counters{TotalAttempts: 4, CorrectAttempts: 3}).Accuracy() != 0.75 {
		t.Fatalf("unexpected accuracy")
	}
	if (Breakdown{Attempts: 2, Correct: 1}).Accuracy() != 0.5 {
		t.Fatalf("unexpected breakdown accuracy")
	}
}

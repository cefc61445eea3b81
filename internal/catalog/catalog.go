// Package catalog defines the closed sets of sound and obstacle categories.
package catalog

import (
	"fmt"
	"strings"
)

// Sound identifies a synthesized sound category.
type Sound string

// Sound categories.
const (
	Bell        Sound = "bell"
	Wind        Sound = "wind"
	Kalimba     Sound = "kalimba"
	Marimba     Sound = "marimba"
	SingingBowl Sound = "singingBowl"
	Guitar      Sound = "guitar"
	Piano       Sound = "piano"
	Flute       Sound = "flute"
	Xylophone   Sound = "xylophone"
	Ocean       Sound = "ocean"
)

// Obstacle identifies an acoustic filter preset.
type Obstacle string

// Obstacle categories.
const (
	NoObstacle Obstacle = "none"
	Wall       Obstacle = "wall"
	Pillar     Obstacle = "pillar"
	Corner     Obstacle = "corner"
	Tunnel     Obstacle = "tunnel"
	Maze       Obstacle = "maze"
)

// legacyChime is the id older saves used for the wind sound.
const legacyChime = "chime"

// Entry is descriptive metadata for a catalog value.
type Entry struct {
	Name        string
	Icon        string
	Description string
}

var sounds = []Sound{Bell, Wind, Kalimba, Marimba, SingingBowl, Guitar, Piano, Flute, Xylophone, Ocean}

var obstacles = []Obstacle{NoObstacle, Wall, Pillar, Corner, Tunnel, Maze}

// Sounds returns every sound category in display order.
func Sounds() []Sound {
	return append([]Sound(nil), sounds...)
}

// Obstacles returns every obstacle category in display order.
func Obstacles() []Obstacle {
	return append([]Obstacle(nil), obstacles...)
}

// ParseSound resolves a sound id, case-insensitively.
func ParseSound(value string) (Sound, error) {
	v := strings.TrimSpace(value)
	if strings.EqualFold(v, legacyChime) {
		return Wind, nil
	}
	for _, s := range sounds {
		if strings.EqualFold(v, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown sound %q", value)
}

// ParseObstacle resolves an obstacle id, case-insensitively.
func ParseObstacle(value string) (Obstacle, error) {
	v := strings.TrimSpace(value)
	for _, o := range obstacles {
		if strings.EqualFold(v, string(o)) {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown obstacle %q", value)
}

// Valid reports whether s is part of the catalog.
func (s Sound) Valid() bool {
	for _, v := range sounds {
		if s == v {
			return true
		}
	}
	return false
}

// Valid reports whether o is part of the catalog.
func (o Obstacle) Valid() bool {
	for _, v := range obstacles {
		if o == v {
			return true
		}
	}
	return false
}

// Info returns display metadata for the sound.
func (s Sound) Info() Entry {
	switch s {
	case Bell:
		return Entry{Name: "Bell", Icon: "🔔", Description: "Clean and clear"}
	case Wind:
		return Entry{Name: "Breeze", Icon: "🍃", Description: "Soft and airy"}
	case Kalimba:
		return Entry{Name: "Kalimba", Icon: "🎵", Description: "Warm and cozy"}
	case Marimba:
		return Entry{Name: "Marimba", Icon: "🎶", Description: "Rich and deep"}
	case SingingBowl:
		return Entry{Name: "Singing bowl", Icon: "🥣", Description: "Meditative"}
	case Guitar:
		return Entry{Name: "Guitar", Icon: "🎸", Description: "Soft and harmonic"}
	case Piano:
		return Entry{Name: "Piano", Icon: "🎹", Description: "Classic and crisp"}
	case Flute:
		return Entry{Name: "Flute", Icon: "🪈", Description: "Light and airy"}
	case Xylophone:
		return Entry{Name: "Xylophone", Icon: "🥁", Description: "Bright and rhythmic"}
	case Ocean:
		return Entry{Name: "Ocean", Icon: "🌊", Description: "Natural and calming"}
	default:
		panic(fmt.Sprintf("catalog: unhandled sound %q", string(s)))
	}
}

// Info returns display metadata for the obstacle.
func (o Obstacle) Info() Entry {
	switch o {
	case NoObstacle:
		return Entry{Name: "No obstacles", Icon: "⭕", Description: "Clean sound"}
	case Wall:
		return Entry{Name: "Wall", Icon: "🧱", Description: "Partial blocking"}
	case Pillar:
		return Entry{Name: "Pillar", Icon: "🏛", Description: "Sound scattering"}
	case Corner:
		return Entry{Name: "Corner", Icon: "📐", Description: "Reflections"}
	case Tunnel:
		return Entry{Name: "Tunnel", Icon: "🌀", Description: "Resonance"}
	case Maze:
		return Entry{Name: "Maze", Icon: "🔀", Description: "Complex reflections"}
	default:
		panic(fmt.Sprintf("catalog: unhandled obstacle %q", string(o)))
	}
}

// Next returns the sound following s, wrapping around.
func (s Sound) Next() Sound {
	for i, v := range sounds {
		if v == s {
			return sounds[(i+1)%len(sounds)]
		}
	}
	return sounds[0]
}

// Next returns the obstacle following o, wrapping around.
func (o Obstacle) Next() Obstacle {
	for i, v := range obstacles {
		if v == o {
			return obstacles[(i+1)%len(obstacles)]
		}
	}
	return obstacles[0]
}

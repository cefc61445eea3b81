// Package synth procedurally generates the trainer's sound categories.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/blindsound/internal/catalog"
)

const (
	defaultDuration = 1.5
	windDuration    = 3.0
	oceanDuration   = 4.0

	oceanSmoothing = 0.95
	windSmoothing  = 0.85
)

// StereoBuffer holds two equal-length channels of samples in about [-1, 1].
type StereoBuffer struct {
	Left  []float64
	Right []float64
}

// Len returns the number of frames.
func (b StereoBuffer) Len() int {
	return len(b.Left)
}

// Frames interleaves the channels into [left, right] frames.
func (b StereoBuffer) Frames() [][2]float64 {
	frames := make([][2]float64, b.Len())
	for i := range frames {
		frames[i][0] = b.Left[i]
		frames[i][1] = b.Right[i]
	}
	return frames
}

// Duration returns the buffer length of a category in seconds.
func Duration(sound catalog.Sound) float64 {
	switch sound {
	case catalog.Ocean:
		return oceanDuration
	case catalog.Wind:
		return windDuration
	case catalog.Bell, catalog.Kalimba, catalog.Marimba, catalog.SingingBowl,
		catalog.Guitar, catalog.Piano, catalog.Flute, catalog.Xylophone:
		return defaultDuration
	default:
		panic(fmt.Sprintf("synth: unhandled sound %q", string(sound)))
	}
}

// FrameCount returns round(sampleRate * Duration(sound)).
func FrameCount(sound catalog.Sound, sampleRate int) int {
	return int(math.Round(float64(sampleRate) * Duration(sound)))
}

// Synthesize renders a category at the given sample rate. Tonal categories are
// a pure function of time and identical on both channels; noise textures draw
// from rnd independently per channel, or from a time-seeded source when rnd is nil.
func Synthesize(sound catalog.Sound, sampleRate int, rnd *rand.Rand) StereoBuffer {
	n := FrameCount(sound, sampleRate)
	buf := StereoBuffer{Left: make([]float64, n), Right: make([]float64, n)}
	if n == 0 {
		return buf
	}
	switch sound {
	case catalog.Ocean, catalog.Wind:
		if rnd == nil {
			rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		fillTexture(buf.Left, sound, sampleRate, rnd)
		fillTexture(buf.Right, sound, sampleRate, rnd)
	default:
		voice := tonal(sound)
		rate := float64(sampleRate)
		for i := 0; i < n; i++ {
			buf.Left[i] = voice(float64(i) / rate)
		}
		copy(buf.Right, buf.Left)
	}
	return buf
}

func tonal(sound catalog.Sound) func(t float64) float64 {
	switch sound {
	case catalog.Bell:
		return bell
	case catalog.Kalimba:
		return kalimba
	case catalog.Marimba:
		return marimba
	case catalog.SingingBowl:
		return singingBowl
	case catalog.Guitar:
		return guitar
	case catalog.Piano:
		return piano
	case catalog.Flute:
		return flute
	case catalog.Xylophone:
		return xylophone
	default:
		panic(fmt.Sprintf("synth: %q is not a tonal sound", string(sound)))
	}
}

func sine(freq, t float64) float64 {
	return math.Sin(2 * math.Pi * freq * t)
}

// bell glides down from 800 Hz.
func bell(t float64) float64 {
	freq := 800 * math.Exp(-t*2)
	return sine(freq, t) * math.Exp(-t*8) * 0.5
}

func kalimba(t float64) float64 {
	return sine(392, t) * math.Exp(-t*3) * (1 + 0.3*sine(5, t)) * 0.4
}

func marimba(t float64) float64 {
	return (sine(261, t)*0.4 + sine(523, t)*0.3 + sine(784, t)*0.2) * math.Exp(-t*6) * 0.5
}

func singingBowl(t float64) float64 {
	return sine(110, t) * math.Exp(-t*1.5) * (1 + 0.2*sine(3, t)) * 0.3
}

func guitar(t float64) float64 {
	return (sine(196, t)*0.3 + sine(294, t)*0.2 + sine(392, t)*0.1) * math.Exp(-t*4) * 0.5
}

func piano(t float64) float64 {
	return (sine(523, t)*0.4 + sine(659, t)*0.3 + sine(784, t)*0.2) * math.Exp(-t*5) * 0.4
}

func flute(t float64) float64 {
	return sine(880, t) * (1 + 0.3*sine(5, t)) * math.Exp(-t*3) * 0.3
}

func xylophone(t float64) float64 {
	return (sine(1047, t)*0.3 + sine(1319, t)*0.2 + sine(1568, t)*0.1) * math.Exp(-t*8) * 0.6
}

func fillTexture(out []float64, sound catalog.Sound, sampleRate int, rnd *rand.Rand) {
	rate := float64(sampleRate)
	duration := Duration(sound)
	alpha := windSmoothing
	if sound == catalog.Ocean {
		alpha = oceanSmoothing
	}
	var y float64
	for i := range out {
		t := float64(i) / rate
		y = alpha*y + (1-alpha)*(rnd.Float64()*2-1)
		var v float64
		if sound == catalog.Ocean {
			swell := sine(80, t)*0.1 + sine(160, t)*0.05
			surf := 0.7 + 0.3*sine(0.2, t)
			v = (y*3 + swell) * surf * 0.6
		} else {
			gust := 0.6 + 0.25*sine(0.5, t) + 0.15*sine(1.3, t)
			v = y * 2.5 * gust
		}
		out[i] = clamp(v * window(t, duration))
	}
}

// window fades in over half a second and decays linearly to the end.
func window(t, duration float64) float64 {
	return math.Min(2*t, 1) * (1 - t/duration)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

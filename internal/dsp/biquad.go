// Package dsp provides filter stages for beep streamers.
package dsp

import (
	"fmt"
	"math"

	"github.com/gopxl/beep/v2"
)

// Kind selects a biquad response.
type Kind int

// Filter kinds.
const (
	Lowpass Kind = iota
	Bandpass
	Highpass
	Lowshelf
)

func (k Kind) String() string {
	switch k {
	case Lowpass:
		return "lowpass"
	case Bandpass:
		return "bandpass"
	case Highpass:
		return "highpass"
	case Lowshelf:
		return "lowshelf"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DefaultQ is the Butterworth quality factor.
const DefaultQ = math.Sqrt2 / 2

// FilterSpec describes one biquad stage. GainDB is used by Lowshelf only.
// A zero Q falls back to DefaultQ.
type FilterSpec struct {
	Kind     Kind
	CutoffHz float64
	GainDB   float64
	Q        float64
}

type coefficients struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// design computes normalized RBJ cookbook coefficients.
func design(spec FilterSpec, sampleRate float64) coefficients {
	q := spec.Q
	if q <= 0 {
		q = DefaultQ
	}
	freq := spec.CutoffHz
	nyquist := sampleRate / 2
	if freq >= nyquist {
		freq = nyquist * 0.99
	}
	if freq <= 0 {
		freq = 1
	}
	w0 := 2 * math.Pi * freq / sampleRate
	sinW0 := math.Sin(w0)
	cosW0 := math.Cos(w0)
	alpha := sinW0 / (2 * q)

	var b0, b1, b2, a0, a1, a2 float64
	switch spec.Kind {
	case Lowpass:
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case Highpass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case Lowshelf:
		a := math.Pow(10, spec.GainDB/40)
		beta := 2 * math.Sqrt(a) * (sinW0 / math.Sqrt2)
		b0 = a * ((a + 1) - (a-1)*cosW0 + beta)
		b1 = 2 * a * ((a - 1) - (a+1)*cosW0)
		b2 = a * ((a + 1) - (a-1)*cosW0 - beta)
		a0 = (a + 1) + (a-1)*cosW0 + beta
		a1 = -2 * ((a - 1) + (a+1)*cosW0)
		a2 = (a + 1) + (a-1)*cosW0 - beta
	default:
		panic(fmt.Sprintf("dsp: unhandled filter kind %d", int(spec.Kind)))
	}
	inv := 1 / a0
	return coefficients{
		b0: b0 * inv,
		b1: b1 * inv,
		b2: b2 * inv,
		a1: a1 * inv,
		a2: a2 * inv,
	}
}

// channelState is the transposed direct form II memory of one channel.
type channelState struct {
	z1, z2 float64
}

func (s *channelState) process(c coefficients, in float64) float64 {
	out := in*c.b0 + s.z1
	s.z1 = in*c.b1 + s.z2 - c.a1*out
	s.z2 = in*c.b2 - c.a2*out
	return out
}

// Biquad filters both channels of a streamer with independent state.
type Biquad struct {
	Streamer beep.Streamer
	coef     coefficients
	state    [2]channelState
}

// NewBiquad wraps s with the filter described by spec.
func NewBiquad(s beep.Streamer, spec FilterSpec, sampleRate beep.SampleRate) *Biquad {
	return &Biquad{
		Streamer: s,
		coef:     design(spec, float64(sampleRate)),
	}
}

// Stream implements beep.Streamer.
func (f *Biquad) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.Streamer.Stream(samples)
	for i := range samples[:n] {
		samples[i][0] = f.state[0].process(f.coef, samples[i][0])
		samples[i][1] = f.state[1].process(f.coef, samples[i][1])
	}
	return n, ok
}

// Err propagates the wrapped streamer's error.
func (f *Biquad) Err() error {
	return f.Streamer.Err()
}

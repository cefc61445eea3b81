// Package spatial routes synthesized buffers through the localization cue chain.
package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/verte-zerg/blindsound/internal/dsp"
	"github.com/verte-zerg/blindsound/internal/model"
	"github.com/verte-zerg/blindsound/internal/obstacle"
	"github.com/verte-zerg/blindsound/internal/synth"
)

const (
	minDistanceGain   = 0.3
	distanceGainSlope = 0.5
	renderChunk       = 512
)

// ErrEmptyBuffer is returned when there is nothing to route.
var ErrEmptyBuffer = errors.New("spatial: empty buffer")

// Router wires buffers through gain, obstacle filter, depth attenuation and
// stereo pan into a Sink.
type Router struct {
	sink  Sink
	arena model.Arena
}

// NewRouter returns a Router playing into sink.
func NewRouter(sink Sink, arena model.Arena) *Router {
	return &Router{sink: sink, arena: arena}
}

// Arena returns the canvas geometry used for panning.
func (r *Router) Arena() model.Arena {
	return r.arena
}

// Route starts playback of buf as if emitted from pos. The caller must stop any
// previous Playback first.
func (r *Router) Route(buf synth.StereoBuffer, pos model.Point, settings model.Settings, mode model.Mode) (*Playback, error) {
	if r.sink == nil {
		return nil, ErrSinkUnavailable
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyBuffer
	}
	chain := Chain(newBufferStreamer(buf), pos, settings, mode, r.arena, r.sink.SampleRate())
	pb := newPlayback(chain)
	if err := r.sink.Play(pb); err != nil {
		pb.Stop()
		return nil, fmt.Errorf("failed to start playback: %w", err)
	}
	return pb, nil
}

// Render drains the same chain Route uses into memory.
func Render(buf synth.StereoBuffer, pos model.Point, settings model.Settings, mode model.Mode, arena model.Arena, sampleRate beep.SampleRate) [][2]float64 {
	chain := Chain(newBufferStreamer(buf), pos, settings, mode, arena, sampleRate)
	return drain(chain, buf.Len())
}

// Chain builds source -> gain -> [obstacle filter] -> [depth gain] -> pan.
func Chain(src beep.Streamer, pos model.Point, settings model.Settings, mode model.Mode, arena model.Arena, sampleRate beep.SampleRate) beep.Streamer {
	var s beep.Streamer = &effects.Gain{Streamer: src, Gain: settings.Volume - 1}
	if spec, ok := obstacle.Stage(settings.Obstacle); ok {
		s = dsp.NewBiquad(s, spec, sampleRate)
	}
	if mode == model.Mode3D && pos.HasZ {
		s = &effects.Gain{Streamer: s, Gain: DistanceGain(pos.Z) - 1}
	}
	return &effects.Pan{Streamer: s, Pan: Pan(pos.X, arena)}
}

// Pan maps a horizontal canvas position to a stereo balance in [-1, 1].
func Pan(x float64, arena model.Arena) float64 {
	if arena.Radius <= 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, (x-arena.Center())/arena.Radius))
}

// DistanceGain attenuates sources away from the listener's depth plane.
func DistanceGain(z float64) float64 {
	return math.Max(minDistanceGain, 1-math.Abs(z)*distanceGainSlope)
}

func drain(s beep.Streamer, capacity int) [][2]float64 {
	out := make([][2]float64, 0, capacity)
	chunk := make([][2]float64, renderChunk)
	for {
		n, ok := s.Stream(chunk)
		out = append(out, chunk[:n]...)
		if !ok || n < len(chunk) {
			return out
		}
	}
}

// bufferStreamer plays a StereoBuffer once.
type bufferStreamer struct {
	buf synth.StereoBuffer
	pos int
}

func newBufferStreamer(buf synth.StereoBuffer) *bufferStreamer {
	return &bufferStreamer{buf: buf}
}

func (b *bufferStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if b.pos >= b.buf.Len() {
		return 0, false
	}
	for i := range samples {
		if b.pos >= b.buf.Len() {
			return i, true
		}
		samples[i][0] = b.buf.Left[b.pos]
		samples[i][1] = b.buf.Right[b.pos]
		b.pos++
	}
	return len(samples), true
}

func (b *bufferStreamer) Err() error {
	return nil
}

package dsp

import (
	"math"
	"testing"

	"github.com/gopxl/beep/v2"
)

const testRate = beep.SampleRate(44100)

func sineStreamer(freq float64, frames int) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for i := range samples {
			if pos >= frames {
				return i, i > 0
			}
			v := math.Sin(2 * math.Pi * freq * float64(pos) / float64(testRate))
			samples[i][0] = v
			samples[i][1] = v
			pos++
		}
		return len(samples), true
	})
}

// rmsAfter filters a sine and returns the RMS of the settled second half.
func rmsAfter(t *testing.T, spec FilterSpec, freq float64) float64 {
	t.Helper()
	frames := int(testRate) / 2
	f := NewBiquad(sineStreamer(freq, frames), spec, testRate)
	out := make([][2]float64, 0, frames)
	buf := make([][2]float64, 512)
	for {
		n, ok := f.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok || n < len(buf) {
			break
		}
	}
	if len(out) != frames {
		t.Fatalf("expected %d frames, got %d", frames, len(out))
	}
	var sum float64
	half := out[frames/2:]
	for _, s := range half {
		sum += s[0] * s[0]
	}
	return math.Sqrt(sum / float64(len(half)))
}

func TestLowpassAttenuatesHighs(t *testing.T) {
	spec := FilterSpec{Kind: Lowpass, CutoffHz: 1500}
	low := rmsAfter(t, spec, 200)
	high := rmsAfter(t, spec, 8000)
	if high >= low/10 {
		t.Fatalf("expected strong high-frequency cut, low=%.4f high=%.4f", low, high)
	}
}

func TestHighpassAttenuatesLows(t *testing.T) {
	spec := FilterSpec{Kind: Highpass, CutoffHz: 500}
	low := rmsAfter(t, spec, 50)
	high := rmsAfter(t, spec, 5000)
	if low >= high/10 {
		t.Fatalf("expected strong low-frequency cut, low=%.4f high=%.4f", low, high)
	}
}

func TestBandpassPeaksAtCenter(t *testing.T) {
	spec := FilterSpec{Kind: Bandpass, CutoffHz: 1000, Q: 1}
	center := rmsAfter(t, spec, 1000)
	below := rmsAfter(t, spec, 100)
	above := rmsAfter(t, spec, 10000)
	if center <= below || center <= above {
		t.Fatalf("expected peak at center, below=%.4f center=%.4f above=%.4f", below, center, above)
	}
	// Unity gain at the center frequency for the constant 0 dB peak form.
	if math.Abs(center-1/math.Sqrt2) > 0.02 {
		t.Fatalf("expected unity passband, got rms %.4f", center)
	}
}

func TestLowshelfCutsLowEnd(t *testing.T) {
	spec := FilterSpec{Kind: Lowshelf, CutoffHz: 800, GainDB: -8}
	low := rmsAfter(t, spec, 40)
	high := rmsAfter(t, spec, 10000)
	gotDB := 20 * math.Log10(low/(1/math.Sqrt2))
	if math.Abs(gotDB+8) > 0.5 {
		t.Fatalf("expected about -8 dB below the shelf, got %.2f dB", gotDB)
	}
	if math.Abs(high-1/math.Sqrt2) > 0.02 {
		t.Fatalf("expected flat response above the shelf, got rms %.4f", high)
	}
}

func TestKindString(t *testing.T) {
	if Lowshelf.String() != "lowshelf" || Bandpass.String() != "bandpass" {
		t.Fatalf("unexpected kind names: %s %s", Lowshelf, Bandpass)
	}
}

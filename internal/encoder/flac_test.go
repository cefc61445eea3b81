package encoder

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/mewkiz/flac"
)

func tone(n int) [][2]float64 {
	frames := make([][2]float64, n)
	for i := range frames {
		v := math.Sin(2 * math.Pi * 440 * float64(i) / 8000)
		frames[i] = [2]float64{v * 0.5, -v * 0.25}
	}
	return frames
}

func TestEncodeStereoRoundTrip(t *testing.T) {
	in := tone(BlockSize + 1000)
	data, err := EncodeStereo(in, 8000)
	if err != nil {
		t.Fatalf("EncodeStereo: %v", err)
	}
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}

	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stream.Info.NChannels != Channels || stream.Info.SampleRate != 8000 {
		t.Fatalf("unexpected stream info %+v", stream.Info)
	}
	var decoded int
	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("parse frame: %v", err)
		}
		for i := 0; i < int(f.BlockSize); i++ {
			idx := decoded + i
			want := quantize(in[idx][0])
			if got := f.Subframes[0].Samples[i]; got != want {
				t.Fatalf("left sample %d = %d, want %d", idx, got, want)
			}
			if got, want := f.Subframes[1].Samples[i], quantize(in[idx][1]); got != want {
				t.Fatalf("right sample %d = %d, want %d", idx, got, want)
			}
		}
		decoded += int(f.BlockSize)
	}
	if decoded != len(in) {
		t.Fatalf("decoded %d frames, want %d", decoded, len(in))
	}
}

func TestQuantizeClamps(t *testing.T) {
	if quantize(2) != math.MaxInt16 || quantize(-2) != -math.MaxInt16 || quantize(0) != 0 {
		t.Fatalf("unexpected quantization")
	}
}

func TestEncoderRejectsBadInput(t *testing.T) {
	if _, err := NewFlac(0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
	enc, err := NewFlac(8000)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.EncodeBlock(make([][2]float64, BlockSize+1)); err == nil {
		t.Fatalf("expected oversized block to be rejected")
	}
	if err := enc.EncodeBlock(nil); err != nil || enc.TotalFrames() != 0 {
		t.Fatalf("empty block must be a no-op")
	}
}

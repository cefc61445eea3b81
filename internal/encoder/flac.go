// Package encoder writes rendered stereo audio as FLAC.
package encoder

import (
	"bytes"
	"fmt"
	"math"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const (
	Channels      = 2
	BitsPerSample = 16
	BlockSize     = 4096
)

// FlacEncoder accumulates stereo blocks into an in-memory FLAC stream.
type FlacEncoder struct {
	buf         bytes.Buffer
	enc         *flac.Encoder
	sampleRate  uint32
	totalFrames uint64
}

// NewFlac returns an encoder for 16-bit stereo at sampleRate.
func NewFlac(sampleRate int) (*FlacEncoder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	e := &FlacEncoder{sampleRate: uint32(sampleRate)}
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    e.sampleRate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
		NSamples:      0,
	}
	enc, err := flac.NewEncoder(&e.buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	e.enc = enc
	return e, nil
}

// EncodeBlock writes up to BlockSize frames of samples in [-1,1].
func (e *FlacEncoder) EncodeBlock(block [][2]float64) error {
	if len(block) == 0 {
		return nil
	}
	if len(block) > BlockSize {
		return fmt.Errorf("block of %d frames exceeds %d", len(block), BlockSize)
	}
	left := make([]int32, len(block))
	right := make([]int32, len(block))
	for i, s := range block {
		left[i] = quantize(s[0])
		right[i] = quantize(s[1])
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    e.sampleRate,
			Channels:      frame.ChannelsLR,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{verbatim(left), verbatim(right)},
	}
	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func verbatim(samples []int32) *frame.Subframe {
	return &frame.Subframe{
		SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
		Samples:   samples,
		NSamples:  len(samples),
	}
}

func quantize(v float64) int32 {
	v = max(-1, min(1, v))
	return int32(math.Round(v * math.MaxInt16))
}

// Close flushes the stream.
func (e *FlacEncoder) Close() error {
	return e.enc.Close()
}

// Bytes returns the encoded stream; call after Close.
func (e *FlacEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

// TotalFrames is the number of stereo frames written.
func (e *FlacEncoder) TotalFrames() uint64 {
	return e.totalFrames
}

// EncodeStereo encodes a whole rendering in BlockSize chunks.
func EncodeStereo(frames [][2]float64, sampleRate int) ([]byte, error) {
	enc, err := NewFlac(sampleRate)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(frames); i += BlockSize {
		end := min(i+BlockSize, len(frames))
		if err := enc.EncodeBlock(frames[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing flac encoder: %w", err)
	}
	return enc.Bytes(), nil
}

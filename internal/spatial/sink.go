package spatial

import (
	"errors"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// ErrSinkUnavailable is returned when playing into a sink that was not set up.
var ErrSinkUnavailable = errors.New("spatial: audio output not initialized")

// Sink is the audio output the router plays into.
type Sink interface {
	SampleRate() beep.SampleRate
	Play(s beep.Streamer) error
}

// SpeakerSink plays through the system speaker.
type SpeakerSink struct {
	mu          sync.Mutex
	sampleRate  beep.SampleRate
	initialized bool
}

// NewSpeakerSink returns a sink for the given rate; call Init before playing.
func NewSpeakerSink(sampleRate beep.SampleRate) *SpeakerSink {
	return &SpeakerSink{sampleRate: sampleRate}
}

// Init opens the speaker with the given buffer latency.
func (s *SpeakerSink) Init(latency time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if err := speaker.Init(s.sampleRate, s.sampleRate.N(latency)); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Close shuts the speaker down.
func (s *SpeakerSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		speaker.Close()
		s.initialized = false
	}
}

// SampleRate implements Sink.
func (s *SpeakerSink) SampleRate() beep.SampleRate {
	return s.sampleRate
}

// Play implements Sink.
func (s *SpeakerSink) Play(st beep.Streamer) error {
	s.mu.Lock()
	ready := s.initialized
	s.mu.Unlock()
	if !ready {
		return ErrSinkUnavailable
	}
	speaker.Play(st)
	return nil
}

// OfflineSink collects streams instead of playing them; Flush drains them.
type OfflineSink struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	pending    []beep.Streamer
	fail       error
}

// NewOfflineSink returns an in-memory sink.
func NewOfflineSink(sampleRate beep.SampleRate) *OfflineSink {
	return &OfflineSink{sampleRate: sampleRate}
}

// FailWith makes subsequent Play calls return err (nil restores success).
func (o *OfflineSink) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail = err
}

// SampleRate implements Sink.
func (o *OfflineSink) SampleRate() beep.SampleRate {
	return o.sampleRate
}

// Play implements Sink.
func (o *OfflineSink) Play(s beep.Streamer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	o.pending = append(o.pending, s)
	return nil
}

// Pending returns the number of streams not yet flushed.
func (o *OfflineSink) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Flush drains every pending stream to completion and returns their samples.
func (o *OfflineSink) Flush() [][][2]float64 {
	o.mu.Lock()
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()

	out := make([][][2]float64, 0, len(pending))
	for _, s := range pending {
		out = append(out, drain(s, 0))
	}
	return out
}

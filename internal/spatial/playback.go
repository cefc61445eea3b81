package spatial

import (
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

var playbackSeq atomic.Uint64

// Playback is a live routed sound. The sink pulls samples from it on its own
// goroutine; Stop may be called from any goroutine, any number of times.
type Playback struct {
	id uint64

	mu          sync.Mutex
	src         beep.Streamer
	finished    bool
	interrupted bool

	done chan struct{}
}

func newPlayback(src beep.Streamer) *Playback {
	return &Playback{
		id:   playbackSeq.Add(1),
		src:  src,
		done: make(chan struct{}),
	}
}

// ID identifies the playback so stale end events can be ignored.
func (p *Playback) ID() uint64 {
	return p.id
}

// Done is closed once when the sound ends or is stopped.
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// Interrupted reports whether Stop ended the playback early.
func (p *Playback) Interrupted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interrupted
}

// Stop silences the playback. Stopping a finished playback is a no-op.
func (p *Playback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.interrupted = true
	p.finishLocked()
}

func (p *Playback) finishLocked() {
	p.finished = true
	p.src = nil
	close(p.done)
}

// Stream implements beep.Streamer.
func (p *Playback) Stream(samples [][2]float64) (n int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return 0, false
	}
	n, ok = p.src.Stream(samples)
	if !ok || n < len(samples) {
		p.finishLocked()
	}
	return n, ok || n > 0
}

// Err implements beep.Streamer.
func (p *Playback) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == nil {
		return nil
	}
	return p.src.Err()
}

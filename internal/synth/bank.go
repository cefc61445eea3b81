package synth

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/blindsound/internal/catalog"
)

// Bank lazily synthesizes and caches one buffer per category.
type Bank struct {
	sampleRate int
	rnd        *rand.Rand
	buffers    map[catalog.Sound]StereoBuffer
}

// NewBank returns a Bank seeded with the current time.
func NewBank(sampleRate int) *Bank {
	return NewBankWithSource(sampleRate, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewBankWithSource returns a Bank drawing texture noise from rnd.
func NewBankWithSource(sampleRate int, rnd *rand.Rand) *Bank {
	return &Bank{
		sampleRate: sampleRate,
		rnd:        rnd,
		buffers:    map[catalog.Sound]StereoBuffer{},
	}
}

// SampleRate returns the rate buffers are rendered at.
func (b *Bank) SampleRate() int {
	return b.sampleRate
}

// Get returns the cached buffer for sound, rendering it on first use.
// ok is false for values outside the catalog or an unusable sample rate.
func (b *Bank) Get(sound catalog.Sound) (StereoBuffer, bool) {
	if !sound.Valid() || b.sampleRate <= 0 {
		return StereoBuffer{}, false
	}
	if buf, ok := b.buffers[sound]; ok {
		return buf, true
	}
	buf := Synthesize(sound, b.sampleRate, b.rnd)
	b.buffers[sound] = buf
	return buf, true
}

// Preload renders every category up front.
func (b *Bank) Preload() {
	for _, s := range catalog.Sounds() {
		b.Get(s)
	}
}

package trainer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/blindsound/internal/catalog"
	"github.com/verte-zerg/blindsound/internal/generator"
	"github.com/verte-zerg/blindsound/internal/log"
	"github.com/verte-zerg/blindsound/internal/model"
	"github.com/verte-zerg/blindsound/internal/scoring"
	"github.com/verte-zerg/blindsound/internal/spatial"
	"github.com/verte-zerg/blindsound/internal/synth"
)

// PrePlayDelay separates drawing a source from starting its sound.
const PrePlayDelay = 300 * time.Millisecond

// ErrMissingBuffer is logged when the bank has no buffer for a sound.
var ErrMissingBuffer = errors.New("trainer: no buffer for sound")

// State is the phase of the current round.
type State int

// Round states.
const (
	Idle State = iota
	Armed
	Playing
	AwaitingGuess
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Playing:
		return "playing"
	case AwaitingGuess:
		return "awaiting guess"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Buffers supplies synthesized sounds.
type Buffers interface {
	Get(sound catalog.Sound) (synth.StereoBuffer, bool)
}

// Round describes a freshly armed round.
type Round struct {
	ID     uint64
	Source model.Point
	Delay  time.Duration
}

// Result is the outcome of a resolved round.
type Result struct {
	Source     model.Point
	Guess      model.Point
	DistancePx float64
	Meters     float64
	Correct    bool
	Threshold  float64
}

// Trainer drives the round lifecycle. Like Session it has a single owner; the
// only cross-goroutine signal is Playback.Done, which the owner observes and
// reports back through PlaybackEnded.
type Trainer struct {
	session *Session
	router  *spatial.Router
	buffers Buffers
	gen     *generator.Generator
	now     func() time.Time

	state     State
	roundID   uint64
	round     model.RoundState
	startedAt time.Time
	snapshot  model.Settings
	mode      model.Mode
	playback  *spatial.Playback
	result    *Result
}

// New returns an idle Trainer.
func New(session *Session, router *spatial.Router, buffers Buffers, gen *generator.Generator) *Trainer {
	return &Trainer{
		session: session,
		router:  router,
		buffers: buffers,
		gen:     gen,
		now:     time.Now,
		state:   Idle,
	}
}

// State returns the current phase.
func (t *Trainer) State() State {
	return t.state
}

// Round returns the ephemeral round data.
func (t *Trainer) Round() model.RoundState {
	return t.round
}

// RoundID identifies the current round; zero before the first one.
func (t *Trainer) RoundID() uint64 {
	return t.roundID
}

// Result returns the last resolved round, if the current round is resolved.
func (t *Trainer) Result() (Result, bool) {
	if t.result == nil {
		return Result{}, false
	}
	return *t.result, true
}

// Session returns the underlying session.
func (t *Trainer) Session() *Session {
	return t.session
}

// Arena returns the canvas geometry rounds are played on.
func (t *Trainer) Arena() model.Arena {
	return t.router.Arena()
}

// NewRound stops any live sound, clears the previous guess and draws a new
// source. The caller waits Round.Delay and then calls BeginPlayback.
func (t *Trainer) NewRound() Round {
	t.stopPlayback()
	t.snapshot = t.session.Settings()
	t.mode = t.session.Mode()
	source := t.gen.Source(t.router.Arena(), t.snapshot.Difficulty, t.mode)

	t.roundID++
	t.round = model.RoundState{Source: source, StatusFind: true}
	t.result = nil
	t.startedAt = t.now()
	t.state = Armed
	log.RoundStarted(t.roundID, string(t.mode), source.X, source.Y, source.Z)
	return Round{ID: t.roundID, Source: source, Delay: PrePlayDelay}
}

// BeginPlayback routes the round's sound once the pre-play delay elapsed.
// Stale round ids and calls outside Armed are ignored. A failure to play is
// logged and leaves the round guessable without sound.
func (t *Trainer) BeginPlayback(roundID uint64) (*spatial.Playback, bool) {
	if t.state != Armed || roundID != t.roundID {
		return nil, false
	}
	settings := t.session.Settings()
	settings.Difficulty = t.snapshot.Difficulty
	t.snapshot = settings
	buf, ok := t.buffers.Get(settings.Sound)
	if !ok {
		t.playbackFailed(settings.Sound, ErrMissingBuffer)
		return nil, false
	}
	pb, err := t.router.Route(buf, t.round.Source, settings, t.mode)
	if err != nil {
		t.playbackFailed(settings.Sound, err)
		return nil, false
	}
	t.playback = pb
	t.round.IsPlaying = true
	t.state = Playing
	return pb, true
}

func (t *Trainer) playbackFailed(sound catalog.Sound, err error) {
	log.PlaybackFailed(t.roundID, string(sound), err)
	t.playback = nil
	t.round.IsPlaying = false
	t.state = AwaitingGuess
}

// PlaybackEnded handles the end event of playback id. Events of earlier
// playbacks are ignored.
func (t *Trainer) PlaybackEnded(id uint64) {
	if t.state != Playing || t.playback == nil || t.playback.ID() != id {
		return
	}
	t.playback = nil
	t.round.IsPlaying = false
	t.state = AwaitingGuess
}

// Stop ends playback early. It is a no-op unless a sound is playing.
func (t *Trainer) Stop() {
	if t.state != Playing {
		return
	}
	t.stopPlayback()
	t.state = AwaitingGuess
}

func (t *Trainer) stopPlayback() {
	if t.playback != nil {
		t.playback.Stop()
		t.playback = nil
	}
	t.round.IsPlaying = false
}

// Guess scores p against the source. Only the first guess after playback is
// accepted; anything else returns ok=false and changes nothing.
func (t *Trainer) Guess(ctx context.Context, p model.Point) (Result, bool) {
	if t.state != AwaitingGuess || t.round.Guess != nil || t.round.IsPlaying {
		return Result{}, false
	}
	if t.mode == model.Mode2D {
		p = model.Pt(p.X, p.Y)
	} else {
		p = model.Pt3(p.X, p.Y, p.Z)
	}
	// The threshold uses the difficulty the round was drawn with; a change
	// made mid-round applies from the next round.
	difficulty := t.snapshot.Difficulty
	verdict := scoring.Score(p, t.round.Source, difficulty, t.mode, t.session.Stats())

	guess := p
	t.round.Guess = &guess
	t.round.ShowResult = true
	t.round.StatusFind = false
	t.result = &Result{
		Source:     t.round.Source,
		Guess:      p,
		DistancePx: verdict.DistancePx,
		Meters:     scoring.Meters(verdict.DistancePx),
		Correct:    verdict.Correct,
		Threshold:  difficulty.Threshold(),
	}
	t.state = Resolved

	t.session.RecordVerdict(ctx, verdict.Stats, model.RoundRecord{
		StartedAt:  t.startedAt,
		ResolvedAt: t.now(),
		Mode:       t.mode,
		Difficulty: difficulty,
		Obstacle:   t.snapshot.Obstacle,
		Sound:      t.snapshot.Sound,
		Source:     t.round.Source,
		Guess:      p,
		DistancePx: verdict.DistancePx,
		Correct:    verdict.Correct,
	})
	log.RoundResolved(t.roundID, string(t.mode), string(difficulty), verdict.DistancePx, verdict.Correct, verdict.Stats.CurrentStreak)
	return *t.result, true
}

// SetMode switches mode, abandoning the current round.
func (t *Trainer) SetMode(ctx context.Context, mode model.Mode) {
	if mode == t.session.Mode() {
		return
	}
	t.Reset()
	t.session.SetMode(ctx, mode)
}

// Reset abandons the current round and returns to Idle.
func (t *Trainer) Reset() {
	t.stopPlayback()
	t.round = model.RoundState{}
	t.result = nil
	t.state = Idle
}

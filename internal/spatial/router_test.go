package spatial

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/gopxl/beep/v2"

	"github.com/verte-zerg/blindsound/internal/catalog"
	"github.com/verte-zerg/blindsound/internal/model"
	"github.com/verte-zerg/blindsound/internal/synth"
)

const testRate = beep.SampleRate(8000)

func testBuffer(t *testing.T, sound catalog.Sound) synth.StereoBuffer {
	t.Helper()
	return synth.Synthesize(sound, int(testRate), rand.New(rand.NewSource(1)))
}

func energy(frames [][2]float64) (left, right float64) {
	for _, f := range frames {
		left += f[0] * f[0]
		right += f[1] * f[1]
	}
	return left, right
}

func TestPanIsClampedAndMonotonic(t *testing.T) {
	arena := model.DefaultArena()
	if got := Pan(arena.Center(), arena); got != 0 {
		t.Fatalf("expected center pan 0, got %v", got)
	}
	if got := Pan(0, arena); got != -1 {
		t.Fatalf("expected left edge clamped to -1, got %v", got)
	}
	if got := Pan(400, arena); got != 1 {
		t.Fatalf("expected right edge clamped to 1, got %v", got)
	}
	prev := math.Inf(-1)
	for x := 0.0; x <= 400; x += 5 {
		p := Pan(x, arena)
		if p < prev {
			t.Fatalf("pan decreased at x=%v", x)
		}
		prev = p
	}
	if got := Pan(275, arena); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("expected 0.5 at x=275, got %v", got)
	}
}

func TestDistanceGain(t *testing.T) {
	cases := []struct {
		z    float64
		want float64
	}{
		{0, 1},
		{0.5, 0.75},
		{-0.5, 0.75},
		{1, 0.5},
		{2, 0.3},
		{-10, 0.3},
	}
	for _, tc := range cases {
		if got := DistanceGain(tc.z); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("z=%v: expected %v, got %v", tc.z, tc.want, got)
		}
	}
}

func TestRenderPansTowardSource(t *testing.T) {
	buf := testBuffer(t, catalog.Kalimba)
	settings := model.DefaultSettings()
	arena := model.DefaultArena()

	right := Render(buf, model.Pt(350, 200), settings, model.Mode2D, arena, testRate)
	l, r := energy(right)
	if r <= l {
		t.Fatalf("expected right-heavy output, got left=%v right=%v", l, r)
	}
	left := Render(buf, model.Pt(50, 200), settings, model.Mode2D, arena, testRate)
	l, r = energy(left)
	if l <= r {
		t.Fatalf("expected left-heavy output, got left=%v right=%v", l, r)
	}
	if len(right) != buf.Len() {
		t.Fatalf("expected %d frames, got %d", buf.Len(), len(right))
	}
}

func TestMazeRendersLikeNoObstacle(t *testing.T) {
	buf := testBuffer(t, catalog.Piano)
	arena := model.DefaultArena()
	settings := model.DefaultSettings()
	pos := model.Pt(260, 140)

	plain := Render(buf, pos, settings, model.Mode2D, arena, testRate)
	settings.Obstacle = catalog.Maze
	maze := Render(buf, pos, settings, model.Mode2D, arena, testRate)
	if len(plain) != len(maze) {
		t.Fatalf("length mismatch %d vs %d", len(plain), len(maze))
	}
	for i := range plain {
		if plain[i] != maze[i] {
			t.Fatalf("frame %d differs: %v vs %v", i, plain[i], maze[i])
		}
	}

	settings.Obstacle = catalog.Wall
	wall := Render(buf, pos, settings, model.Mode2D, arena, testRate)
	same := true
	for i := range plain {
		if plain[i] != wall[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected wall filter to change the signal")
	}
}

func TestDepthAttenuatesOnlyIn3D(t *testing.T) {
	buf := testBuffer(t, catalog.Flute)
	arena := model.DefaultArena()
	settings := model.DefaultSettings()

	near := Render(buf, model.Pt3(200, 200, 0), settings, model.Mode3D, arena, testRate)
	far := Render(buf, model.Pt3(200, 200, 1), settings, model.Mode3D, arena, testRate)
	nl, _ := energy(near)
	fl, _ := energy(far)
	if ratio := fl / nl; math.Abs(ratio-0.25) > 1e-6 {
		t.Fatalf("expected energy ratio 0.25 for gain 0.5, got %v", ratio)
	}

	flat := Render(buf, model.Pt3(200, 200, 1), settings, model.Mode2D, arena, testRate)
	pl, _ := energy(flat)
	if math.Abs(pl-nl) > 1e-9 {
		t.Fatalf("expected no depth gain in 2D, got %v vs %v", pl, nl)
	}
}

func TestVolumeScalesOutput(t *testing.T) {
	buf := testBuffer(t, catalog.Bell)
	arena := model.DefaultArena()
	settings := model.DefaultSettings()
	settings.Volume = 0
	silent := Render(buf, model.Pt(200, 200), settings, model.Mode2D, arena, testRate)
	l, r := energy(silent)
	if l != 0 || r != 0 {
		t.Fatalf("expected silence at volume 0, got %v/%v", l, r)
	}
}

func TestRouteErrors(t *testing.T) {
	settings := model.DefaultSettings()
	router := NewRouter(nil, model.DefaultArena())
	if _, err := router.Route(testBuffer(t, catalog.Bell), model.Pt(1, 1), settings, model.Mode2D); !errors.Is(err, ErrSinkUnavailable) {
		t.Fatalf("expected ErrSinkUnavailable, got %v", err)
	}

	sink := NewOfflineSink(testRate)
	router = NewRouter(sink, model.DefaultArena())
	if _, err := router.Route(synth.StereoBuffer{}, model.Pt(1, 1), settings, model.Mode2D); !errors.Is(err, ErrEmptyBuffer) {
		t.Fatalf("expected ErrEmptyBuffer, got %v", err)
	}

	boom := errors.New("device lost")
	sink.FailWith(boom)
	if _, err := router.Route(testBuffer(t, catalog.Bell), model.Pt(1, 1), settings, model.Mode2D); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped sink error, got %v", err)
	}
	if sink.Pending() != 0 {
		t.Fatalf("expected nothing queued after failure")
	}
}

func TestSpeakerSinkRequiresInit(t *testing.T) {
	sink := NewSpeakerSink(testRate)
	if err := sink.Play(beep.Silence(10)); !errors.Is(err, ErrSinkUnavailable) {
		t.Fatalf("expected ErrSinkUnavailable, got %v", err)
	}
}

func TestPlaybackEndsNaturally(t *testing.T) {
	sink := NewOfflineSink(testRate)
	router := NewRouter(sink, model.DefaultArena())
	buf := testBuffer(t, catalog.Marimba)
	pb, err := router.Route(buf, model.Pt(200, 200), model.DefaultSettings(), model.Mode2D)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	select {
	case <-pb.Done():
		t.Fatalf("expected playback to be live before draining")
	default:
	}
	out := sink.Flush()
	if len(out) != 1 || len(out[0]) != buf.Len() {
		t.Fatalf("unexpected render shape")
	}
	select {
	case <-pb.Done():
	default:
		t.Fatalf("expected done after drain")
	}
	if pb.Interrupted() {
		t.Fatalf("natural end reported as interrupted")
	}
}

func TestPlaybackStopIsIdempotent(t *testing.T) {
	sink := NewOfflineSink(testRate)
	router := NewRouter(sink, model.DefaultArena())
	first, err := router.Route(testBuffer(t, catalog.Ocean), model.Pt(200, 200), model.DefaultSettings(), model.Mode2D)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	first.Stop()
	first.Stop()
	if !first.Interrupted() {
		t.Fatalf("expected interrupted playback")
	}
	<-first.Done()

	second, err := router.Route(testBuffer(t, catalog.Bell), model.Pt(200, 200), model.DefaultSettings(), model.Mode2D)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if second.ID() == first.ID() {
		t.Fatalf("expected distinct playback ids")
	}
	out := sink.Flush()
	if len(out[0]) != 0 {
		t.Fatalf("expected stopped playback to produce no samples, got %d", len(out[0]))
	}
	if len(out[1]) == 0 {
		t.Fatalf("expected second playback to produce samples")
	}
}

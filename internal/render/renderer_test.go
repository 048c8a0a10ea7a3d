package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"testing"
	"time"

	"ripplegrid/internal/clock"
	"ripplegrid/internal/expfast"
	"ripplegrid/internal/grid"
	"ripplegrid/internal/influence"
	"ripplegrid/internal/palette"
	"ripplegrid/internal/wavepool"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	clock    *clock.Mock
	pool     *wavepool.Pool
	geometry *grid.Geometry
	palette  *palette.Palette
	engine   *influence.Engine
	renderer *Renderer
}

func newFixture(t *testing.T, eval influence.Evaluator, logger *log.Logger) *fixture {
	t.Helper()
	clk := clock.NewMock(epoch)
	pool, err := wavepool.New(wavepool.DefaultCapacity, wavepool.DefaultMaxAge, clk)
	if err != nil {
		t.Fatal(err)
	}
	geom, err := grid.New(grid.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	geom.Resize(grid.Viewport{Width: 200, Height: 120, DeviceScale: 1})
	pal, err := palette.New(palette.DefaultHighSize)
	if err != nil {
		t.Fatal(err)
	}
	engine := influence.New(expfast.MustNew(expfast.DefaultSize, expfast.DefaultMax), influence.DefaultParams())
	r, err := New(DefaultConfig(), Deps{
		Pool:      pool,
		Geometry:  geom,
		Palette:   pal,
		Engine:    engine,
		Evaluator: eval,
		Clock:     clk,
		Logger:    logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{clock: clk, pool: pool, geometry: geom, palette: pal, engine: engine, renderer: r}
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec := NewRecorder()
	r := f.renderer

	if r.State() != Idle {
		t.Fatalf("initial state = %v", r.State())
	}
	if r.Tick(rec, epoch) {
		t.Fatal("idle renderer drew a frame")
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !r.Tick(rec, epoch) {
		t.Fatal("running renderer skipped a frame")
	}
	r.Stop()
	if r.Tick(rec, epoch) {
		t.Fatal("stopped renderer drew a frame")
	}
	if err := r.Start(); !errors.Is(err, ErrStopped) {
		t.Fatalf("restart error = %v, want ErrStopped", err)
	}
	if rec.Clears() != 1 {
		t.Fatalf("clears = %d, want 1", rec.Clears())
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(DefaultConfig(), Deps{}); err == nil {
		t.Fatal("expected error for missing collaborators")
	}
}

func TestStaticPathSingleFill(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec := NewRecorder()
	_ = f.renderer.Start()
	f.renderer.Tick(rec, epoch)

	frame := rec.Frame()
	if frame.Fills() != 1 {
		t.Fatalf("fills = %d, want 1", frame.Fills())
	}
	points := f.geometry.Points()
	b := frame.Batches[0]
	if b.Color != f.palette.Static(true) {
		t.Fatalf("static color = %v", b.Color)
	}
	if len(b.Dots) != len(points) {
		t.Fatalf("dots = %d, want %d", len(b.Dots), len(points))
	}
	for i, d := range b.Dots {
		if d.X != points[i].OX || d.Y != points[i].OY || d.R != 2.2 {
			t.Fatalf("dot %d = %+v, want anchor (%v,%v) r=2.2", i, d, points[i].OX, points[i].OY)
		}
	}
}

func TestStaticPathUsesTheme(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.renderer.dark = func() bool { return false }
	rec := NewRecorder()
	_ = f.renderer.Start()
	f.renderer.Tick(rec, epoch)
	if got := rec.Frame().Batches[0].Color; got != f.palette.Static(false) {
		t.Fatalf("light static color = %v", got)
	}
}

func dotSignature(c palette.Color, d Dot) string {
	return fmt.Sprintf("%s@%.9f,%.9f,%.9f", c, d.X, d.Y, d.R)
}

func TestBatchingMatchesIndividualFills(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.pool.Emit(100, 60, 1.2, 1.1, 12.6)
	f.pool.Emit(30, 20, 0.8, 1.3, 12.6)
	now := epoch.Add(60 * time.Millisecond)

	// Expected: every dot evaluated and filled on its own.
	points := append([]grid.Point(nil), f.geometry.Points()...)
	waves := f.pool.Snapshot(now, nil)
	var want []string
	keys := make(map[BatchKey]bool)
	for i := range points {
		dx, dy, _ := f.engine.Displace(points[i].OX, points[i].OY, waves, now)
		inf := f.engine.Influence(dx, dy)
		x, y := points[i].Smooth(dx, dy, 0.7)
		radius := 2.2 + inf*2
		key, c := f.palette.ColorFor(inf, true)
		keys[KeyFor(key, radius)] = true
		want = append(want, dotSignature(c, Dot{X: x, Y: y, R: radius}))
	}

	rec := NewRecorder()
	_ = f.renderer.Start()
	f.renderer.Tick(rec, now)
	frame := rec.Frame()

	var got []string
	for _, b := range frame.Batches {
		for _, d := range b.Dots {
			got = append(got, dotSignature(b.Color, d))
		}
	}
	sort.Strings(want)
	sort.Strings(got)
	if len(got) != len(want) {
		t.Fatalf("dots drawn = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dot mismatch:\n got %s\nwant %s", got[i], want[i])
		}
	}
	if frame.Fills() != len(keys) {
		t.Fatalf("fills = %d, want one per distinct bucket (%d)", frame.Fills(), len(keys))
	}
	if frame.Fills() < 2 {
		t.Fatalf("expected the animated path to produce several buckets, got %d", frame.Fills())
	}
}

func TestBatchesShareRoundedRadius(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.pool.Emit(100, 60, 1.5, 1.0, 12.6)
	rec := NewRecorder()
	_ = f.renderer.Start()
	f.renderer.Tick(rec, epoch.Add(40*time.Millisecond))

	for _, b := range rec.Frame().Batches {
		first := KeyFor(palette.Key{}, b.Dots[0].R).Radius
		for _, d := range b.Dots[1:] {
			if KeyFor(palette.Key{}, d.R).Radius != first {
				t.Fatalf("batch mixes radii %v and %v", b.Dots[0].R, d.R)
			}
		}
	}
}

func TestExpiredWaveContributesNothing(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.pool.Emit(100, 60, 1, 1, 12.6)
	now := epoch.Add(3 * time.Second)
	f.clock.Set(now)

	rec := NewRecorder()
	_ = f.renderer.Start()
	f.renderer.Tick(rec, now)

	if rec.Frame().Fills() != 1 {
		t.Fatalf("fills = %d, want the single static fill", rec.Frame().Fills())
	}
	if f.pool.Len() != 0 {
		t.Fatalf("expired wave still active after tick: %d", f.pool.Len())
	}
}

func TestCleanupRunsEveryTick(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.pool.Emit(100, 60, 1, 1, 12.6)
	rec := NewRecorder()
	_ = f.renderer.Start()

	f.renderer.Tick(rec, epoch.Add(time.Second))
	if f.pool.Len() != 1 {
		t.Fatalf("live wave retired early")
	}
	f.renderer.Tick(rec, epoch.Add(2801*time.Millisecond))
	if f.pool.Len() != 0 {
		t.Fatalf("wave past max age survived the tick")
	}
	stats := f.renderer.Monitor().Stats(epoch.Add(2801 * time.Millisecond))
	if stats.ActiveWaves != 0 {
		t.Fatalf("monitor active waves = %d", stats.ActiveWaves)
	}
}

func TestZeroPointsIsNoOp(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.geometry.Resize(grid.Viewport{})
	f.pool.Emit(10, 10, 1, 1, 12.6)
	rec := NewRecorder()
	_ = f.renderer.Start()
	if !f.renderer.Tick(rec, epoch) {
		t.Fatal("tick reported no frame")
	}
	if rec.Clears() != 1 || rec.Frame().Fills() != 0 {
		t.Fatalf("clears=%d fills=%d, want 1/0", rec.Clears(), rec.Frame().Fills())
	}
}

type failingEvaluator struct{ calls int }

func (e *failingEvaluator) Evaluate(_ []grid.Point, _ []wavepool.Wave, _ time.Time, _ []influence.Sample) (int, error) {
	e.calls++
	return 0, errors.New("device lost")
}

func TestEvaluatorFailureFallsBackToCPU(t *testing.T) {
	var buf bytes.Buffer
	failing := &failingEvaluator{}
	f := newFixture(t, failing, log.New(&buf, "", 0))
	f.pool.Emit(100, 60, 1, 1, 12.6)
	rec := NewRecorder()
	_ = f.renderer.Start()

	for i := 1; i <= 3; i++ {
		f.renderer.Tick(rec, epoch.Add(time.Duration(i)*30*time.Millisecond))
		if rec.Frame().Dots() != len(f.geometry.Points()) {
			t.Fatalf("tick %d dropped dots", i)
		}
	}
	if failing.calls != 1 {
		t.Fatalf("failing evaluator called %d times, want 1", failing.calls)
	}
	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Fatalf("logged %d lines, want 1:\n%s", n, buf.String())
	}
}

func TestSetDotRadius(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.renderer.SetDotRadius(3)
	rec := NewRecorder()
	_ = f.renderer.Start()
	f.renderer.Tick(rec, epoch)
	if r := rec.Frame().Batches[0].Dots[0].R; r != 3 {
		t.Fatalf("radius = %v, want 3", r)
	}
}

func TestFrameReplay(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.pool.Emit(100, 60, 1, 1, 12.6)
	first := NewRecorder()
	second := NewRecorder()
	_ = f.renderer.Start()
	f.renderer.Tick(Tee(first, second), epoch.Add(50*time.Millisecond))

	replayed := NewRecorder()
	first.Frame().Replay(replayed)
	a, b := second.Frame(), replayed.Frame()
	if a.Fills() != b.Fills() || a.Dots() != b.Dots() {
		t.Fatalf("replay differs: %d/%d vs %d/%d", a.Fills(), a.Dots(), b.Fills(), b.Dots())
	}
	for i := range a.Batches {
		if a.Batches[i].Color != b.Batches[i].Color {
			t.Fatalf("batch %d color differs", i)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, nil, nil)
	_ = f.renderer.Start()
	ticks := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	presented := 0
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, f.renderer, ticks, NewRecorder(), func() { presented++ })
	}()
	ticks <- epoch
	ticks <- epoch.Add(16 * time.Millisecond)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
	if presented != 2 {
		t.Fatalf("presented %d frames, want 2", presented)
	}
}

type stoppingTicker struct{ state State }

func (s *stoppingTicker) Tick(Surface, time.Time) bool {
	s.state = Stopped
	return false
}

func (s *stoppingTicker) State() State { return s.state }

func TestRunReturnsWhenStopped(t *testing.T) {
	ticks := make(chan time.Time, 1)
	ticks <- epoch
	if err := Run(context.Background(), &stoppingTicker{state: Running}, ticks, NewRecorder(), nil); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestRunReturnsWhenTicksClose(t *testing.T) {
	ticks := make(chan time.Time)
	close(ticks)
	if err := Run(context.Background(), &stoppingTicker{state: Running}, ticks, NewRecorder(), nil); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

// steppingClock advances by step on every read.
type steppingClock struct {
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func TestFrameTimeMeasuredOnRendererClock(t *testing.T) {
	f := newFixture(t, nil, nil)
	clk := &steppingClock{now: epoch.Add(time.Hour), step: 4 * time.Millisecond}
	r, err := New(DefaultConfig(), Deps{
		Pool:     f.pool,
		Geometry: f.geometry,
		Palette:  f.palette,
		Engine:   f.engine,
		Clock:    clk,
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = r.Start()
	f.pool.Emit(100, 60, 1, 1, 12.6)

	// The caller's timestamp is an hour behind the clock; only the clock
	// reads around the frame count.
	r.Tick(NewRecorder(), epoch.Add(10*time.Millisecond))
	if got := r.Monitor().Stats(clk.now).FrameTimeMs; got != 4 {
		t.Fatalf("frame time = %v ms, want 4", got)
	}
}

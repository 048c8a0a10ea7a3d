// Package ripple wires the wave pool, lattice, palette and renderer into one
// field that hosts feed with pointer events and draw every frame.
package ripple

import (
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"ripplegrid/internal/clock"
	"ripplegrid/internal/expfast"
	"ripplegrid/internal/grid"
	"ripplegrid/internal/influence"
	"ripplegrid/internal/palette"
	"ripplegrid/internal/perf"
	"ripplegrid/internal/render"
	"ripplegrid/internal/wavepool"
)

// ThemeProvider reports the host color scheme.
type ThemeProvider interface {
	IsDarkMode() bool
}

// ThemeFunc adapts a function to ThemeProvider.
type ThemeFunc func() bool

func (f ThemeFunc) IsDarkMode() bool { return f() }

// Option customizes a Field.
type Option func(*Field)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(f *Field) { f.clock = c }
}

// WithRand replaces the source of speed jitter. fn returns values in [0, 1).
func WithRand(fn func() float64) Option {
	return func(f *Field) { f.rand = fn }
}

// WithEvaluator runs the influence model on e instead of the CPU engine.
func WithEvaluator(e influence.Evaluator) Option {
	return func(f *Field) { f.evaluator = e }
}

// WithThemeProvider sets the color scheme source. The default is dark.
func WithThemeProvider(t ThemeProvider) Option {
	return func(f *Field) { f.theme = t }
}

// WithLogger sets the destination for lifecycle messages.
func WithLogger(l *log.Logger) Option {
	return func(f *Field) { f.logger = l }
}

// Field is a ripple dot grid. All methods are safe for concurrent use; the
// pool and lattice are only ever touched under one lock, so every tick sees
// a consistent wave set.
type Field struct {
	mu sync.Mutex

	cfg       Config
	clock     clock.Clock
	rand      func() float64
	theme     ThemeProvider
	logger    *log.Logger
	evaluator influence.Evaluator

	pool     *wavepool.Pool
	geometry *grid.Geometry
	engine   *influence.Engine
	renderer *render.Renderer
	recorder *render.Recorder

	viewport    grid.Viewport
	hasViewport bool
	resize      *Debouncer[grid.Viewport]
}

// New builds a field from cfg. The field starts Idle with an empty lattice.
func New(cfg Config, opts ...Option) (*Field, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	f := &Field{cfg: cfg}
	for _, opt := range opts {
		opt(f)
	}
	if f.clock == nil {
		f.clock = clock.System{}
	}
	if f.rand == nil {
		f.rand = rand.Float64
	}
	if f.theme == nil {
		f.theme = ThemeFunc(func() bool { return true })
	}
	if f.logger == nil {
		f.logger = log.New(io.Discard, "", 0)
	}

	table, err := expfast.New(cfg.TableSize, cfg.TableMax)
	if err != nil {
		return nil, fmt.Errorf("building exponential table: %w", err)
	}
	f.pool, err = wavepool.New(cfg.PoolCapacity, cfg.MaxAge, f.clock)
	if err != nil {
		return nil, fmt.Errorf("building wave pool: %w", err)
	}
	f.geometry, err = grid.New(cfg.Grid)
	if err != nil {
		return nil, fmt.Errorf("building grid geometry: %w", err)
	}
	pal, err := palette.New(cfg.PaletteSize)
	if err != nil {
		return nil, fmt.Errorf("building palette: %w", err)
	}
	f.engine = influence.New(table, cfg.Influence)
	f.recorder = render.NewRecorder()
	f.resize = NewDebouncer[grid.Viewport](cfg.ResizeDebounce)

	f.renderer, err = render.New(cfg.Render, render.Deps{
		Pool:      f.pool,
		Geometry:  f.geometry,
		Palette:   pal,
		Engine:    f.engine,
		Evaluator: f.evaluator,
		Monitor:   perf.NewMonitor(f.clock.Now(), 0),
		Clock:     f.clock,
		Dark:      f.theme.IsDarkMode,
		Logger:    f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building renderer: %w", err)
	}
	return f, nil
}

// PushWave emits a ripple at (x, y). power is clamped into the configured
// range; beyond MaxActive live waves the oldest are retired.
func (f *Field) PushWave(x, y, power float64) {
	if !(power >= f.cfg.MinPower) {
		power = f.cfg.MinPower
	}
	if power > f.cfg.MaxPower {
		power = f.cfg.MaxPower
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	speed := f.cfg.SpeedBase + f.rand()*f.cfg.SpeedJitter
	sigma := f.geometry.Spacing() * f.cfg.SigmaFactor
	f.pool.Emit(x, y, power, speed, sigma)
	for f.pool.Len() > f.cfg.MaxActive {
		f.pool.RetireOldest()
	}
}

// Resize rebuilds the lattice and color tables for v immediately.
func (f *Field) Resize(v grid.Viewport) grid.Layout {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resizeLocked(v)
}

func (f *Field) resizeLocked(v grid.Viewport) grid.Layout {
	f.viewport = v
	f.hasViewport = true
	layout := f.geometry.Resize(v)
	// Size was validated in New.
	if pal, err := palette.New(f.cfg.PaletteSize); err == nil {
		f.renderer.SetPalette(pal)
	}
	f.logger.Printf("grid resized: %dx%d @%.2gx, spacing %.0f, %d dots",
		layout.Width, layout.Height, layout.DPR, layout.Spacing, len(layout.Points))
	return layout
}

// RequestResize schedules a resize to v once no newer request arrives within
// the debounce delay. The current lattice keeps rendering until then.
func (f *Field) RequestResize(v grid.Viewport, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resize.Request(v, now)
}

// ApplyPendingResize performs a debounced resize whose delay has elapsed.
func (f *Field) ApplyPendingResize(now time.Time) (grid.Layout, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applyPendingLocked(now)
}

func (f *Field) applyPendingLocked(now time.Time) (grid.Layout, bool) {
	v, ok := f.resize.Ready(now)
	if !ok {
		return grid.Layout{}, false
	}
	return f.resizeLocked(v), true
}

// SetSpacing changes the base spacing and re-runs the last resize.
func (f *Field) SetSpacing(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.geometry.SetBaseSpacing(v); err != nil {
		return err
	}
	if f.hasViewport {
		f.resizeLocked(f.viewport)
	}
	return nil
}

// SetDotRadius changes the resting dot radius.
func (f *Field) SetDotRadius(v float64) error {
	if !(v > 0) {
		return fmt.Errorf("dot radius must be positive: got %v", v)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renderer.SetDotRadius(v)
	return nil
}

// IsDarkMode consults the theme provider.
func (f *Field) IsDarkMode() bool { return f.theme.IsDarkMode() }

// Layout returns the current lattice.
func (f *Field) Layout() grid.Layout {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.geometry.Layout()
}

// ActiveWaves returns the number of live waves.
func (f *Field) ActiveWaves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pool.Len()
}

// Performance returns the latest frame statistics.
func (f *Field) Performance() perf.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renderer.Monitor().Stats(f.clock.Now())
}

// FrameTimes returns a plot of recent frame times.
func (f *Field) FrameTimes(width, height int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renderer.Monitor().Sparkline(width, height)
}

// Start begins rendering.
func (f *Field) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.renderer.Start(); err != nil {
		return err
	}
	f.logger.Printf("renderer %s", f.renderer.State())
	return nil
}

// Stop ends rendering for good.
func (f *Field) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renderer.Stop()
	f.logger.Printf("renderer %s", f.renderer.State())
}

// State reports the renderer lifecycle state.
func (f *Field) State() render.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renderer.State()
}

// Draw renders one frame onto s at the field clock's current time.
func (f *Field) Draw(s render.Surface) bool {
	return f.Tick(s, f.clock.Now())
}

// Tick applies any due resize and renders one frame at now.
func (f *Field) Tick(s render.Surface, now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyPendingLocked(now)
	if f.renderer.State() != render.Running {
		return false
	}
	return f.renderer.Tick(render.Tee(s, f.recorder), now)
}

// LastFrame returns the fills of the most recent frame.
func (f *Field) LastFrame() render.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recorder.Frame()
}

// Package render drives the per-frame loop: evaluate the wave field, pick
// colors, group dots that look identical and fill each group once.
package render

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"time"

	"ripplegrid/internal/clock"
	"ripplegrid/internal/grid"
	"ripplegrid/internal/influence"
	"ripplegrid/internal/palette"
	"ripplegrid/internal/perf"
	"ripplegrid/internal/wavepool"
)

// State is the renderer lifecycle.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// ErrStopped is returned when starting a renderer that was torn down.
var ErrStopped = errors.New("renderer stopped")

// Config holds the drawing constants.
type Config struct {
	DotRadius    float64
	RadiusGain   float64
	SmoothFactor float64
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		DotRadius:    2.2,
		RadiusGain:   2,
		SmoothFactor: 0.7,
	}
}

// BatchKey identifies dots that render identically: same palette bucket and
// same radius to one decimal, stored in tenths.
type BatchKey struct {
	Color  palette.Key
	Radius int32
}

// KeyFor builds the batch key of a dot.
func KeyFor(k palette.Key, radius float64) BatchKey {
	return BatchKey{Color: k, Radius: int32(math.Round(radius * 10))}
}

// Deps are the collaborators a Renderer draws from. Engine is required and
// doubles as the fallback when Evaluator fails.
type Deps struct {
	Pool      *wavepool.Pool
	Geometry  *grid.Geometry
	Palette   *palette.Palette
	Engine    *influence.Engine
	Evaluator influence.Evaluator
	Monitor   *perf.Monitor
	Clock     clock.Clock
	Dark      func() bool
	Logger    *log.Logger
}

type batch struct {
	color palette.Color
	dots  []Dot
}

// Renderer turns the wave pool and lattice into fills. It is not safe for
// concurrent use; callers serialize Tick with any pool or geometry change.
type Renderer struct {
	cfg   Config
	state State

	pool     *wavepool.Pool
	geometry *grid.Geometry
	palette  *palette.Palette
	engine   *influence.Engine
	eval     influence.Evaluator
	monitor  *perf.Monitor
	clock    clock.Clock
	dark     func() bool
	logger   *log.Logger

	waves   []wavepool.Wave
	samples []influence.Sample
	index   map[BatchKey]int
	batches []batch
	static  []Dot
}

// New wires a renderer in the Idle state.
func New(cfg Config, d Deps) (*Renderer, error) {
	switch {
	case d.Pool == nil:
		return nil, errors.New("renderer needs a wave pool")
	case d.Geometry == nil:
		return nil, errors.New("renderer needs a grid geometry")
	case d.Palette == nil:
		return nil, errors.New("renderer needs a palette")
	case d.Engine == nil:
		return nil, errors.New("renderer needs an influence engine")
	}
	r := &Renderer{
		cfg:      cfg,
		pool:     d.Pool,
		geometry: d.Geometry,
		palette:  d.Palette,
		engine:   d.Engine,
		eval:     d.Evaluator,
		monitor:  d.Monitor,
		clock:    d.Clock,
		dark:     d.Dark,
		logger:   d.Logger,
		index:    make(map[BatchKey]int),
	}
	if r.eval == nil {
		r.eval = r.engine
	}
	if r.clock == nil {
		r.clock = clock.System{}
	}
	if r.monitor == nil {
		r.monitor = perf.NewMonitor(r.clock.Now(), 0)
	}
	if r.dark == nil {
		r.dark = func() bool { return true }
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard, "", 0)
	}
	return r, nil
}

// State reports the lifecycle state.
func (r *Renderer) State() State { return r.state }

// Start moves an idle renderer to Running. Starting a running renderer is a
// no-op; a stopped one cannot be restarted.
func (r *Renderer) Start() error {
	switch r.state {
	case Stopped:
		return ErrStopped
	case Idle:
		r.state = Running
	}
	return nil
}

// Stop ends the frame loop.
func (r *Renderer) Stop() { r.state = Stopped }

// Config returns the drawing constants.
func (r *Renderer) Config() Config { return r.cfg }

// SetDotRadius changes the base radius from the next tick.
func (r *Renderer) SetDotRadius(v float64) { r.cfg.DotRadius = v }

// SetPalette swaps the color tables from the next tick.
func (r *Renderer) SetPalette(p *palette.Palette) {
	if p != nil {
		r.palette = p
	}
}

// Monitor returns the performance monitor fed by Tick.
func (r *Renderer) Monitor() *perf.Monitor { return r.monitor }

// Tick renders one frame at now onto s while Running and reports whether it
// drew.
func (r *Renderer) Tick(s Surface, now time.Time) bool {
	if r.state != Running {
		return false
	}
	r.frame(s, now)
	return true
}

func (r *Renderer) frame(s Surface, now time.Time) {
	start := r.clock.Now()
	s.Clear()
	dark := r.dark()
	points := r.geometry.Points()

	ops := 0
	if len(points) > 0 {
		r.waves = r.pool.Snapshot(now, r.waves[:0])
		if len(r.waves) == 0 {
			r.drawStatic(s, points, dark)
		} else {
			ops = r.drawAnimated(s, points, now, dark)
		}
	}

	r.pool.Cleanup(now)
	r.monitor.Record(start, r.clock.Now(), ops, r.pool.Len(), r.pool.Utilization())
}

func (r *Renderer) drawStatic(s Surface, points []grid.Point, dark bool) {
	dots := r.static[:0]
	for i := range points {
		dots = append(dots, Dot{X: points[i].OX, Y: points[i].OY, R: r.cfg.DotRadius})
	}
	r.static = dots
	s.FillDots(r.palette.Static(dark), dots)
}

func (r *Renderer) drawAnimated(s Surface, points []grid.Point, now time.Time, dark bool) int {
	if cap(r.samples) < len(points) {
		r.samples = make([]influence.Sample, len(points))
	}
	samples := r.samples[:len(points)]
	ops := r.evaluate(points, now, samples)

	clear(r.index)
	r.batches = r.batches[:0]
	for i := range points {
		smp := samples[i]
		x, y := points[i].Smooth(smp.DX, smp.DY, r.cfg.SmoothFactor)
		radius := r.cfg.DotRadius + smp.Influence*r.cfg.RadiusGain
		key, c := r.palette.ColorFor(smp.Influence, dark)

		bk := KeyFor(key, radius)
		idx, ok := r.index[bk]
		if !ok {
			idx = r.newBatch(c)
			r.index[bk] = idx
		}
		r.batches[idx].dots = append(r.batches[idx].dots, Dot{X: x, Y: y, R: radius})
	}
	for _, b := range r.batches {
		s.FillDots(b.color, b.dots)
	}
	return ops
}

// newBatch appends a group, reusing the dot storage of earlier frames.
func (r *Renderer) newBatch(c palette.Color) int {
	idx := len(r.batches)
	if idx < cap(r.batches) {
		r.batches = r.batches[:idx+1]
		r.batches[idx].color = c
		r.batches[idx].dots = r.batches[idx].dots[:0]
		return idx
	}
	r.batches = append(r.batches, batch{color: c})
	return idx
}

// evaluate runs the configured evaluator. A failing evaluator is replaced by
// the CPU engine for the rest of the run.
func (r *Renderer) evaluate(points []grid.Point, now time.Time, out []influence.Sample) int {
	ops, err := r.eval.Evaluate(points, r.waves, now, out)
	if err == nil {
		return ops
	}
	r.logger.Printf("influence evaluator failed, using CPU engine: %v", err)
	r.eval = r.engine
	ops, _ = r.engine.Evaluate(points, r.waves, now, out)
	return ops
}

// Ticker is anything that renders one frame per call.
type Ticker interface {
	Tick(s Surface, now time.Time) bool
	State() State
}

// Run drives t from ticks for hosts without a display-driven loop. present is
// called after every drawn frame. Run returns when ctx is done, ticks is
// closed or t is stopped.
func Run(ctx context.Context, t Ticker, ticks <-chan time.Time, s Surface, present func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now, ok := <-ticks:
			if !ok {
				return nil
			}
			if t.Tick(s, now) {
				if present != nil {
					present()
				}
				continue
			}
			if t.State() == Stopped {
				return nil
			}
		}
	}
}

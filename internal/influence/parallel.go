package influence

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"ripplegrid/internal/grid"
	"ripplegrid/internal/wavepool"
)

// minPointsPerWorker keeps small lattices on the calling goroutine.
const minPointsPerWorker = 256

// ErrClosed is returned by a Parallel evaluator after Close.
var ErrClosed = errors.New("parallel evaluator closed")

// span is a half-open range of point indices.
type span struct{ start, end int }

// Parallel spreads Engine evaluation over persistent worker goroutines. The
// workers sleep on a condition variable and wake once per frame.
type Parallel struct {
	engine  *Engine
	workers int

	mu      sync.Mutex
	cond    *sync.Cond
	step    int
	pending int
	closed  bool
	spans   []span
	ops     []int

	points []grid.Point
	waves  []wavepool.Wave
	now    time.Time
	out    []Sample
}

var _ Evaluator = (*Parallel)(nil)

// NewParallel starts workers goroutines evaluating with e. workers < 1 uses
// GOMAXPROCS.
func NewParallel(e *Engine, workers int) *Parallel {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Parallel{
		engine:  e,
		workers: workers,
		spans:   make([]span, workers),
		ops:     make([]int, workers),
	}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		go p.workerLoop(i)
	}
	return p
}

// Workers returns the number of worker goroutines.
func (p *Parallel) Workers() int { return p.workers }

// Evaluate fills out for points, splitting the lattice into one contiguous
// span per worker.
func (p *Parallel) Evaluate(points []grid.Point, waves []wavepool.Wave, now time.Time, out []Sample) (int, error) {
	if len(points) < p.workers*minPointsPerWorker || p.workers == 1 {
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return 0, ErrClosed
		}
		return p.engine.Evaluate(points, waves, now, out)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	p.points, p.waves, p.now, p.out = points, waves, now, out
	assignSpans(len(points), p.spans)
	p.pending = p.workers
	p.step++
	p.cond.Broadcast()
	// Workers always settle their span, even when Close lands mid-frame, so
	// out is untouched once this returns.
	for p.pending > 0 {
		p.cond.Wait()
	}
	p.points, p.waves, p.out = nil, nil, nil
	if p.closed {
		return 0, ErrClosed
	}

	total := 0
	for _, n := range p.ops {
		total += n
	}
	return total, nil
}

func (p *Parallel) workerLoop(index int) {
	lastStep := 0
	p.mu.Lock()
	for {
		for p.step == lastStep && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			if p.step != lastStep {
				p.finishLocked(index, 0)
			}
			p.mu.Unlock()
			return
		}
		lastStep = p.step
		sp := p.spans[index]
		points, waves, now, out := p.points, p.waves, p.now, p.out
		p.mu.Unlock()

		ops := 0
		for i := sp.start; i < sp.end; i++ {
			dx, dy, n := p.engine.Displace(points[i].OX, points[i].OY, waves, now)
			out[i] = Sample{DX: dx, DY: dy, Influence: p.engine.Influence(dx, dy)}
			ops += n
		}

		p.mu.Lock()
		p.finishLocked(index, ops)
	}
}

// finishLocked reports one worker's span as done. p.mu must be held.
func (p *Parallel) finishLocked(index, ops int) {
	p.ops[index] = ops
	p.pending--
	if p.pending == 0 {
		p.cond.Broadcast()
	}
}

// Close stops the workers. An Evaluate in flight waits for every span to
// settle and then fails with ErrClosed, as do later calls.
func (p *Parallel) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// assignSpans splits n points into len(spans) contiguous ranges whose sizes
// differ by at most one.
func assignSpans(n int, spans []span) {
	workers := len(spans)
	base, extra := n/workers, n%workers
	start := 0
	for i := range spans {
		size := base
		if i < extra {
			size++
		}
		spans[i] = span{start: start, end: start + size}
		start += size
	}
}

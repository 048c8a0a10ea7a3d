// Package wavepool keeps a bounded, recycled set of ripple emitters.
//
// A Pool never allocates beyond its capacity: when every slot is in use the
// oldest active wave is reclaimed for the new emission. Expiry happens only
// through Cleanup, which the renderer calls once per frame.
package wavepool

import (
	"errors"
	"fmt"
	"time"

	"ripplegrid/internal/clock"
)

// Defaults taken from the reference tuning.
const (
	DefaultCapacity = 20
	DefaultMaxAge   = 2800 * time.Millisecond
)

var (
	// ErrInvalidCapacity reports a pool that could never hold a wave.
	ErrInvalidCapacity = errors.New("wave pool capacity must be positive")
	// ErrInvalidMaxAge reports a non-positive expiry age.
	ErrInvalidMaxAge = errors.New("wave max age must be positive")
)

// Wave is a single ripple emitter. Its age is always derived from Created.
type Wave struct {
	X, Y    float64
	Created time.Time
	Power   float64
	Speed   float64
	Sigma   float64
	InUse   bool

	slot int
}

// Age returns the wave age at now in seconds, never negative.
func (w *Wave) Age(now time.Time) float64 {
	age := now.Sub(w.Created).Seconds()
	if age < 0 {
		return 0
	}
	return age
}

// Pool owns a fixed number of wave slots.
type Pool struct {
	slots  []Wave
	free   []int
	active []*Wave
	maxAge time.Duration
	clock  clock.Clock
}

// New allocates a pool with capacity slots. A nil clock uses the system clock.
func New(capacity int, maxAge time.Duration, clk clock.Clock) (*Pool, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidMaxAge, maxAge)
	}
	if clk == nil {
		clk = clock.System{}
	}
	p := &Pool{
		slots:  make([]Wave, capacity),
		free:   make([]int, 0, capacity),
		active: make([]*Wave, 0, capacity),
		maxAge: maxAge,
		clock:  clk,
	}
	// Push in reverse so the lowest slot is handed out first.
	for i := capacity - 1; i >= 0; i-- {
		p.slots[i].slot = i
		p.free = append(p.free, i)
	}
	return p, nil
}

// Emit activates a wave at (x, y) stamped with the current time. When no slot
// is free the oldest active wave is overwritten.
func (p *Pool) Emit(x, y, power, speed, sigma float64) *Wave {
	var w *Wave
	if n := len(p.free); n > 0 {
		w = &p.slots[p.free[n-1]]
		p.free = p.free[:n-1]
	} else {
		w = p.active[0]
		copy(p.active, p.active[1:])
		p.active = p.active[:len(p.active)-1]
	}

	w.X = x
	w.Y = y
	w.Created = p.clock.Now()
	w.Power = power
	w.Speed = speed
	w.Sigma = sigma
	w.InUse = true

	p.active = append(p.active, w)
	return w
}

// Retire deactivates w and returns its slot. Retiring an inactive wave, or a
// wave that belongs to another pool, does nothing.
func (p *Pool) Retire(w *Wave) {
	if !p.owns(w) || !w.InUse {
		return
	}
	for i, a := range p.active {
		if a == w {
			copy(p.active[i:], p.active[i+1:])
			p.active[len(p.active)-1] = nil
			p.active = p.active[:len(p.active)-1]
			break
		}
	}
	w.InUse = false
	p.free = append(p.free, w.slot)
}

// RetireOldest deactivates the front of the active list, if any.
func (p *Pool) RetireOldest() {
	if len(p.active) > 0 {
		p.Retire(p.active[0])
	}
}

// Cleanup retires every wave older than the configured maximum age and
// reports how many were retired.
func (p *Pool) Cleanup(now time.Time) int {
	kept := p.active[:0]
	retired := 0
	for _, w := range p.active {
		if now.Sub(w.Created) > p.maxAge {
			w.InUse = false
			p.free = append(p.free, w.slot)
			retired++
			continue
		}
		kept = append(kept, w)
	}
	for i := len(kept); i < len(p.active); i++ {
		p.active[i] = nil
	}
	p.active = kept
	return retired
}

// Active returns the active waves, oldest first. The slice is only valid
// until the next mutating call.
func (p *Pool) Active() []*Wave { return p.active }

// Snapshot appends value copies of the active waves that have not yet
// expired at now, oldest first.
func (p *Pool) Snapshot(now time.Time, dst []Wave) []Wave {
	for _, w := range p.active {
		if now.Sub(w.Created) > p.maxAge {
			continue
		}
		dst = append(dst, *w)
	}
	return dst
}

// Len returns the number of active waves.
func (p *Pool) Len() int { return len(p.active) }

// Cap returns the pool capacity.
func (p *Pool) Cap() int { return len(p.slots) }

// MaxAge returns the expiry age.
func (p *Pool) MaxAge() time.Duration { return p.maxAge }

// Utilization returns the fraction of slots in use.
func (p *Pool) Utilization() float64 {
	return float64(len(p.active)) / float64(len(p.slots))
}

func (p *Pool) owns(w *Wave) bool {
	return w != nil && w.slot >= 0 && w.slot < len(p.slots) && &p.slots[w.slot] == w
}

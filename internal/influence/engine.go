// Package influence turns the live wave set into per-dot displacement.
//
// Each wave is a ring of gaussian cross-section travelling outward from its
// origin. A dot is pushed away from the origin in proportion to how close it
// sits to the ring, and the pushes of all waves are summed without clamping.
package influence

import (
	"math"
	"time"

	"ripplegrid/internal/expfast"
	"ripplegrid/internal/grid"
	"ripplegrid/internal/wavepool"
)

// Params are the physical constants of the ripple model.
type Params struct {
	Expansion      float64 // ring radius growth per second per unit speed
	DecayRate      float64
	XScale         float64
	YScale         float64
	Damping        float64
	InfluenceScale float64
	MinDistance    float64
	MinGaussian    float64
	CullSigmas     float64
}

// DefaultParams returns the reference tuning.
func DefaultParams() Params {
	return Params{
		Expansion:      400,
		DecayRate:      1.5,
		XScale:         15,
		YScale:         8,
		Damping:        0.85,
		InfluenceScale: 1.0 / 6,
		MinDistance:    0.0001,
		MinGaussian:    0.01,
		CullSigmas:     3,
	}
}

// Sample is the evaluated state of one dot for one frame.
type Sample struct {
	DX, DY    float64
	Influence float64
}

// Evaluator fills out[i] for points[i]. ops counts the point/wave pairs that
// survived culling.
type Evaluator interface {
	Evaluate(points []grid.Point, waves []wavepool.Wave, now time.Time, out []Sample) (ops int, err error)
}

// Engine evaluates the model on the CPU.
type Engine struct {
	table *expfast.Table
	p     Params
}

var _ Evaluator = (*Engine)(nil)

// New returns an engine using table for the gaussian envelope.
func New(table *expfast.Table, p Params) *Engine {
	return &Engine{table: table, p: p}
}

// Params returns the engine constants.
func (e *Engine) Params() Params { return e.p }

// Table returns the lookup table used for the envelope.
func (e *Engine) Table() *expfast.Table { return e.table }

// Displace sums the push of every wave on the dot anchored at (ox, oy).
func (e *Engine) Displace(ox, oy float64, waves []wavepool.Wave, now time.Time) (dx, dy float64, ops int) {
	p := &e.p
	for i := range waves {
		w := &waves[i]
		age := w.Age(now)
		ring := age * w.Speed * p.Expansion

		deltaX := ox - w.X
		deltaY := oy - w.Y
		dist := math.Sqrt(deltaX*deltaX + deltaY*deltaY)

		if dist > ring+w.Sigma*p.CullSigmas {
			continue
		}
		ops++

		diff := dist - ring
		gaussian := e.table.Exp(diff * diff / (2 * w.Sigma * w.Sigma))
		if dist <= p.MinDistance || gaussian <= p.MinGaussian {
			continue
		}

		inv := 1 / dist
		decay := 1 / (1 + age*p.DecayRate)
		strength := w.Power * gaussian * decay * decay
		dx += deltaX * inv * strength * p.XScale * p.Damping
		dy += deltaY * inv * strength * p.YScale * p.Damping
	}
	return dx, dy, ops
}

// Influence normalizes a displacement into [0, 1].
func (e *Engine) Influence(dx, dy float64) float64 {
	v := math.Sqrt(dx*dx+dy*dy) * e.p.InfluenceScale
	if !(v < 1) {
		if math.IsNaN(v) {
			return 0
		}
		return 1
	}
	return v
}

// Evaluate runs Displace for every point.
func (e *Engine) Evaluate(points []grid.Point, waves []wavepool.Wave, now time.Time, out []Sample) (int, error) {
	total := 0
	for i := range points {
		dx, dy, ops := e.Displace(points[i].OX, points[i].OY, waves, now)
		out[i] = Sample{DX: dx, DY: dy, Influence: e.Influence(dx, dy)}
		total += ops
	}
	return total, nil
}

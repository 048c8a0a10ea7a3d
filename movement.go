package main

import (
	"math"
	"time"

	"github.com/aquilax/go-perlin"
)

// waveSink receives emitted waves; *ripple.Field satisfies it.
type waveSink interface {
	PushWave(x, y, power float64)
}

// pointerKind selects the emission tuning for a pointer.
type pointerKind int

const (
	pointerMouse pointerKind = iota
	pointerTouch
)

// pointerTracker turns raw pointer samples into waves. Positions are
// low-pass filtered and emission is throttled harder for slow movement.
type pointerTracker struct {
	sink waveSink
	kind pointerKind

	started          bool
	lastX, lastY     float64
	smoothX, smoothY float64
	lastEmit         time.Time
}

func newPointerTracker(sink waveSink, kind pointerKind) *pointerTracker {
	return &pointerTracker{sink: sink, kind: kind}
}

// Move records a pointer sample and reports whether it emitted a wave.
func (p *pointerTracker) Move(x, y float64, now time.Time) bool {
	if !p.started {
		p.started = true
		p.lastX, p.lastY = x, y
		p.smoothX, p.smoothY = x, y
	}
	velocity := math.Hypot(x-p.lastX, y-p.lastY)
	p.smoothX += (x - p.smoothX) * pointerLerp
	p.smoothY += (y - p.smoothY) * pointerLerp
	p.lastX, p.lastY = x, y

	if !p.lastEmit.IsZero() && now.Sub(p.lastEmit) <= moveThrottle(p.kind, velocity) {
		return false
	}
	p.sink.PushWave(p.smoothX, p.smoothY, movePower(p.kind, velocity))
	p.lastEmit = now
	return true
}

// Press emits the stronger wave of a click or tap.
func (p *pointerTracker) Press(x, y float64) {
	power := mousePressPower
	if p.kind == pointerTouch {
		power = touchPressPower
	}
	p.sink.PushWave(x, y, power)
}

// Reset forgets the last sample so the next Move starts a new stroke.
func (p *pointerTracker) Reset() {
	p.started = false
}

// moveThrottle returns the minimum gap between move emissions.
func moveThrottle(kind pointerKind, velocity float64) time.Duration {
	base := float64(mouseThrottleMs)
	if kind == pointerTouch {
		base = touchThrottleMs
	}
	ms := math.Max(minThrottleMs, base-velocity*throttleVelocityK)
	return time.Duration(ms * float64(time.Millisecond))
}

// movePower grows with pointer speed up to moveMaxPower.
func movePower(kind pointerKind, velocity float64) float64 {
	mult := 1.0
	if kind == pointerTouch {
		mult = touchMoveMultiplier
	}
	return math.Min(moveMaxPower, (moveBasePower+velocity*moveVelocityPower)*mult)
}

// autoWalker wanders a virtual pointer across the surface along two
// independent perlin noise tracks.
type autoWalker struct {
	noiseX *perlin.Perlin
	noiseY *perlin.Perlin
	t      float64
}

func newAutoWalker(seed int64) *autoWalker {
	return &autoWalker{
		noiseX: perlin.NewPerlin(demoNoiseAlpha, demoNoiseBeta, demoNoiseOctaves, seed),
		noiseY: perlin.NewPerlin(demoNoiseAlpha, demoNoiseBeta, demoNoiseOctaves, seed+1),
	}
}

// Next advances the walk one frame and returns a position inside the
// width x height surface, away from its edges.
func (a *autoWalker) Next(width, height float64) (float64, float64) {
	a.t += demoStepScale
	return walkCoord(a.noiseX.Noise1D(a.t), width), walkCoord(a.noiseY.Noise1D(a.t+0.5), height)
}

func walkCoord(noise, extent float64) float64 {
	v := math.Max(-1, math.Min(1, noise*demoAmplitude))
	margin := extent * demoMargin
	return margin + (v+1)/2*(extent-2*margin)
}

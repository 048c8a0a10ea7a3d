// Package perf tracks frame timing and per-frame work for the overlay.
package perf

import (
	"fmt"
	"time"

	"github.com/guptarohit/asciigraph"
)

// DefaultHistory is the number of frame times kept for the sparkline.
const DefaultHistory = 120

// Stats is a point-in-time view of renderer performance.
type Stats struct {
	FPS                    float64
	FrameTimeMs            float64
	MathOps                int
	ActiveWaves            int
	PoolUtilizationPercent float64
	RuntimeSeconds         float64
}

// UtilizationString formats pool use like "45.0%".
func (s Stats) UtilizationString() string {
	return fmt.Sprintf("%.1f%%", s.PoolUtilizationPercent)
}

// RuntimeString formats the runtime like "12.3s".
func (s Stats) RuntimeString() string {
	return fmt.Sprintf("%.1fs", s.RuntimeSeconds)
}

func (s Stats) String() string {
	return fmt.Sprintf("fps %.1f | frame %.2fms | ops %d | waves %d | pool %s | up %s",
		s.FPS, s.FrameTimeMs, s.MathOps, s.ActiveWaves, s.UtilizationString(), s.RuntimeString())
}

// Monitor accumulates frame records. FPS is recomputed once per second from
// the frames counted in that window.
type Monitor struct {
	start       time.Time
	windowStart time.Time
	frames      int

	fps         float64
	frameTimeMs float64
	mathOps     int
	activeWaves int
	utilization float64

	history []float64
	next    int
	filled  bool
}

// NewMonitor starts the runtime clock at start. historyLen <= 0 uses
// DefaultHistory.
func NewMonitor(start time.Time, historyLen int) *Monitor {
	if historyLen <= 0 {
		historyLen = DefaultHistory
	}
	return &Monitor{
		start:       start,
		windowStart: start,
		history:     make([]float64, historyLen),
	}
}

// Record stores one finished frame.
func (m *Monitor) Record(frameStart, frameEnd time.Time, ops, activeWaves int, utilization float64) {
	ms := float64(frameEnd.Sub(frameStart)) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	m.frameTimeMs = ms
	m.mathOps = ops
	m.activeWaves = activeWaves
	m.utilization = utilization

	m.history[m.next] = ms
	m.next++
	if m.next == len(m.history) {
		m.next = 0
		m.filled = true
	}

	m.frames++
	if elapsed := frameEnd.Sub(m.windowStart); elapsed >= time.Second {
		m.fps = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.windowStart = frameEnd
	}
}

// Stats returns the latest figures with runtime measured at now.
func (m *Monitor) Stats(now time.Time) Stats {
	runtime := now.Sub(m.start).Seconds()
	if runtime < 0 {
		runtime = 0
	}
	return Stats{
		FPS:                    m.fps,
		FrameTimeMs:            m.frameTimeMs,
		MathOps:                m.mathOps,
		ActiveWaves:            m.activeWaves,
		PoolUtilizationPercent: m.utilization * 100,
		RuntimeSeconds:         runtime,
	}
}

// History returns recorded frame times, oldest first.
func (m *Monitor) History() []float64 {
	if !m.filled {
		return append([]float64(nil), m.history[:m.next]...)
	}
	out := make([]float64, 0, len(m.history))
	out = append(out, m.history[m.next:]...)
	return append(out, m.history[:m.next]...)
}

// Sparkline plots the frame-time history. It returns "" until two frames
// have been recorded.
func (m *Monitor) Sparkline(width, height int) string {
	h := m.History()
	if len(h) < 2 {
		return ""
	}
	return asciigraph.Plot(h,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption("frame ms"))
}

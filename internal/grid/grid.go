// Package grid lays out the dot lattice for the current viewport.
package grid

import (
	"errors"
	"fmt"
	"math"
)

// EngineWebKit names the browser engine whose canvas fill rate collapses at
// high pixel ratios; it always renders at ratio 1.
const EngineWebKit = "webkit"

// ErrInvalidConfig reports geometry settings that cannot produce a lattice.
var ErrInvalidConfig = errors.New("invalid grid configuration")

// Config controls spacing adaptation and pixel-ratio clamping.
type Config struct {
	BaseSpacing    float64
	MinSpacing     float64
	MaxSpacing     float64
	ReferenceWidth float64
	MaxDPR         float64
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		BaseSpacing:    28,
		MinSpacing:     18,
		MaxSpacing:     36,
		ReferenceWidth: 1280,
		MaxDPR:         2,
	}
}

// Validate checks that every bound is positive and ordered.
func (c Config) Validate() error {
	switch {
	case !(c.BaseSpacing > 0):
		return fmt.Errorf("%w: base spacing %v", ErrInvalidConfig, c.BaseSpacing)
	case !(c.MinSpacing > 0) || !(c.MaxSpacing > 0):
		return fmt.Errorf("%w: spacing bounds [%v, %v]", ErrInvalidConfig, c.MinSpacing, c.MaxSpacing)
	case c.MinSpacing > c.MaxSpacing:
		return fmt.Errorf("%w: min spacing %v above max %v", ErrInvalidConfig, c.MinSpacing, c.MaxSpacing)
	case !(c.ReferenceWidth > 0):
		return fmt.Errorf("%w: reference width %v", ErrInvalidConfig, c.ReferenceWidth)
	case !(c.MaxDPR >= 1):
		return fmt.Errorf("%w: max pixel ratio %v", ErrInvalidConfig, c.MaxDPR)
	}
	return nil
}

// Viewport describes the host surface in logical pixels.
type Viewport struct {
	Width       float64
	Height      float64
	DeviceScale float64
	Engine      string
}

// Point is one dot: a fixed anchor plus the smoothed position it is drawn at.
type Point struct {
	OX, OY float64
	X, Y   float64
	Ready  bool
}

// Smooth moves the drawn position toward anchor+(dx, dy) by factor and
// returns it. The first call starts from the anchor.
func (p *Point) Smooth(dx, dy, factor float64) (float64, float64) {
	if !p.Ready {
		p.X, p.Y = p.OX, p.OY
		p.Ready = true
	}
	p.X += (p.OX + dx - p.X) * factor
	p.Y += (p.OY + dy - p.Y) * factor
	return p.X, p.Y
}

// Layout is the result of one geometry computation.
type Layout struct {
	Width, Height int
	DPR           float64
	PixelWidth    int
	PixelHeight   int
	Spacing       float64
	Cols, Rows    int
	Points        []Point
}

// Geometry recomputes the lattice on resize.
type Geometry struct {
	cfg    Config
	layout Layout
}

// New validates cfg and returns an empty geometry.
func New(cfg Config) (*Geometry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Geometry{cfg: cfg, layout: Layout{DPR: 1}}, nil
}

// Config returns the active configuration.
func (g *Geometry) Config() Config { return g.cfg }

// SetBaseSpacing changes the spacing the adaptation starts from. It takes
// effect on the next Resize.
func (g *Geometry) SetBaseSpacing(v float64) error {
	if !(v > 0) {
		return fmt.Errorf("%w: base spacing %v", ErrInvalidConfig, v)
	}
	g.cfg.BaseSpacing = v
	return nil
}

// Layout returns the current lattice.
func (g *Geometry) Layout() Layout { return g.layout }

// Points returns the live point set; smoothing state is kept on it.
func (g *Geometry) Points() []Point { return g.layout.Points }

// Spacing returns the adapted spacing of the current lattice, or the base
// spacing before the first resize.
func (g *Geometry) Spacing() float64 {
	if g.layout.Spacing > 0 {
		return g.layout.Spacing
	}
	return g.cfg.BaseSpacing
}

// Resize rebuilds the whole lattice for v. Previous points and their
// smoothing state are discarded.
func (g *Geometry) Resize(v Viewport) Layout {
	dpr := DevicePixelRatio(v.DeviceScale, g.cfg.MaxDPR, v.Engine)
	width := nonNegativeFloor(v.Width)
	height := nonNegativeFloor(v.Height)
	spacing := AdaptSpacing(g.cfg.BaseSpacing, float64(width), g.cfg)

	cols := int(math.Ceil(float64(width)/spacing)) + 1
	rows := int(math.Ceil(float64(height)/spacing)) + 1
	if width == 0 || height == 0 {
		cols, rows = 0, 0
	}

	points := make([]Point, 0, cols*rows)
	offX := (float64(cols)*spacing - float64(width)) / 2
	offY := (float64(rows)*spacing - float64(height)) / 2
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x := float64(c)*spacing - offX
			y := float64(r)*spacing - offY
			points = append(points, Point{OX: x, OY: y})
		}
	}

	g.layout = Layout{
		Width:       width,
		Height:      height,
		DPR:         dpr,
		PixelWidth:  int(math.Floor(float64(width) * dpr)),
		PixelHeight: int(math.Floor(float64(height) * dpr)),
		Spacing:     spacing,
		Cols:        cols,
		Rows:        rows,
		Points:      points,
	}
	return g.layout
}

// DevicePixelRatio clamps the host scale to (0, max]. Missing scales count
// as 1 and WebKit is pinned to 1.
func DevicePixelRatio(scale, max float64, engine string) float64 {
	if engine == EngineWebKit {
		return 1
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		scale = 1
	}
	if scale > max {
		return max
	}
	return scale
}

// AdaptSpacing scales base with the viewport width relative to the
// reference width and clamps it into the configured band.
func AdaptSpacing(base, width float64, cfg Config) float64 {
	scaled := math.Max(cfg.MinSpacing, base*(width/cfg.ReferenceWidth))
	return math.Max(cfg.MinSpacing, math.Min(cfg.MaxSpacing, math.Round(scaled)))
}

func nonNegativeFloor(v float64) int {
	if !(v > 0) {
		return 0
	}
	return int(math.Floor(v))
}

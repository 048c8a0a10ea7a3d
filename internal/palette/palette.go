// Package palette precomputes the dot colors for every influence bucket in
// both themes, so the frame loop never builds a color.
package palette

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Influence band thresholds and table sizes.
const (
	StaticThreshold = 0.01
	HighThreshold   = 0.1
	LowSize         = 100
	DefaultHighSize = 400
)

// ErrInvalidSize reports a high table size that leaves the bucket index undefined.
var ErrInvalidSize = errors.New("palette size must be positive")

// Band identifies which table a key indexes.
type Band uint8

const (
	Static Band = iota
	Low
	High
)

func (b Band) String() string {
	switch b {
	case Static:
		return "static"
	case Low:
		return "low"
	case High:
		return "high"
	}
	return "band(" + strconv.Itoa(int(b)) + ")"
}

// Key is the discretized identity of an influence value. Equal keys always
// map to the same color within one theme.
type Key struct {
	Band  Band
	Index uint16
}

func (k Key) String() string {
	if k.Band == Static {
		return "static"
	}
	return k.Band.String() + "_" + strconv.Itoa(int(k.Index))
}

// Color is a straight-alpha color with a fractional opacity.
type Color struct {
	R, G, B uint8
	A       float64
}

// RGBA implements color.Color with alpha-premultiplied 16-bit channels.
func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(math.Round(clamp01(c.A) * 0xffff))
	r = uint32(c.R) * 0x101 * a / 0xffff
	g = uint32(c.G) * 0x101 * a / 0xffff
	b = uint32(c.B) * 0x101 * a / 0xffff
	return r, g, b, a
}

// String formats the color as a CSS rgba() value.
func (c Color) String() string {
	return "rgba(" + strconv.Itoa(int(c.R)) + "," + strconv.Itoa(int(c.G)) + "," +
		strconv.Itoa(int(c.B)) + "," + strconv.FormatFloat(c.A, 'g', -1, 64) + ")"
}

var (
	staticDark  = Color{255, 255, 255, 0.06}
	staticLight = Color{0, 0, 0, 0.08}
)

// Palette holds the per-theme lookup tables.
type Palette struct {
	highDark  []Color
	highLight []Color
	lowDark   [LowSize]Color
	lowLight  [LowSize]Color
}

// New generates both themes with highSize entries in each high table.
func New(highSize int) (*Palette, error) {
	if highSize <= 0 || highSize > math.MaxUint16+1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, highSize)
	}
	p := &Palette{
		highDark:  make([]Color, highSize),
		highLight: make([]Color, highSize),
	}
	for i := 0; i < LowSize; i++ {
		inf := float64(i) / 1000
		p.lowDark[i] = Color{255, 255, 255, 0.06 + inf*0.12}
		p.lowLight[i] = Color{0, 0, 0, 0.08 + inf*0.16}
	}
	for i := 0; i < highSize; i++ {
		inf := HighThreshold + float64(i)/float64(highSize)*(1-HighThreshold)
		p.highDark[i] = rampColor(darkRamp, inf)
		p.highLight[i] = rampColor(lightRamp, inf)
	}
	return p, nil
}

// Size returns the number of high-band entries per theme.
func (p *Palette) Size() int { return len(p.highDark) }

// KeyFor maps an influence value to its bucket. Any float is accepted;
// values outside [0,1] saturate and NaN falls into the static band.
func (p *Palette) KeyFor(influence float64) Key {
	if !(influence >= StaticThreshold) {
		return Key{Band: Static}
	}
	if influence < HighThreshold {
		idx := int(math.Floor(influence * 1000))
		return Key{Band: Low, Index: uint16(clampIndex(idx, LowSize-1))}
	}
	n := len(p.highDark)
	idx := math.Floor((influence - HighThreshold) / (1 - HighThreshold) * float64(n))
	if idx > float64(n-1) {
		idx = float64(n - 1)
	}
	return Key{Band: High, Index: uint16(clampIndex(int(idx), n-1))}
}

// Lookup returns the color for k in the requested theme.
func (p *Palette) Lookup(k Key, dark bool) Color {
	switch k.Band {
	case Low:
		i := clampIndex(int(k.Index), LowSize-1)
		if dark {
			return p.lowDark[i]
		}
		return p.lowLight[i]
	case High:
		i := clampIndex(int(k.Index), len(p.highDark)-1)
		if dark {
			return p.highDark[i]
		}
		return p.highLight[i]
	}
	return p.Static(dark)
}

// ColorFor returns the bucket key and color for an influence value.
func (p *Palette) ColorFor(influence float64, dark bool) (Key, Color) {
	k := p.KeyFor(influence)
	return k, p.Lookup(k, dark)
}

// Static returns the resting dot color for the theme.
func (p *Palette) Static(dark bool) Color {
	if dark {
		return staticDark
	}
	return staticLight
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

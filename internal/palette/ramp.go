package palette

import "math"

// rgb is an unrounded color channel triple.
type rgb struct{ r, g, b float64 }

// segment blends from one color to another across a quarter of the ramp.
// Opacity grows with the synthetic influence as alpha + influence*gain.
type segment struct {
	from, to    rgb
	alpha, gain float64
}

type ramp [4]segment

// darkRamp runs blue, cyan, mint, then amber.
var darkRamp = ramp{
	{from: rgb{60, 120, 200}, to: rgb{100, 200, 255}, alpha: 0.6, gain: 0.3},
	{from: rgb{100, 200, 255}, to: rgb{150, 255, 255}, alpha: 0.7, gain: 0.2},
	{from: rgb{150, 255, 255}, to: rgb{180, 255, 220}, alpha: 0.8, gain: 0.15},
	{from: rgb{180, 255, 220}, to: rgb{255, 180, 50}, alpha: 0.85, gain: 0.15},
}

// lightRamp runs navy, azure, aqua, then orange.
var lightRamp = ramp{
	{from: rgb{20, 50, 120}, to: rgb{0, 150, 255}, alpha: 0.5, gain: 0.3},
	{from: rgb{0, 150, 255}, to: rgb{0, 255, 255}, alpha: 0.6, gain: 0.2},
	{from: rgb{0, 255, 255}, to: rgb{100, 255, 200}, alpha: 0.7, gain: 0.2},
	{from: rgb{100, 255, 200}, to: rgb{255, 140, 0}, alpha: 0.8, gain: 0.2},
}

// rampColor maps a high-band influence in [0.1, 1] onto the ramp. The band is
// stretched over [0, 4) so each segment covers one quarter of it.
func rampColor(rp ramp, influence float64) Color {
	t := (influence - HighThreshold) / (1 - HighThreshold) * 4
	if t > 3.99 {
		t = 3.99
	}
	if t < 0 {
		t = 0
	}
	seg := int(math.Floor(t))
	local := t - float64(seg)
	s := rp[seg]
	return Color{
		R: channel(s.from.r + (s.to.r-s.from.r)*local),
		G: channel(s.from.g + (s.to.g-s.from.g)*local),
		B: channel(s.from.b + (s.to.b-s.from.b)*local),
		A: clamp01(s.alpha + influence*s.gain),
	}
}

func channel(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

package main

import (
	"math"
	"testing"

	"ripplegrid/internal/palette"
)

func TestDotColorScaleAppliesAlphaOnce(t *testing.T) {
	tests := []struct {
		name       string
		c          palette.Color
		r, g, b, a float64
	}{
		{"dark static", palette.Color{R: 255, G: 255, B: 255, A: 0.06}, 0.06, 0.06, 0.06, 0.06},
		{"light static", palette.Color{A: 0.08}, 0, 0, 0, 0.08},
		{"opaque", palette.Color{R: 255, G: 128, B: 0, A: 1}, 1, 128.0 / 255, 0, 1},
		{"half", palette.Color{R: 100, G: 200, B: 50, A: 0.5}, 100.0 / 255 * 0.5, 200.0 / 255 * 0.5, 50.0 / 255 * 0.5, 0.5},
	}
	for _, tt := range tests {
		cs := dotColorScale(tt.c)
		got := [4]float64{float64(cs.R()), float64(cs.G()), float64(cs.B()), float64(cs.A())}
		want := [4]float64{tt.r, tt.g, tt.b, tt.a}
		for i := range got {
			if math.Abs(got[i]-want[i]) > 1e-3 {
				t.Errorf("%s: scale = %v, want %v", tt.name, got, want)
				break
			}
		}
	}
}

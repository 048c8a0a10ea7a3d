package palette

import (
	"errors"
	"image/color"
	"math"
	"testing"
)

func TestInvalidSize(t *testing.T) {
	if _, err := New(0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Expected ErrInvalidSize, got %v", err)
	}
	if _, err := New(-10); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Expected ErrInvalidSize, got %v", err)
	}
}

func TestKeyForBoundaries(t *testing.T) {
	p, err := New(DefaultHighSize)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		influence float64
		want      Key
	}{
		{0.0, Key{Band: Static}},
		{0.00999, Key{Band: Static}},
		{0.01, Key{Band: Low, Index: 10}},
		{0.05, Key{Band: Low, Index: 50}},
		{0.099999, Key{Band: Low, Index: 99}},
		{0.1, Key{Band: High, Index: 0}},
		{0.55, Key{Band: High, Index: 200}},
		{1.0, Key{Band: High, Index: DefaultHighSize - 1}},
		{7.5, Key{Band: High, Index: DefaultHighSize - 1}},
		{-1, Key{Band: Static}},
		{math.NaN(), Key{Band: Static}},
	}
	for _, tt := range tests {
		if got := p.KeyFor(tt.influence); got != tt.want {
			t.Errorf("KeyFor(%v) = %v, want %v", tt.influence, got, tt.want)
		}
	}
}

func TestTotality(t *testing.T) {
	for _, size := range []int{1, 7, DefaultHighSize} {
		p, err := New(size)
		if err != nil {
			t.Fatal(err)
		}
		for _, dark := range []bool{true, false} {
			for i := 0; i <= 100000; i++ {
				inf := float64(i) / 100000
				k, c := p.ColorFor(inf, dark)
				switch k.Band {
				case Low:
					if int(k.Index) >= LowSize {
						t.Fatalf("size %d: low index %d out of range at %v", size, k.Index, inf)
					}
				case High:
					if int(k.Index) >= size {
						t.Fatalf("size %d: high index %d out of range at %v", size, k.Index, inf)
					}
				}
				if c.A <= 0 || c.A > 1 {
					t.Fatalf("size %d: alpha %v out of range at %v", size, c.A, inf)
				}
			}
		}
	}
}

func TestStaticAndLowColors(t *testing.T) {
	p, _ := New(DefaultHighSize)

	if got := p.Static(true).String(); got != "rgba(255,255,255,0.06)" {
		t.Errorf("dark static = %s", got)
	}
	if got := p.Static(false).String(); got != "rgba(0,0,0,0.08)" {
		t.Errorf("light static = %s", got)
	}

	_, c := p.ColorFor(0.05, true)
	if c.R != 255 || c.G != 255 || c.B != 255 || math.Abs(c.A-(0.06+0.05*0.12)) > 1e-12 {
		t.Errorf("dark low color at 0.05 = %v", c)
	}
	_, c = p.ColorFor(0.05, false)
	if c.R != 0 || c.G != 0 || c.B != 0 || math.Abs(c.A-(0.08+0.05*0.16)) > 1e-12 {
		t.Errorf("light low color at 0.05 = %v", c)
	}
}

func TestRampEndpoints(t *testing.T) {
	p, _ := New(DefaultHighSize)

	first := p.Lookup(Key{Band: High, Index: 0}, true)
	if first.R != 60 || first.G != 120 || first.B != 200 {
		t.Errorf("dark ramp start = %v, want rgb(60,120,200)", first)
	}
	last := p.Lookup(Key{Band: High, Index: DefaultHighSize - 1}, true)
	if last.R < 250 || last.B > 60 {
		t.Errorf("dark ramp end should be amber, got %v", last)
	}

	lightFirst := p.Lookup(Key{Band: High, Index: 0}, false)
	if lightFirst.R != 20 || lightFirst.G != 50 || lightFirst.B != 120 {
		t.Errorf("light ramp start = %v, want rgb(20,50,120)", lightFirst)
	}
}

func TestRampContinuity(t *testing.T) {
	p, _ := New(DefaultHighSize)
	for _, dark := range []bool{true, false} {
		prev := p.Lookup(Key{Band: High}, dark)
		for i := 1; i < DefaultHighSize; i++ {
			c := p.Lookup(Key{Band: High, Index: uint16(i)}, dark)
			for _, d := range []int{int(c.R) - int(prev.R), int(c.G) - int(prev.G), int(c.B) - int(prev.B)} {
				if d > 3 || d < -3 {
					t.Fatalf("dark=%v: channel jump %d between entries %d and %d", dark, d, i-1, i)
				}
			}
			prev = c
		}
	}
}

func TestColorImplementsColor(t *testing.T) {
	var c color.Color = Color{R: 255, G: 0, B: 0, A: 0.5}
	r, g, b, a := c.RGBA()
	if a != 0x8000 || r != 0x8000 || g != 0 || b != 0 {
		t.Errorf("RGBA() = %x %x %x %x", r, g, b, a)
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.R != 255 || n.A != 128 {
		t.Errorf("NRGBA conversion = %+v", n)
	}
}

func TestKeyString(t *testing.T) {
	if got := (Key{Band: High, Index: 12}).String(); got != "high_12" {
		t.Errorf("got %q", got)
	}
	if got := (Key{Band: Static}).String(); got != "static" {
		t.Errorf("got %q", got)
	}
}

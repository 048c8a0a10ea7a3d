package grid

import (
	"errors"
	"math"
	"testing"
)

func TestAdaptSpacing(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name  string
		base  float64
		width float64
		want  float64
	}{
		{"reference width keeps base", 28, 1280, 28},
		{"half width clamps to min", 28, 640, 18},
		{"wide screen clamps to max", 28, 2560, 36},
		{"rounds to whole pixels", 28, 1000, 22},
		{"zero width clamps to min", 28, 0, 18},
		{"small base clamps to min", 4, 1280, 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdaptSpacing(tt.base, tt.width, cfg); got != tt.want {
				t.Errorf("AdaptSpacing(%v, %v) = %v, want %v", tt.base, tt.width, got, tt.want)
			}
		})
	}
}

func TestDevicePixelRatio(t *testing.T) {
	tests := []struct {
		scale  float64
		engine string
		want   float64
	}{
		{1, "", 1},
		{1.5, "", 1.5},
		{3, "", 2},
		{0, "", 1},
		{math.NaN(), "", 1},
		{3, EngineWebKit, 1},
		{2, "blink", 2},
	}
	for _, tt := range tests {
		if got := DevicePixelRatio(tt.scale, 2, tt.engine); got != tt.want {
			t.Errorf("DevicePixelRatio(%v, %q) = %v, want %v", tt.scale, tt.engine, got, tt.want)
		}
	}
}

func TestResizeLattice(t *testing.T) {
	g, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	l := g.Resize(Viewport{Width: 1280.7, Height: 720, DeviceScale: 3})

	if l.Width != 1280 || l.Height != 720 {
		t.Errorf("size = %dx%d, want 1280x720", l.Width, l.Height)
	}
	if l.DPR != 2 || l.PixelWidth != 2560 || l.PixelHeight != 1440 {
		t.Errorf("dpr %v pixels %dx%d", l.DPR, l.PixelWidth, l.PixelHeight)
	}
	if l.Spacing != 28 {
		t.Errorf("spacing = %v, want 28", l.Spacing)
	}
	wantCols := int(math.Ceil(1280.0/28)) + 1
	wantRows := int(math.Ceil(720.0/28)) + 1
	if l.Cols != wantCols || l.Rows != wantRows {
		t.Errorf("grid = %dx%d, want %dx%d", l.Cols, l.Rows, wantCols, wantRows)
	}
	if len(l.Points) != wantCols*wantRows {
		t.Fatalf("points = %d, want %d", len(l.Points), wantCols*wantRows)
	}

	first := l.Points[0]
	last := l.Points[len(l.Points)-1]
	wantX0 := -(float64(wantCols)*28 - 1280) / 2
	wantY0 := -(float64(wantRows)*28 - 720) / 2
	if first.OX != wantX0 || first.OY != wantY0 {
		t.Errorf("first anchor = (%v,%v), want (%v,%v)", first.OX, first.OY, wantX0, wantY0)
	}
	// The lattice overhangs both edges by the same amount.
	left := -first.OX
	right := last.OX + 28 - 1280
	if math.Abs(left-right) > 1e-9 {
		t.Errorf("horizontal overhang %v vs %v", left, right)
	}
	if last.OX < 1280-28 || last.OY < 720-28 {
		t.Errorf("lattice does not reach the far edges: %+v", last)
	}
}

func TestResizeReplacesPoints(t *testing.T) {
	g, _ := New(DefaultConfig())
	g.Resize(Viewport{Width: 1280, Height: 720, DeviceScale: 1})
	pts := g.Points()
	pts[0].Smooth(5, 5, 0.7)
	if !g.Points()[0].Ready {
		t.Fatal("smoothing state should live on the point set")
	}

	l := g.Resize(Viewport{Width: 640, Height: 480, DeviceScale: 1})
	if l.Spacing != 18 {
		t.Errorf("spacing after shrink = %v, want 18", l.Spacing)
	}
	for i, p := range g.Points() {
		if p.Ready {
			t.Fatalf("point %d kept smoothing state across resize", i)
		}
	}
}

func TestResizeDoesNotDrift(t *testing.T) {
	g, _ := New(DefaultConfig())
	g.Resize(Viewport{Width: 640, Height: 480})
	g.Resize(Viewport{Width: 640, Height: 480})
	if l := g.Resize(Viewport{Width: 1280, Height: 480}); l.Spacing != 28 {
		t.Errorf("spacing after growing back = %v, want 28", l.Spacing)
	}
}

func TestResizeEmptyViewport(t *testing.T) {
	g, _ := New(DefaultConfig())
	l := g.Resize(Viewport{Width: 0, Height: 600})
	if len(l.Points) != 0 {
		t.Errorf("expected no points for a zero-width viewport, got %d", len(l.Points))
	}
}

func TestSmooth(t *testing.T) {
	p := Point{OX: 10, OY: 20}
	x, y := p.Smooth(10, 0, 0.7)
	if math.Abs(x-17) > 1e-12 || y != 20 {
		t.Errorf("first smooth = (%v,%v), want (17,20)", x, y)
	}
	x, _ = p.Smooth(10, 0, 0.7)
	if math.Abs(x-(17+(20-17)*0.7)) > 1e-12 {
		t.Errorf("second smooth x = %v", x)
	}
	for i := 0; i < 60; i++ {
		x, y = p.Smooth(0, 0, 0.7)
	}
	if math.Abs(x-10) > 1e-9 || math.Abs(y-20) > 1e-9 {
		t.Errorf("smoothing should settle on the anchor, got (%v,%v)", x, y)
	}
}

func TestConfigValidation(t *testing.T) {
	bad := []Config{
		{BaseSpacing: 0, MinSpacing: 18, MaxSpacing: 36, ReferenceWidth: 1280, MaxDPR: 2},
		{BaseSpacing: 28, MinSpacing: 40, MaxSpacing: 36, ReferenceWidth: 1280, MaxDPR: 2},
		{BaseSpacing: 28, MinSpacing: 18, MaxSpacing: 36, ReferenceWidth: 0, MaxDPR: 2},
		{BaseSpacing: 28, MinSpacing: 18, MaxSpacing: 36, ReferenceWidth: 1280, MaxDPR: 0},
	}
	for i, cfg := range bad {
		if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("config %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
	g, _ := New(DefaultConfig())
	if err := g.SetBaseSpacing(-1); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetBaseSpacing(-1) = %v", err)
	}
}

package main

import (
	"fmt"
	"image/color"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"

	"ripplegrid/internal/clock"
	"ripplegrid/internal/grid"
	"ripplegrid/internal/palette"
	"ripplegrid/internal/render"
	"ripplegrid/internal/ripple"
)

// backdrop returns the surface color behind the dots.
func backdrop(dark bool) color.RGBA {
	if dark {
		return colornames.Black
	}
	return colornames.Whitesmoke
}

// imageSurface rasterizes fills with gg at the layout's pixel ratio.
type imageSurface struct {
	dc       *gg.Context
	backdrop gg.RGBA
	err      error
}

func newImageSurface(layout grid.Layout, dark bool) *imageSurface {
	dc := gg.NewContext(max(1, layout.PixelWidth), max(1, layout.PixelHeight))
	dc.Scale(layout.DPR, layout.DPR)
	return &imageSurface{dc: dc, backdrop: gg.FromColor(backdrop(dark))}
}

func (s *imageSurface) Clear() {
	s.dc.ClearWithColor(s.backdrop)
}

func (s *imageSurface) FillDots(c palette.Color, dots []render.Dot) {
	for _, d := range dots {
		s.dc.DrawCircle(d.X, d.Y, d.R)
	}
	s.dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, c.A)
	if err := s.dc.Fill(); err != nil && s.err == nil {
		s.err = err
	}
}

// SavePNG writes the image, reporting the first fill error if any.
func (s *imageSurface) SavePNG(path string) error {
	if s.err != nil {
		return fmt.Errorf("rasterizing frame: %w", s.err)
	}
	return s.dc.SavePNG(path)
}

func (s *imageSurface) Close() error { return s.dc.Close() }

// writeSnapshot replays frame onto a fresh image and saves it.
func writeSnapshot(frame render.Frame, layout grid.Layout, dark bool, path string) error {
	surface := newImageSurface(layout, dark)
	defer surface.Close()
	frame.Replay(surface)
	if err := surface.SavePNG(path); err != nil {
		return fmt.Errorf("saving snapshot %s: %w", path, err)
	}
	return nil
}

func timestampedPath(base string, now time.Time) string {
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".png"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + now.Format("-20060102-150405") + ext
}

// snapshotOptions configure the headless backend.
type snapshotOptions struct {
	Width, Height int
	Scale         float64
	Frames        int
	Out           string
}

// runSnapshot sweeps a virtual pointer across the surface on a manual clock
// and writes the final frame as a PNG.
func runSnapshot(cfg ripple.Config, theme ripple.ThemeProvider, opts []ripple.Option, so snapshotOptions) error {
	if so.Width <= 0 || so.Height <= 0 {
		return fmt.Errorf("snapshot size must be positive: %dx%d", so.Width, so.Height)
	}
	clk := clock.NewMock(time.Now())
	opts = append(opts, ripple.WithClock(clk), ripple.WithThemeProvider(theme))
	field, err := ripple.New(cfg, opts...)
	if err != nil {
		return err
	}
	layout := field.Resize(grid.Viewport{
		Width:       float64(so.Width),
		Height:      float64(so.Height),
		DeviceScale: so.Scale,
		Engine:      platformEngine(),
	})
	if err := field.Start(); err != nil {
		return err
	}
	defer field.Stop()

	pointer := newPointerTracker(field, pointerMouse)
	w, h := float64(layout.Width), float64(layout.Height)
	field.PushWave(w/2, h/2, mousePressPower)
	rec := render.NewRecorder()
	for i := 0; i < so.Frames; i++ {
		t := float64(i) / float64(max(1, so.Frames-1))
		pointer.Move(w*(0.15+0.7*t), h*(0.3+0.4*t), clk.Now())
		clk.Advance(time.Second / defaultTPS)
		field.Draw(rec)
	}

	if err := writeSnapshot(field.LastFrame(), layout, theme.IsDarkMode(), so.Out); err != nil {
		return err
	}
	log.Printf("snapshot written to %s (%dx%d px, %d fills, %s)",
		so.Out, layout.PixelWidth, layout.PixelHeight, field.LastFrame().Fills(), field.Performance())
	return nil
}

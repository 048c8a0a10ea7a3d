package main

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"ripplegrid/internal/grid"
	"ripplegrid/internal/palette"
	"ripplegrid/internal/render"
	"ripplegrid/internal/ripple"
)

// terminalAlphaGain lifts dot alpha so resting dots stay visible at cell
// resolution.
const terminalAlphaGain = 4

// terminalSurface rasterizes dots into half-block cells: every cell holds two
// vertically stacked samples drawn as '▀' with separate fg and bg colors.
type terminalSurface struct {
	screen   tcell.Screen
	cellW    float64
	cellH    float64
	backdrop colorful.Color

	cols, rows int
	samples    []colorful.Color
	overlay    []string
}

func newTerminalSurface(screen tcell.Screen, dark bool) *terminalSurface {
	s := &terminalSurface{
		screen: screen,
		cellW:  terminalCellWidth,
		cellH:  terminalCellHeight,
	}
	s.setTheme(dark)
	return s
}

func (s *terminalSurface) setTheme(dark bool) {
	s.backdrop, _ = colorful.MakeColor(backdrop(dark))
}

// viewport maps the terminal grid to logical pixels.
func (s *terminalSurface) viewport() grid.Viewport {
	cols, rows := s.screen.Size()
	return grid.Viewport{
		Width:       float64(cols) * s.cellW,
		Height:      float64(rows) * s.cellH,
		DeviceScale: 1,
	}
}

func (s *terminalSurface) Clear() {
	s.cols, s.rows = s.screen.Size()
	n := s.cols * s.rows * 2
	if cap(s.samples) < n {
		s.samples = make([]colorful.Color, n)
	}
	s.samples = s.samples[:n]
	for i := range s.samples {
		s.samples[i] = s.backdrop
	}
}

func (s *terminalSurface) FillDots(c palette.Color, dots []render.Dot) {
	fill := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	alpha := min(1, c.A*terminalAlphaGain)
	sampleH := s.cellH / 2
	for _, d := range dots {
		x := int(d.X / s.cellW)
		y := int(d.Y / sampleH)
		if d.X < 0 || d.Y < 0 || x >= s.cols || y >= s.rows*2 {
			continue
		}
		i := y*s.cols + x
		s.samples[i] = s.samples[i].BlendRgb(fill, alpha)
	}
}

// Present pushes the samples and overlay to the terminal.
func (s *terminalSurface) Present() {
	for row := 0; row < s.rows; row++ {
		for col := 0; col < s.cols; col++ {
			top := s.samples[(2*row)*s.cols+col]
			bottom := s.samples[(2*row+1)*s.cols+col]
			style := tcell.StyleDefault.Foreground(cellColor(top)).Background(cellColor(bottom))
			s.screen.SetContent(col, row, '▀', nil, style)
		}
	}
	textStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	for row, line := range s.overlay {
		if row >= s.rows {
			break
		}
		for col, r := range []rune(line) {
			if col >= s.cols {
				break
			}
			s.screen.SetContent(col, row, r, nil, textStyle)
		}
	}
	s.screen.Show()
}

func cellColor(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// terminalInput turns tcell events into field calls. It runs on the event
// goroutine; the field serializes them against drawing.
type terminalInput struct {
	field   *ripple.Field
	surface *terminalSurface
	mouse   *pointerTracker
	pressed bool
	debug   atomic.Bool
}

// handle applies ev and reports whether the loop should continue.
func (in *terminalInput) handle(ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'p':
			log.Printf("performance: %s", in.field.Performance())
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'd':
			in.debug.Store(!in.debug.Load())
		}
	case *tcell.EventMouse:
		cx, cy := ev.Position()
		x := (float64(cx) + 0.5) * in.surface.cellW
		y := (float64(cy) + 0.5) * in.surface.cellH
		down := ev.Buttons()&tcell.Button1 != 0
		if down && !in.pressed {
			in.mouse.Press(x, y)
		}
		in.pressed = down
		in.mouse.Move(x, y, now)
	case *tcell.EventResize:
		cols, rows := ev.Size()
		in.field.RequestResize(grid.Viewport{
			Width:       float64(cols) * in.surface.cellW,
			Height:      float64(rows) * in.surface.cellH,
			DeviceScale: 1,
		}, now)
	}
	return true
}

// runTerminal renders the field in the terminal until q, Esc or Ctrl-C. Input
// arrives on a polling goroutine while render.Run drives frames from a ticker.
func runTerminal(field *ripple.Field) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	surface := newTerminalSurface(screen, field.IsDarkMode())
	field.Resize(surface.viewport())
	if err := field.Start(); err != nil {
		return err
	}
	defer field.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	input := &terminalInput{
		field:   field,
		surface: surface,
		mouse:   newPointerTracker(field, pointerMouse),
	}
	input.debug.Store(*debugFlag)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if !input.handle(ev, time.Now()) {
				cancel()
				return
			}
		}
	}()

	var walker *autoWalker
	var demo *pointerTracker
	if *demoFlag {
		walker = newAutoWalker(time.Now().UnixNano())
		demo = newPointerTracker(field, pointerMouse)
	}

	ticker := time.NewTicker(terminalFrameDelay)
	defer ticker.Stop()
	present := func() {
		if walker != nil {
			layout := field.Layout()
			x, y := walker.Next(float64(layout.Width), float64(layout.Height))
			demo.Move(x, y, time.Now())
		}
		surface.setTheme(field.IsDarkMode())
		surface.overlay = surface.overlay[:0]
		if input.debug.Load() {
			surface.overlay = append(surface.overlay, field.Performance().String())
			surface.overlay = append(surface.overlay, strings.Split(field.FrameTimes(terminalPlotWidth, terminalPlotHeight), "\n")...)
		}
		surface.Present()
	}
	if err := render.Run(ctx, field, ticker.C, surface, present); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

package main

import (
	"errors"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"ripplegrid/internal/grid"
	"ripplegrid/internal/ripple"
)

// errQuit ends the ebiten loop without reporting a failure.
var errQuit = errors.New("quit")

// Game adapts a ripple field to ebiten's Update/Draw/Layout loop.
type Game struct {
	field   *ripple.Field
	surface *screenSurface

	mouse *pointerTracker
	touch *pointerTracker

	cursorX, cursorY int
	cursorSeen       bool
	touchIDs         []ebiten.TouchID
	newTouchIDs      []ebiten.TouchID

	viewport    grid.Viewport
	hasViewport bool

	walker           *autoWalker
	autoWalk         bool
	autoWalkDeadline time.Time
	autoWalkDone     func()

	lastPerfLog time.Time
}

// newGame wraps field; the field must already be started.
func newGame(field *ripple.Field) *Game {
	return &Game{
		field:   field,
		surface: &screenSurface{scale: 1},
		mouse:   newPointerTracker(field, pointerMouse),
		touch:   newPointerTracker(field, pointerTouch),
		walker:  newAutoWalker(time.Now().UnixNano()),
	}
}

// enableAutoWalk drives the virtual pointer until duration has passed. A
// zero duration walks forever. done runs once when the walk ends.
func (g *Game) enableAutoWalk(duration time.Duration, done func()) {
	g.autoWalk = true
	g.autoWalkDeadline = time.Time{}
	if duration > 0 {
		g.autoWalkDeadline = time.Now().Add(duration)
	}
	g.autoWalkDone = done
}

// Update feeds pointer input to the field and handles hotkeys.
func (g *Game) Update() error {
	now := time.Now()
	scale := g.field.Layout().DPR
	if scale <= 0 {
		scale = 1
	}

	g.handleMouse(now, scale)
	g.handleTouches(now, scale)
	g.stepAutoWalk(now)

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		log.Printf("performance: %s", g.field.Performance())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.saveSnapshot(now)
	}
	if *debugFlag && now.Sub(g.lastPerfLog) >= perfLogInterval {
		log.Printf("performance: %s", g.field.Performance())
		g.lastPerfLog = now
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	return nil
}

func (g *Game) handleMouse(now time.Time, scale float64) {
	x, y := ebiten.CursorPosition()
	fx, fy := float64(x)/scale, float64(y)/scale
	if !g.cursorSeen || x != g.cursorX || y != g.cursorY {
		if g.cursorSeen {
			g.mouse.Move(fx, fy, now)
		}
		g.cursorX, g.cursorY = x, y
		g.cursorSeen = true
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.mouse.Press(fx, fy)
	}
}

func (g *Game) handleTouches(now time.Time, scale float64) {
	g.newTouchIDs = inpututil.AppendJustPressedTouchIDs(g.newTouchIDs[:0])
	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	if len(g.touchIDs) == 0 {
		g.touch.Reset()
		return
	}
	for _, id := range g.newTouchIDs {
		x, y := ebiten.TouchPosition(id)
		g.touch.Press(float64(x)/scale, float64(y)/scale)
	}
	if len(g.newTouchIDs) > 0 {
		for _, id := range g.touchIDs {
			x, y := ebiten.TouchPosition(id)
			g.field.PushWave(float64(x)/scale, float64(y)/scale, multiTouchPower)
		}
	}
	x, y := ebiten.TouchPosition(g.touchIDs[0])
	g.touch.Move(float64(x)/scale, float64(y)/scale, now)
}

func (g *Game) stepAutoWalk(now time.Time) {
	if !g.autoWalk {
		return
	}
	if !g.autoWalkDeadline.IsZero() && now.After(g.autoWalkDeadline) {
		g.autoWalk = false
		if g.autoWalkDone != nil {
			g.autoWalkDone()
			g.autoWalkDone = nil
		}
		return
	}
	layout := g.field.Layout()
	x, y := g.walker.Next(float64(layout.Width), float64(layout.Height))
	g.mouse.Move(x, y, now)
}

// saveSnapshot writes the last drawn frame off the game loop.
func (g *Game) saveSnapshot(now time.Time) {
	frame := g.field.LastFrame()
	layout := g.field.Layout()
	dark := g.field.IsDarkMode()
	go func() {
		path, err := chooseSnapshotPath(now)
		if errors.Is(err, errSnapshotCanceled) {
			return
		}
		if err == nil {
			err = writeSnapshot(frame, layout, dark, path)
		}
		if err != nil {
			log.Printf("snapshot failed: %v", err)
			return
		}
		log.Printf("snapshot saved to %s", path)
	}()
}

// Draw renders one ripple frame onto the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	g.surface.target = screen
	g.surface.scale = float32(g.field.Layout().DPR)
	g.surface.backdrop = backdrop(g.field.IsDarkMode())
	g.field.Draw(g.surface)
	if *debugFlag {
		g.drawOverlay(screen)
	}
}

// Layout requests a debounced resize when the window changes and reports
// the surface size in device pixels.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	v := grid.Viewport{
		Width:       float64(outsideWidth),
		Height:      float64(outsideHeight),
		DeviceScale: deviceScale(),
		Engine:      platformEngine(),
	}
	if !g.hasViewport {
		g.field.Resize(v)
		g.viewport, g.hasViewport = v, true
	} else if v != g.viewport {
		g.field.RequestResize(v, time.Now())
		g.viewport = v
	}
	layout := g.field.Layout()
	return max(1, layout.PixelWidth), max(1, layout.PixelHeight)
}

func deviceScale() float64 {
	if m := ebiten.Monitor(); m != nil {
		return m.DeviceScaleFactor()
	}
	return 1
}

// runWindow opens the ebiten window and blocks until it closes.
func runWindow(field *ripple.Field) error {
	if err := field.Start(); err != nil {
		return err
	}
	defer field.Stop()

	g := newGame(field)
	switch {
	case *recordDefaultPGO:
		stop, err := startDefaultPGORecording("default.pgo")
		if err != nil {
			return err
		}
		log.Printf("recording default.pgo for %v", pgoRecordDuration)
		g.enableAutoWalk(pgoRecordDuration, func() {
			stop()
			log.Printf("default.pgo written")
		})
	case *demoFlag:
		g.enableAutoWalk(0, nil)
	}

	ebiten.SetWindowSize(defaultWidth, defaultHeight)
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(defaultTPS)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	if g.autoWalkDone != nil {
		g.autoWalkDone()
	}
	return nil
}

package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"

	"ripplegrid/internal/palette"
	"ripplegrid/internal/render"
)

// overlayLineSpacing is the baseline distance of the debug overlay.
const overlayLineSpacing = 16

var overlayFace = text.NewGoXFace(basicfont.Face7x13)

// screenSurface fills dot batches onto an ebiten image. Each batch becomes
// one non-zero filled path.
type screenSurface struct {
	target   *ebiten.Image
	scale    float32
	backdrop color.Color

	path vector.Path
}

func (s *screenSurface) Clear() {
	s.target.Fill(s.backdrop)
}

func (s *screenSurface) FillDots(c palette.Color, dots []render.Dot) {
	if len(dots) == 0 {
		return
	}
	s.path.Reset()
	for _, d := range dots {
		x := float32(d.X) * s.scale
		y := float32(d.Y) * s.scale
		r := float32(d.R) * s.scale
		s.path.MoveTo(x+r, y)
		s.path.Arc(x, y, r, 0, 2*math.Pi, vector.Clockwise)
		s.path.Close()
	}
	op := &vector.DrawPathOptions{
		AntiAlias:  true,
		ColorScale: dotColorScale(c),
	}
	vector.FillPath(s.target, &s.path, &vector.FillOptions{FillRule: vector.FillRuleNonZero}, op)
}

// dotColorScale converts a palette color to the premultiplied scale ebiten
// applies to a white fill.
func dotColorScale(c palette.Color) ebiten.ColorScale {
	var cs ebiten.ColorScale
	cs.ScaleWithColor(c)
	return cs
}

// drawOverlay prints performance figures in the top-left corner.
func (g *Game) drawOverlay(screen *ebiten.Image) {
	clr := color.Color(colornames.White)
	if !g.field.IsDarkMode() {
		clr = colornames.Black
	}
	stats := g.field.Performance()
	msg := fmt.Sprintf("%s\ntps %.1f | S: save snapshot | P: log stats", stats, ebiten.ActualTPS())
	op := &text.DrawOptions{}
	op.GeoM.Translate(8, 8)
	op.ColorScale.ScaleWithColor(clr)
	op.LineSpacing = overlayLineSpacing
	text.Draw(screen, msg, overlayFace, op)
}

package render

import "ripplegrid/internal/palette"

// Dot is one filled circle in surface coordinates.
type Dot struct {
	X, Y float64
	R    float64
}

// Surface is a drawing target. FillDots adds every dot to one path and fills
// it once with c.
type Surface interface {
	Clear()
	FillDots(c palette.Color, dots []Dot)
}

// Batch is one recorded fill.
type Batch struct {
	Color palette.Color
	Dots  []Dot
}

// Frame is the fill sequence of one tick.
type Frame struct {
	Batches []Batch
}

// Replay clears s and issues the recorded fills in order.
func (f Frame) Replay(s Surface) {
	s.Clear()
	for _, b := range f.Batches {
		s.FillDots(b.Color, b.Dots)
	}
}

// Fills returns the number of fill calls in the frame.
func (f Frame) Fills() int { return len(f.Batches) }

// Dots returns the total number of dots drawn.
func (f Frame) Dots() int {
	n := 0
	for _, b := range f.Batches {
		n += len(b.Dots)
	}
	return n
}

// Recorder is a Surface that keeps the fills issued since the last Clear.
// Frames returned by Frame stay valid after later draws.
type Recorder struct {
	frame  Frame
	clears int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Clear() {
	r.frame = Frame{}
	r.clears++
}

func (r *Recorder) FillDots(c palette.Color, dots []Dot) {
	r.frame.Batches = append(r.frame.Batches, Batch{
		Color: c,
		Dots:  append([]Dot(nil), dots...),
	})
}

// Frame returns the fills recorded since the last Clear.
func (r *Recorder) Frame() Frame { return r.frame }

// Clears reports how many times Clear was called.
func (r *Recorder) Clears() int { return r.clears }

type tee []Surface

// Tee returns a Surface that forwards every call to each of surfaces.
func Tee(surfaces ...Surface) Surface { return tee(surfaces) }

func (t tee) Clear() {
	for _, s := range t {
		s.Clear()
	}
}

func (t tee) FillDots(c palette.Color, dots []Dot) {
	for _, s := range t {
		s.FillDots(c, dots)
	}
}

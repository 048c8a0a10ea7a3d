// Package expfast approximates e^-x with a fixed-resolution lookup table.
package expfast

import (
	"errors"
	"fmt"
	"math"
)

// Default table resolution and domain.
const (
	DefaultSize = 2048
	DefaultMax  = 8.0
)

// ErrInvalidTable reports a table configuration that leaves the bucket
// index undefined.
var ErrInvalidTable = errors.New("invalid exp table configuration")

// Table holds e^-x sampled over [0, max) in size buckets.
type Table struct {
	values []float32
	max    float64
	scale  float64
}

// New builds a table whose bucket i stores e^-(i/size*max).
func New(size int, max float64) (*Table, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidTable, size)
	}
	if !(max > 0) || math.IsInf(max, 1) {
		return nil, fmt.Errorf("%w: max %v", ErrInvalidTable, max)
	}
	t := &Table{
		values: make([]float32, size),
		max:    max,
		scale:  float64(size) / max,
	}
	for i := range t.values {
		x := float64(i) / float64(size) * max
		t.values[i] = float32(math.Exp(-x))
	}
	return t, nil
}

// MustNew is New for package-level defaults; it panics on a bad configuration.
func MustNew(size int, max float64) *Table {
	t, err := New(size, max)
	if err != nil {
		panic(err)
	}
	return t
}

// Exp returns the table value for e^-x. Inputs at or below zero map to 1,
// inputs at or beyond the domain end (and NaN) map to 0.
func (t *Table) Exp(x float64) float64 {
	if x <= 0 {
		return 1
	}
	if !(x < t.max) {
		return 0
	}
	idx := int(x * t.scale)
	if idx >= len(t.values) {
		idx = len(t.values) - 1
	}
	return float64(t.values[idx])
}

// Max returns the upper end of the domain.
func (t *Table) Max() float64 { return t.max }

// Len returns the number of buckets.
func (t *Table) Len() int { return len(t.values) }

// Values exposes the raw buckets. Callers must not modify the slice.
func (t *Table) Values() []float32 { return t.values }

package ripple

import "time"

// Debouncer holds the latest request until delay has passed without a newer
// one.
type Debouncer[T any] struct {
	delay    time.Duration
	pending  bool
	deadline time.Time
	value    T
}

// NewDebouncer returns a debouncer with the given quiet period.
func NewDebouncer[T any](delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{delay: delay}
}

// Request replaces any pending value and restarts the quiet period at now.
func (d *Debouncer[T]) Request(v T, now time.Time) {
	d.value = v
	d.pending = true
	d.deadline = now.Add(d.delay)
}

// Pending reports whether a request is waiting.
func (d *Debouncer[T]) Pending() bool { return d.pending }

// Ready returns the pending value once its quiet period has elapsed and
// clears it.
func (d *Debouncer[T]) Ready(now time.Time) (T, bool) {
	var zero T
	if !d.pending || now.Before(d.deadline) {
		return zero, false
	}
	v := d.value
	d.pending = false
	d.value = zero
	return v, true
}

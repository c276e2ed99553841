// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package posture

// DefaultWindowCapacity is the number of recent angle samples kept per
// tracked axis for smoothing and variance estimation.
const DefaultWindowCapacity = 20

// Window is a fixed-capacity FIFO buffer of recent float values,
// implemented as a ring so Push is O(1) and the backing slice is never
// aliased by callers. One instance exists per tracked axis.
type Window struct {
	buf   []float64
	head  int // index of oldest value
	count int
}

// NewWindow creates a window with the given capacity. Capacities below
// 1 fall back to DefaultWindowCapacity.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = DefaultWindowCapacity
	}
	return &Window{buf: make([]float64, capacity)}
}

// Push appends a value, evicting the oldest entry once the window is
// full. Insertion order is arrival order.
func (w *Window) Push(v float64) {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = v
		w.count++
		return
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

// Len returns the number of values currently held.
func (w *Window) Len() int { return w.count }

// Cap returns the fixed capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Reset discards all held values.
func (w *Window) Reset() {
	w.head = 0
	w.count = 0
}

// Values returns the held values in arrival order, oldest first. The
// returned slice is a copy.
func (w *Window) Values() []float64 {
	out := make([]float64, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// Average returns the mean of the held values, or 0 when empty.
func (w *Window) Average() float64 {
	if w.count == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < w.count; i++ {
		sum += w.buf[(w.head+i)%len(w.buf)]
	}
	return sum / float64(w.count)
}

// Variance returns the population variance of the held values. Fewer
// than 2 samples yields 0 rather than a meaningless statistic.
func (w *Window) Variance() float64 {
	if w.count < 2 {
		return 0
	}
	mean := w.Average()
	sum := 0.0
	for i := 0; i < w.count; i++ {
		d := w.buf[(w.head+i)%len(w.buf)] - mean
		sum += d * d
	}
	return sum / float64(w.count)
}

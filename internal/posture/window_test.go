// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowPushEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	w.Push(1)
	w.Push(2)
	w.Push(3)
	require.Equal(t, 3, w.Len())

	// One past capacity: the oldest value leaves, order is preserved.
	w.Push(4)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []float64{2, 3, 4}, w.Values())

	w.Push(5)
	w.Push(6)
	assert.Equal(t, []float64{4, 5, 6}, w.Values())
}

func TestWindowAverage(t *testing.T) {
	w := NewWindow(4)
	assert.Equal(t, 0.0, w.Average(), "empty window averages to zero")

	w.Push(2)
	w.Push(4)
	w.Push(6)
	assert.InDelta(t, 4.0, w.Average(), 1e-9)

	// Wrap around and confirm the average follows the live contents.
	w.Push(8)
	w.Push(10)
	assert.InDelta(t, 7.0, w.Average(), 1e-9)
}

func TestWindowVariance(t *testing.T) {
	w := NewWindow(10)
	assert.Equal(t, 0.0, w.Variance(), "empty window")

	w.Push(5)
	assert.Equal(t, 0.0, w.Variance(), "single sample")

	w.Push(5)
	assert.Equal(t, 0.0, w.Variance(), "identical samples")

	w.Reset()
	// Population variance of {2, 4, 4, 4, 5, 5, 7, 9} is 4.
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		w.Push(v)
	}
	assert.InDelta(t, 4.0, w.Variance(), 1e-9)
}

func TestWindowReset(t *testing.T) {
	w := NewWindow(3)
	w.Push(1)
	w.Push(2)
	w.Reset()

	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 3, w.Cap())
	assert.Empty(t, w.Values())

	w.Push(9)
	assert.Equal(t, []float64{9}, w.Values())
}

func TestNewWindowInvalidCapacity(t *testing.T) {
	w := NewWindow(0)
	assert.Equal(t, DefaultWindowCapacity, w.Cap())
}

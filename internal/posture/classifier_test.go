// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fillWindow returns a window holding the value n times.
func fillWindow(v float64, n int) *Window {
	w := NewWindow(DefaultWindowCapacity)
	for i := 0; i < n; i++ {
		w.Push(v)
	}
	return w
}

// stillProfile is a baseline at zero with floor thresholds
// (good 12/10, warning 22/18, bad 32).
func stillProfile() Profile {
	return NewProfile(0, 0, 0.1, 0.1)
}

func TestClassifyNeedsMinimumSamples(t *testing.T) {
	p := stillProfile()

	state, msg := Classify(fillWindow(0, 2), fillWindow(0, 2), p)
	assert.Equal(t, StateNeutral, state)
	assert.Equal(t, MsgAnalyzing, msg)

	// Both windows must clear the minimum.
	state, _ = Classify(fillWindow(0, 5), fillWindow(0, 2), p)
	assert.Equal(t, StateNeutral, state)
}

func TestClassifyGoodRequiresBothAxes(t *testing.T) {
	p := stillProfile()

	// Small deviations on both axes: good.
	state, msg := Classify(fillWindow(5, 10), fillWindow(2, 10), p)
	assert.Equal(t, StateGood, state)
	assert.Equal(t, MsgGood, msg)

	// Pitch within the good band but roll outside it (yet under
	// warning): neither good nor warning, lands in neutral.
	state, msg = Classify(fillWindow(5, 10), fillWindow(14, 10), p)
	assert.Equal(t, StateNeutral, state)
	assert.Equal(t, MsgNeutral, msg)
}

func TestClassifyWarningOnEitherAxis(t *testing.T) {
	p := stillProfile()

	state, msg := Classify(fillWindow(25, 10), fillWindow(0, 10), p)
	assert.Equal(t, StateWarning, state)
	assert.Equal(t, "Leaning forward", msg)

	state, msg = Classify(fillWindow(0, 10), fillWindow(-20, 10), p)
	assert.Equal(t, StateWarning, state)
	assert.Equal(t, "Head tilted left", msg)
}

func TestClassifyBadSlouch(t *testing.T) {
	p := stillProfile()

	state, msg := Classify(fillWindow(45, 10), fillWindow(0, 10), p)
	assert.Equal(t, StateBad, state)
	assert.Equal(t, "Leaning too far forward", msg)

	state, msg = Classify(fillWindow(-40, 10), fillWindow(0, 10), p)
	assert.Equal(t, StateBad, state)
	assert.Equal(t, "Leaning too far back", msg)
}

func TestClassifyBadRollUsesSharedThreshold(t *testing.T) {
	p := stillProfile()

	// Roll deviation above WarningRoll but below BadPitch: warning.
	state, _ := Classify(fillWindow(0, 10), fillWindow(25, 10), p)
	assert.Equal(t, StateWarning, state)

	// Above the shared bad threshold: bad, named on the roll axis.
	state, msg := Classify(fillWindow(0, 10), fillWindow(35, 10), p)
	assert.Equal(t, StateBad, state)
	assert.Equal(t, "Head tilted far right", msg)
}

func TestClassifyDeviationsAreBaselineRelative(t *testing.T) {
	// Someone calibrated at a natural 10 degree forward posture.
	p := NewProfile(10, 0, 0.1, 0.1)

	state, _ := Classify(fillWindow(12, 10), fillWindow(0, 10), p)
	assert.Equal(t, StateGood, state, "near the personal baseline")

	state, msg := Classify(fillWindow(-25, 10), fillWindow(0, 10), p)
	assert.Equal(t, StateBad, state, "35 degrees behind the baseline")
	assert.Equal(t, "Leaning too far back", msg)
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProfileStillCalibrationHitsFloors(t *testing.T) {
	// A perfectly still calibration has near-zero stddev; the floors
	// must keep the bands usable.
	p := NewProfile(0, 0, 0.1, 0.1)

	assert.Equal(t, 12.0, p.GoodPitch)
	assert.Equal(t, 22.0, p.WarningPitch)
	assert.Equal(t, 32.0, p.BadPitch)
	assert.Equal(t, 10.0, p.GoodRoll)
	assert.Equal(t, 18.0, p.WarningRoll)
}

func TestNewProfileNoisyCalibrationScales(t *testing.T) {
	p := NewProfile(5, -2, 10, 8)

	assert.Equal(t, 5.0, p.BaselinePitch)
	assert.Equal(t, -2.0, p.BaselineRoll)
	assert.InDelta(t, 15.0, p.GoodPitch, 1e-9)
	assert.InDelta(t, 25.0, p.WarningPitch, 1e-9)
	assert.InDelta(t, 35.0, p.BadPitch, 1e-9)
	assert.InDelta(t, 12.0, p.GoodRoll, 1e-9)
	assert.InDelta(t, 20.0, p.WarningRoll, 1e-9)
}

func TestNewProfileBandsOrdered(t *testing.T) {
	for _, std := range []float64{0, 0.5, 3, 7.9, 8, 20, 100} {
		p := NewProfile(0, 0, std, std)
		assert.Less(t, p.GoodPitch, p.WarningPitch, "pitchStd=%g", std)
		assert.Less(t, p.WarningPitch, p.BadPitch, "pitchStd=%g", std)
		assert.Less(t, p.GoodRoll, p.WarningRoll, "rollStd=%g", std)
		assert.LessOrEqual(t, p.WarningRoll, p.BadPitch, "rollStd=%g", std)
	}
}

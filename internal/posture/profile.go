// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package posture

import "math"

// Threshold floors in degrees. A very still calibration produces a
// near-zero stddev, so the floors keep the bands usable for everyone.
const (
	minPitchStd = 3.0
	minRollStd  = 2.5

	goodPitchFloor    = 12.0
	warningPitchFloor = 22.0
	badPitchFloor     = 32.0
	goodRollFloor     = 10.0
	warningRollFloor  = 18.0
)

// Profile is a personal posture baseline with adaptive deviation
// thresholds. It is created wholesale by a successful calibration run,
// replaced wholesale on recalibration, and never partially mutated.
//
// There is deliberately no separate bad threshold for roll: the bad
// band compares both axes against BadPitch. Earlier iterations of the
// app disagreed on this point; the shared threshold is the behaviour
// fixed here.
type Profile struct {
	BaselinePitch float64 `json:"baseline_pitch"`
	BaselineRoll  float64 `json:"baseline_roll"`
	PitchStd      float64 `json:"pitch_std"`
	RollStd       float64 `json:"roll_std"`

	GoodPitch    float64 `json:"good_pitch"`
	WarningPitch float64 `json:"warning_pitch"`
	BadPitch     float64 `json:"bad_pitch"`
	GoodRoll     float64 `json:"good_roll"`
	WarningRoll  float64 `json:"warning_roll"`
}

// NewProfile derives a profile from the calibrated baseline angles and
// the population standard deviations of the accepted samples. The
// multiplier progression plus the floors guarantee good < warning < bad
// on both axes.
func NewProfile(baselinePitch, baselineRoll, pitchStd, rollStd float64) Profile {
	pitchMult := math.Max(pitchStd, minPitchStd)
	rollMult := math.Max(rollStd, minRollStd)

	return Profile{
		BaselinePitch: baselinePitch,
		BaselineRoll:  baselineRoll,
		PitchStd:      pitchStd,
		RollStd:       rollStd,

		GoodPitch:    math.Max(pitchMult*1.5, goodPitchFloor),
		WarningPitch: math.Max(pitchMult*2.5, warningPitchFloor),
		BadPitch:     math.Max(pitchMult*3.5, badPitchFloor),
		GoodRoll:     math.Max(rollMult*1.5, goodRollFloor),
		WarningRoll:  math.Max(rollMult*2.5, warningRollFloor),
	}
}

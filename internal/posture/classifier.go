// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package posture

import "math"

// minClassifySamples is the smallest smoothing window content for which
// a classification is meaningful; below it the classifier reports
// Neutral with an "analyzing" message instead of failing.
const minClassifySamples = 3

// Human-readable posture messages.
const (
	MsgAnalyzing = "Analyzing posture..."
	MsgGood      = "Good posture"
	MsgNeutral   = "Acceptable posture, could improve"
)

// Classify maps the smoothed pitch/roll angles to a posture state and a
// directional message, given a calibration profile.
//
// Decision order is bad > warning > good > neutral: the bad and warning
// bands trigger on either axis (OR), while the good band requires both
// axes to be within their thresholds (AND). Angles that clear the
// warning band on one axis but miss the good band on the other land in
// Neutral. The bad band compares both axes against the single BadPitch
// threshold (see Profile).
func Classify(pitchWin, rollWin *Window, p Profile) (State, string) {
	if pitchWin.Len() < minClassifySamples || rollWin.Len() < minClassifySamples {
		return StateNeutral, MsgAnalyzing
	}

	signedPitch := pitchWin.Average() - p.BaselinePitch
	signedRoll := rollWin.Average() - p.BaselineRoll
	pitchDev := math.Abs(signedPitch)
	rollDev := math.Abs(signedRoll)

	switch {
	case pitchDev > p.BadPitch || rollDev > p.BadPitch:
		return StateBad, directionalMessage(signedPitch, signedRoll, true)
	case pitchDev > p.WarningPitch || rollDev > p.WarningRoll:
		return StateWarning, directionalMessage(signedPitch, signedRoll, false)
	case pitchDev <= p.GoodPitch && rollDev <= p.GoodRoll:
		return StateGood, MsgGood
	default:
		return StateNeutral, MsgNeutral
	}
}

// directionalMessage names the worse axis and the direction of the
// signed deviation on it.
func directionalMessage(signedPitch, signedRoll float64, severe bool) string {
	if math.Abs(signedPitch) >= math.Abs(signedRoll) {
		dir := "forward"
		if signedPitch < 0 {
			dir = "back"
		}
		if severe {
			return "Leaning too far " + dir
		}
		return "Leaning " + dir
	}
	dir := "right"
	if signedRoll < 0 {
		dir = "left"
	}
	if severe {
		return "Head tilted far " + dir
	}
	return "Head tilted " + dir
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package posture

// State is the current posture classification. Exactly one value is
// current at any time; transitions are driven by the classifier while
// monitoring and by the calibration engine while calibrating.
type State string

const (
	StateCalibrating State = "calibrating"
	StateNeutral     State = "neutral"
	StateGood        State = "good"
	StateWarning     State = "warning"
	StateBad         State = "bad"
)

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package calibration

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/posture_monitor/internal/orientation"
	"github.com/relabs-tech/posture_monitor/internal/posture"
)

// Phase is the engine's position in its lifecycle:
// Idle → Collecting → {Complete | Failed} → Idle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCollecting Phase = "collecting"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
)

// Outcome is the terminal result of a calibration run.
type Outcome string

const (
	// OutcomeComplete: enough still samples were gathered, a profile exists.
	OutcomeComplete Outcome = "complete"
	// OutcomeFailed: the time budget elapsed with too few still samples.
	// The caller must retry Start; no partial profile is ever produced.
	OutcomeFailed Outcome = "failed"
	// OutcomeAborted: the caller cancelled mid-run (disconnect, explicit
	// cancel). Distinct from Failed: not a data-quality problem.
	OutcomeAborted Outcome = "aborted"
)

// Result describes a finished run. Profile is set only for OutcomeComplete.
type Result struct {
	Outcome   Outcome
	Profile   *posture.Profile
	Collected int
	Required  int
}

// Params controls a calibration run.
type Params struct {
	RequiredSamples   int           // target count of still, accepted samples
	Budget            time.Duration // collection time budget
	MovementThreshold float64       // base stillness threshold (variance, deg²)
}

// DefaultParams matches the tuning of the shipped headset app: 50
// samples in 5 s at ~50 Hz leaves generous headroom for gated samples.
func DefaultParams() Params {
	return Params{
		RequiredSamples:   50,
		Budget:            5 * time.Second,
		MovementThreshold: 0.05,
	}
}

// minCompletionRatio is the fraction of RequiredSamples that must be
// gathered within the budget for a run to succeed.
const minCompletionRatio = 0.8

// Engine is the guided-calibration state machine. Offer is driven by
// the sample path; the collected counter is atomic so a periodic
// progress ticker can read it without touching the sample sets.
// All other state is owned by the sample path's serialization (the
// monitor pipeline holds its lock across Offer/Finish/Cancel).
type Engine struct {
	params Params

	phase        Phase
	startedAt    time.Time
	pitchSamples []float64
	rollSamples  []float64
	collected    atomic.Int64
}

// NewEngine creates an idle engine. Zero-valued params fall back to defaults.
func NewEngine(params Params) *Engine {
	def := DefaultParams()
	if params.RequiredSamples <= 0 {
		params.RequiredSamples = def.RequiredSamples
	}
	if params.Budget <= 0 {
		params.Budget = def.Budget
	}
	if params.MovementThreshold <= 0 {
		params.MovementThreshold = def.MovementThreshold
	}
	return &Engine{params: params, phase: PhaseIdle}
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase { return e.phase }

// Collecting reports whether a run is in flight.
func (e *Engine) Collecting() bool { return e.phase == PhaseCollecting }

// Params returns the run parameters.
func (e *Engine) Params() Params { return e.params }

// Start begins a new collection run, resetting all counters. Starting
// while already collecting restarts the run.
func (e *Engine) Start(now time.Time) {
	e.phase = PhaseCollecting
	e.startedAt = now
	e.pitchSamples = e.pitchSamples[:0]
	e.rollSamples = e.rollSamples[:0]
	e.collected.Store(0)
}

// Offer feeds one orientation estimate plus the current smoothing
// window variances into the run. The sample is accepted only if both
// axes are still enough (variance below twice the movement threshold),
// so a moving head cannot poison the baseline. It returns a non-nil
// Result when the offer finishes the run, either by reaching the
// required count or by exhausting the time budget.
func (e *Engine) Offer(o orientation.Orientation, pitchVar, rollVar float64, now time.Time) *Result {
	if e.phase != PhaseCollecting {
		return nil
	}

	gate := e.params.MovementThreshold * 2
	if pitchVar < gate && rollVar < gate {
		e.pitchSamples = append(e.pitchSamples, o.Pitch)
		e.rollSamples = append(e.rollSamples, o.Roll)
		e.collected.Store(int64(len(e.pitchSamples)))
	}

	if len(e.pitchSamples) >= e.params.RequiredSamples {
		return e.finish()
	}
	if now.Sub(e.startedAt) >= e.params.Budget {
		return e.finish()
	}
	return nil
}

// Expired reports whether the time budget has elapsed. The progress
// ticker uses it to finish a run even when no further samples arrive.
func (e *Engine) Expired(now time.Time) bool {
	return e.phase == PhaseCollecting && now.Sub(e.startedAt) >= e.params.Budget
}

// Finish ends the run by timeout, producing Complete or Failed
// depending on how many still samples were gathered.
func (e *Engine) Finish() *Result {
	if e.phase != PhaseCollecting {
		return nil
	}
	return e.finish()
}

// Cancel aborts an in-flight run without producing a profile or a
// failure. Cancelling an idle engine is a no-op returning nil.
func (e *Engine) Cancel() *Result {
	if e.phase != PhaseCollecting {
		return nil
	}
	res := &Result{
		Outcome:   OutcomeAborted,
		Collected: len(e.pitchSamples),
		Required:  e.params.RequiredSamples,
	}
	e.reset()
	return res
}

// Progress reports collected/required as a 0-100 percentage plus the
// remaining-sample count. Safe to call from the progress ticker while
// the sample path is writing: it reads only the atomic counter.
func (e *Engine) Progress() (percent float64, remaining int) {
	collected := int(e.collected.Load())
	remaining = e.params.RequiredSamples - collected
	if remaining < 0 {
		remaining = 0
	}
	percent = float64(collected) / float64(e.params.RequiredSamples) * 100
	if percent > 100 {
		percent = 100
	}
	return percent, remaining
}

func (e *Engine) finish() *Result {
	collected := len(e.pitchSamples)
	res := &Result{
		Collected: collected,
		Required:  e.params.RequiredSamples,
	}

	if float64(collected) < minCompletionRatio*float64(e.params.RequiredSamples) {
		res.Outcome = OutcomeFailed
		e.reset()
		return res
	}

	baselinePitch, pitchStd := meanStd(e.pitchSamples)
	baselineRoll, rollStd := meanStd(e.rollSamples)
	profile := posture.NewProfile(baselinePitch, baselineRoll, pitchStd, rollStd)

	res.Outcome = OutcomeComplete
	res.Profile = &profile
	e.reset()
	return res
}

func (e *Engine) reset() {
	e.phase = PhaseIdle
	e.resetSamples()
}

func (e *Engine) resetSamples() {
	e.pitchSamples = e.pitchSamples[:0]
	e.rollSamples = e.rollSamples[:0]
	e.collected.Store(0)
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

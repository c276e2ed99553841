package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/posture_monitor/internal/accel"
)

func TestEstimateUprightIsLevel(t *testing.T) {
	// Gravity straight down the z axis: the head is level.
	o := Estimate(accel.Sample{X: 0, Y: 0, Z: 1})

	assert.InDelta(t, 0.0, o.Pitch, 1e-9)
	assert.InDelta(t, 0.0, o.Roll, 1e-9)
	assert.InDelta(t, 1.0, o.Magnitude, 1e-9)
}

func TestEstimateForwardTiltIsPositivePitch(t *testing.T) {
	// 45 degree forward tilt splits gravity between x and z.
	s := accel.Sample{X: math.Sin(math.Pi / 4), Y: 0, Z: math.Cos(math.Pi / 4)}
	o := Estimate(s)

	assert.InDelta(t, 45.0, o.Pitch, 1e-9)
	assert.InDelta(t, 0.0, o.Roll, 1e-9)

	// Tilting back flips the sign.
	s.X = -s.X
	o = Estimate(s)
	assert.InDelta(t, -45.0, o.Pitch, 1e-9)
}

func TestEstimateSidewaysTiltIsRoll(t *testing.T) {
	s := accel.Sample{X: 0, Y: math.Sin(math.Pi / 6), Z: math.Cos(math.Pi / 6)}
	o := Estimate(s)

	assert.InDelta(t, 30.0, o.Roll, 1e-9)
	assert.InDelta(t, 0.0, o.Pitch, 1e-6)
}

func TestEstimateMagnitude(t *testing.T) {
	o := Estimate(accel.Sample{X: 3, Y: 4, Z: 12})
	assert.InDelta(t, 13.0, o.Magnitude, 1e-9)
}

func TestEstimateSanitizesNaN(t *testing.T) {
	o := Estimate(accel.Sample{X: math.NaN(), Y: math.NaN(), Z: 1})

	assert.False(t, math.IsNaN(o.Pitch))
	assert.False(t, math.IsNaN(o.Roll))
	assert.False(t, math.IsNaN(o.Yaw))
	assert.InDelta(t, 1.0, o.Magnitude, 1e-9)
}

package orientation

import (
	"math"

	"github.com/relabs-tech/posture_monitor/internal/accel"
)

// Orientation is the canonical tilt estimate derived from one
// acceleration sample. All angles are in degrees within atan2's
// [-180, 180] range; no extra normalization is applied.
type Orientation struct {
	Pitch     float64 `json:"pitch"`
	Roll      float64 `json:"roll"`
	Yaw       float64 `json:"yaw"`
	Magnitude float64 `json:"magnitude"` // Euclidean norm in g, ~1.0 when still
}

// Estimate computes pitch/roll/yaw and vector magnitude from a single
// accelerometer sample. It is a pure function and never fails; NaN axis
// values are treated as 0 so a partial sample still yields a defined
// (if lossy) result rather than poisoning downstream statistics.
//
// Sign convention: forward head tilt produces positive pitch
// (pitch = atan2(x, sqrt(y²+z²))). Earlier iterations of this project
// used atan2(-x, ...); the positive-forward form is the one fixed here.
//
//	pitch = atan2(x, sqrt(y² + z²))
//	roll  = atan2(y, z)
//	yaw   = atan2(y, x)
func Estimate(s accel.Sample) Orientation {
	x := sanitize(s.X)
	y := sanitize(s.Y)
	z := sanitize(s.Z)

	return Orientation{
		Pitch:     math.Atan2(x, math.Sqrt(y*y+z*z)) * 180.0 / math.Pi,
		Roll:      math.Atan2(y, z) * 180.0 / math.Pi,
		Yaw:       math.Atan2(y, x) * 180.0 / math.Pi,
		Magnitude: math.Sqrt(x*x + y*y + z*z),
	}
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

package accel

// Sample represents a single raw 3-axis acceleration reading from the
// head-worn sensor, in units of g.
type Sample struct {
	Seq uint64 `json:"seq"` // producer sequence number, monotonic per connection

	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Handler receives samples one at a time, in arrival order.
type Handler func(Sample)

// Source is anything that can deliver acceleration samples over time:
// an MQTT subscription, a serial tether, a replay file in tests.
// Subscribe registers a handler and returns a cancel function that
// stops delivery. Cancel must be safe to call more than once.
type Source interface {
	Subscribe(h Handler) (cancel func(), err error)
}

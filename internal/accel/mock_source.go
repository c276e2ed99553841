// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package accel

import (
	"math"
	"sync"
	"time"
)

type mockSource struct {
	interval time.Duration
}

// NewMockSource creates a synthetic sample source that generates a
// smooth swaying head at the given interval: gravity mostly on Z with a
// gentle sinusoidal forward/back and side/side component. Useful for
// running the full pipeline without hardware.
func NewMockSource(interval time.Duration) Source {
	return &mockSource{interval: interval}
}

func (m *mockSource) Subscribe(h Handler) (func(), error) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		start := time.Now()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		var seq uint64
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				elapsed := time.Since(start).Seconds()
				seq++
				h(Sample{
					Seq: seq,
					X:   0.08 * math.Sin(elapsed*0.3),
					Y:   0.05 * math.Cos(elapsed*0.2),
					Z:   1.0,
				})
			}
		}
	}()

	cancel := func() {
		once.Do(func() { close(done) })
	}
	return cancel, nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package headset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/posture_monitor/internal/accel"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	in := accel.Sample{Seq: 1234, X: 0.0211, Y: -0.0035, Z: 0.9987}

	line := Encode(in)
	out, err := Parse(line)
	require.NoError(t, err)

	assert.Equal(t, in.Seq, out.Seq)
	assert.InDelta(t, in.X, out.X, 1e-4)
	assert.InDelta(t, in.Y, out.Y, 1e-4)
	assert.InDelta(t, in.Z, out.Z, 1e-4)
}

func TestParseKnownSentence(t *testing.T) {
	s, err := Parse(Encode(accel.Sample{Seq: 7, X: 0.5, Y: -0.25, Z: 0.75}))
	require.NoError(t, err)

	assert.Equal(t, uint64(7), s.Seq)
	assert.InDelta(t, 0.5, s.X, 1e-9)
	assert.InDelta(t, -0.25, s.Y, 1e-9)
	assert.InDelta(t, 0.75, s.Z, 1e-9)
}

func TestParseRejectsBadChecksum(t *testing.T) {
	_, err := Parse("$PACC,1,0.0000,0.0000,1.0000*00")
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, line := range []string{
		"",
		"not a sentence",
		"$PACC,1,0.0", // truncated, no checksum
	} {
		_, err := Parse(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestParseRejectsOtherSentenceTypes(t *testing.T) {
	// A well-formed NMEA sentence of another type parses as NMEA but is
	// not an acceleration sample.
	_, err := Parse("$GPGLL,4916.45,N,12311.12,W,225444,A,*1D")
	assert.Error(t, err)
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package headset

import (
	"fmt"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/posture_monitor/internal/accel"
)

// TypePACC is the proprietary sentence type the headset firmware emits
// over its serial tether, one sentence per accelerometer sample:
//
//	$PACC,<seq>,<x>,<y>,<z>*hh
//
// with x/y/z in g and the standard NMEA XOR checksum.
//
// go-nmea treats the leading 'P' of proprietary sentences as the talker
// ID, so the registered sentence type omits it (same convention as the
// library's own TypePGRME = "GRME").
const TypePACC = "ACC"

// PACC is a parsed headset acceleration sentence.
type PACC struct {
	nmea.BaseSentence
	Seq int64
	X   float64
	Y   float64
	Z   float64
}

func init() {
	nmea.MustRegisterParser(TypePACC, func(s nmea.BaseSentence) (nmea.Sentence, error) {
		p := nmea.NewParser(s)
		return PACC{
			BaseSentence: s,
			Seq:          p.Int64(0, "seq"),
			X:            p.Float64(1, "x"),
			Y:            p.Float64(2, "y"),
			Z:            p.Float64(3, "z"),
		}, p.Err()
	})
}

// Parse decodes one serial line into a sample. Lines that are not valid
// PACC sentences (checksum failures, partial lines, other sentence
// types from the firmware) are reported as errors so the caller can
// skip them and keep reading.
func Parse(line string) (accel.Sample, error) {
	sentence, err := nmea.Parse(line)
	if err != nil {
		return accel.Sample{}, fmt.Errorf("headset sentence parse: %w", err)
	}

	p, ok := sentence.(PACC)
	if !ok {
		return accel.Sample{}, fmt.Errorf("unexpected sentence type %q", sentence.DataType())
	}

	return accel.Sample{
		Seq: uint64(p.Seq),
		X:   p.X,
		Y:   p.Y,
		Z:   p.Z,
	}, nil
}

// Encode renders a sample as a PACC sentence, checksum included. Used
// by the firmware simulator and tests; the real headset produces the
// same format.
func Encode(s accel.Sample) string {
	body := fmt.Sprintf("PACC,%d,%.4f,%.4f,%.4f", s.Seq, s.X, s.Y, s.Z)
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

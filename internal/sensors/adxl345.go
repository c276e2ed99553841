// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/posture_monitor/internal/accel"
	"github.com/relabs-tech/posture_monitor/internal/config"
)

// ADXL345 registers.
const (
	regDevID      = 0x00
	regBWRate     = 0x2C
	regPowerCtl   = 0x2D
	regDataFormat = 0x31
	regDataX0     = 0x32

	devIDADXL345 = 0xE5

	bwRate100Hz       = 0x0A
	powerCtlMeasure   = 0x08
	dataFormatFullRes = 0x08

	// In full-resolution mode the scale factor is 3.9 mg/LSB
	// regardless of the selected range.
	lsbPerG = 256.0
)

// AccelReader reads one raw acceleration sample from hardware.
type AccelReader interface {
	Read() (accel.Sample, error)
}

type adxl345 struct {
	dev *i2c.Dev
	seq uint64
}

// NewADXL345 initializes the prototype rig's ADXL345 accelerometer over
// I2C: verifies the device ID, sets 100 Hz output, full resolution with
// the configured range, and enables measurement.
func NewADXL345() (AccelReader, error) {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("adxl345: periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.IMUI2CBus)
	if err != nil {
		return nil, fmt.Errorf("adxl345: i2c open on bus %s: %w", cfg.IMUI2CBus, err)
	}

	dev := &i2c.Dev{Addr: cfg.IMUI2CAddr, Bus: bus}

	id := make([]byte, 1)
	if err := dev.Tx([]byte{regDevID}, id); err != nil {
		return nil, fmt.Errorf("adxl345: read device ID: %w", err)
	}
	if id[0] != devIDADXL345 {
		return nil, fmt.Errorf("adxl345: unexpected device ID 0x%02X at 0x%02X", id[0], cfg.IMUI2CAddr)
	}

	if err := dev.Tx([]byte{regBWRate, bwRate100Hz}, nil); err != nil {
		return nil, fmt.Errorf("adxl345: set data rate: %w", err)
	}
	if err := dev.Tx([]byte{regDataFormat, dataFormatFullRes | cfg.IMUAccelRange}, nil); err != nil {
		return nil, fmt.Errorf("adxl345: set data format: %w", err)
	}
	if err := dev.Tx([]byte{regPowerCtl, powerCtlMeasure}, nil); err != nil {
		return nil, fmt.Errorf("adxl345: enable measurement: %w", err)
	}

	log.Printf("adxl345: initialized at 0x%02X on bus %s (range code %d, 100 Hz)",
		cfg.IMUI2CAddr, cfg.IMUI2CBus, cfg.IMUAccelRange)

	return &adxl345{dev: dev}, nil
}

// Read performs one burst read of the six data registers and converts
// the little-endian counts to g.
func (a *adxl345) Read() (accel.Sample, error) {
	raw := make([]byte, 6)
	if err := a.dev.Tx([]byte{regDataX0}, raw); err != nil {
		return accel.Sample{}, fmt.Errorf("adxl345: read data registers: %w", err)
	}

	x := int16(uint16(raw[0]) | uint16(raw[1])<<8)
	y := int16(uint16(raw[2]) | uint16(raw[3])<<8)
	z := int16(uint16(raw[4]) | uint16(raw[5])<<8)

	a.seq++
	return accel.Sample{
		Seq: a.seq,
		X:   float64(x) / lsbPerG,
		Y:   float64(y) / lsbPerG,
		Z:   float64(z) / lsbPerG,
	}, nil
}

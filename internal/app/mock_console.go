// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/posture_monitor/internal/accel"
	"github.com/relabs-tech/posture_monitor/internal/config"
	"github.com/relabs-tech/posture_monitor/internal/monitor"
)

// RunMockConsole runs the full pipeline against the synthetic sample
// source and prints the results. Useful on a dev machine with no broker
// and no hardware attached.
func RunMockConsole() error {
	cfg := config.Get()

	src := accel.NewMockSource(100 * time.Millisecond)
	bus := monitor.NewBus()

	unsubscribe := bus.Subscribe(func(e monitor.Event) {
		switch ev := e.(type) {
		case monitor.OrientationEvent:
			fmt.Printf("PITCH=%6.2f  ROLL=%6.2f  YAW=%6.2f  |a|=%5.3f\n",
				ev.Orientation.Pitch, ev.Orientation.Roll, ev.Orientation.Yaw, ev.Orientation.Magnitude)
		case monitor.PostureEvent:
			fmt.Printf("STATE=%-12s %s\n", ev.State, ev.Message)
		case monitor.CalibrationProgressEvent:
			fmt.Printf("CALIBRATING %5.1f%% (%d samples remaining)\n", ev.PercentComplete, ev.RemainingSamples)
		case monitor.CalibrationResultEvent:
			fmt.Printf("CALIBRATION success=%v\n", ev.Success)
		}
	})
	defer unsubscribe()

	m := monitor.New(src, bus, monitor.Options{
		WindowCapacity:       cfg.WindowCapacity,
		MovementThreshold:    cfg.MovementThreshold,
		StillReminderSeconds: cfg.StillReminderSeconds,
		ProgressInterval:     cfg.ProgressInterval(),
	})
	if err := m.Start(); err != nil {
		return err
	}
	defer m.Stop()

	// Let the windows fill, then calibrate against the synthetic sway.
	time.Sleep(2 * time.Second)
	if err := m.StartCalibration(); err != nil {
		return err
	}
	log.Println("console: calibration started against mock source")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("console: shutting down")
	return nil
}

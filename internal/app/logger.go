// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/relabs-tech/altitude_logger/internal/config"
	"github.com/relabs-tech/altitude_logger/internal/debug"
	"github.com/relabs-tech/altitude_logger/internal/flight"
	"github.com/relabs-tech/altitude_logger/internal/indicator"
)

// RunLogger is the on-device logger: wait for the arm button, record one
// flight into storage, then hold the final indication until ctx ends.
func RunLogger(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return errors.New("logger: no configuration")
	}

	var cleanup closers
	defer cleanup.run()

	ind, closeInd := openIndicators(cfg.Indicator)
	cleanup.add(closeInd)
	ind.Show(indicator.Booting)

	trigger, err := openTrigger(cfg.Arm)
	if err != nil {
		ind.Show(indicator.Fault)
		return park(ctx, fmt.Errorf("logger: %w", err))
	}

	ind.Show(indicator.Waiting)
	if err := trigger.Wait(ctx); err != nil {
		log.Printf("logger: stopped before arming: %v", err)
		return nil
	}

	backend, release, err := openStorage(cfg.Storage)
	if err != nil {
		ind.Show(indicator.Fault)
		return park(ctx, fmt.Errorf("logger: %w", err))
	}
	cleanup.add(release)

	sink, closeSink, err := openDebug(cfg.Debug)
	if err != nil {
		// The debug link is optional on the device.
		log.Printf("WARNING: %v", err)
		sink, closeSink = debug.Nop{}, func() {}
	}
	cleanup.add(closeSink)

	baro := newBarometer(cfg.Sensor)
	cleanup.add(func() { baro.Close() })

	session, enc, err := newSession(cfg, sessionParts{
		baro:    baro,
		backend: backend,
		debug:   sink,
		ind:     ind,
	})
	if err != nil {
		ind.Show(indicator.Fault)
		return park(ctx, fmt.Errorf("logger: %w", err))
	}

	if err := session.Start(); err != nil {
		return park(ctx, err)
	}

	outcome, err := session.Run(ctx)
	log.Printf("logger: session ended (%s): %d records, %d of %d bytes",
		outcome, session.Records(), enc.Bytes(), enc.Capacity())

	switch outcome {
	case flight.OutcomeCancelled, flight.OutcomeSourceExhausted:
		return nil
	case flight.OutcomeStorageFull:
		return park(ctx, nil)
	default:
		return park(ctx, err)
	}
}

// park keeps the process alive so a blinking indicator stays visible, then
// returns err once ctx is done.
func park(ctx context.Context, err error) error {
	if err != nil {
		log.Printf("logger: %v; holding indication until stopped", err)
	} else {
		log.Println("logger: holding indication until stopped")
	}
	<-ctx.Done()
	return err
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/altitude_logger/internal/altitude"
	"github.com/relabs-tech/altitude_logger/internal/config"
	"github.com/relabs-tech/altitude_logger/internal/decode"
	"github.com/relabs-tech/altitude_logger/internal/flight"
	"github.com/relabs-tech/altitude_logger/internal/indicator"
	"github.com/relabs-tech/altitude_logger/internal/monitor"
	"github.com/relabs-tech/altitude_logger/internal/schedule"
	"github.com/relabs-tech/altitude_logger/internal/sensors"
)

// BenchOptions are per-run settings that do not belong in the config file.
type BenchOptions struct {
	// CSVPath receives the decoded trace; empty to skip.
	CSVPath string
}

// BenchReport summarises a bench run.
type BenchReport struct {
	Outcome     flight.Outcome
	Records     int
	Bytes       int
	Capacity    int
	Fingerprint uint64
	Trace       []decode.Point
}

// RunBench runs the recording pipeline against a mock or replayed pressure
// source on the host, then decodes what was written.
func RunBench(ctx context.Context, cfg *config.Config, opts BenchOptions) (*BenchReport, error) {
	if cfg == nil {
		return nil, errors.New("bench: no configuration")
	}
	prof, err := cfg.Effective()
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}

	var cleanup closers
	defer cleanup.run()

	baro, err := benchSource(cfg.Bench)
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}

	sc := cfg.Storage
	if sc.Kind == "eeprom24" {
		log.Println("bench: no EEPROM on the host, using memory storage")
		sc.Kind = "memory"
	}
	backend, release, err := openStorage(sc)
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}
	cleanup.add(release)

	sink, closeSink, err := openDebug(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}
	cleanup.add(closeSink)

	var observer flight.Observer
	if cfg.Bench.MonitorAddr != "" {
		hub := monitor.NewHub()
		monCtx, stop := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := hub.Serve(monCtx, cfg.Bench.MonitorAddr); err != nil {
				log.Printf("bench: monitor: %v", err)
			}
		}()
		cleanup.add(func() {
			stop()
			<-done
		})
		observer = hub
	}

	var ticker schedule.Ticker
	if !cfg.Bench.Realtime {
		ticker = schedule.NewFreeRunning()
	}

	session, enc, err := newSession(cfg, sessionParts{
		baro:     baro,
		backend:  backend,
		ticker:   ticker,
		debug:    sink,
		observer: observer,
		ind:      indicator.Log{},
	})
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}
	if err := session.Start(); err != nil {
		return nil, err
	}

	outcome, runErr := session.Run(ctx)
	log.Printf("bench: session ended (%s): %d records, %d of %d bytes, %d intervals at end",
		outcome, session.Records(), enc.Bytes(), enc.Capacity(), session.Altitude())

	image, err := backend.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("bench: read back: %w", err)
	}
	written := image[:enc.Bytes()]
	rep := &BenchReport{
		Outcome:     outcome,
		Records:     session.Records(),
		Bytes:       enc.Bytes(),
		Capacity:    enc.Capacity(),
		Fingerprint: decode.Fingerprint(written),
		Trace:       decode.Image(written, prof.Range(), prof.Cadence()),
	}
	log.Printf("bench: image %016x, %d trace points", rep.Fingerprint, len(rep.Trace))

	if opts.CSVPath != "" {
		if err := writeTraceCSV(opts.CSVPath, rep.Trace, prof.IntervalPa); err != nil {
			return rep, err
		}
	}
	return rep, runErr
}

func benchSource(bc config.BenchConfig) (sensors.Barometer, error) {
	switch bc.Source {
	case "", "mock":
		log.Printf("bench: mock flight from %d Pa, seed %d", bc.Ground, bc.Seed)
		return sensors.NewMockFlight(sensors.FlightProfile{
			Ground:       altitude.Pressure(bc.Ground),
			PadSamples:   bc.PadSamples,
			ClimbPa:      bc.ClimbPa,
			ClimbSamples: bc.ClimbSamples,
			DescentPa:    bc.DescentPa,
			Noise:        bc.Noise,
			Seed:         bc.Seed,
			FailAt:       bc.FailAt,
		}), nil
	case "replay":
		r, err := sensors.OpenReplay(bc.ReplayPath)
		if err != nil {
			return nil, err
		}
		log.Printf("bench: replaying %d samples from %s", r.Len(), bc.ReplayPath)
		return r, nil
	default:
		return nil, fmt.Errorf("unknown source %q", bc.Source)
	}
}

func writeTraceCSV(path string, pts []decode.Point, intervalPa int32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := decode.WriteCSV(f, pts, intervalPa); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	log.Printf("wrote %d points to %s", len(pts), path)
	return nil
}

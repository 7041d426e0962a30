// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package flight runs one recording session: wait for a tick, measure,
// detect launch, quantize and record, until storage is full.
//
// All session state lives in Session and is touched only by the goroutine
// calling Run. The tick source never mutates it.
package flight

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/altitude_logger/internal/altitude"
	"github.com/relabs-tech/altitude_logger/internal/debug"
	"github.com/relabs-tech/altitude_logger/internal/indicator"
	"github.com/relabs-tech/altitude_logger/internal/launch"
	"github.com/relabs-tech/altitude_logger/internal/recorder"
	"github.com/relabs-tech/altitude_logger/internal/schedule"
	"github.com/relabs-tech/altitude_logger/internal/sensors"
)

// SensorPolicy decides what a failed measurement does.
type SensorPolicy int

const (
	// HaltOnSensorFailure stops the session and shows a fault.
	HaltOnSensorFailure SensorPolicy = iota
	// ReuseLastPressure substitutes the last good reading and carries on.
	ReuseLastPressure
)

// ParseSensorPolicy accepts "halt" and "reuse".
func ParseSensorPolicy(s string) (SensorPolicy, error) {
	switch s {
	case "", "halt":
		return HaltOnSensorFailure, nil
	case "reuse":
		return ReuseLastPressure, nil
	default:
		return 0, fmt.Errorf("unknown sensor policy %q (want halt or reuse)", s)
	}
}

// Options wires a session to its collaborators. Debug, Observer and
// Indicator are optional.
type Options struct {
	Barometer sensors.Barometer
	Encoder   *recorder.Encoder
	Scheduler *schedule.Scheduler

	IntervalPa         int32
	ThresholdIntervals int32
	Policy             SensorPolicy

	Debug     debug.Sink
	Observer  Observer
	Indicator indicator.Indicator
}

// StepResult reports what one sample did.
type StepResult struct {
	Launched bool
	Deltas   []int32
	// More is false once storage is exhausted.
	More bool
}

// Session is the explicit context of one power-on recording session.
type Session struct {
	baro      sensors.Barometer
	enc       *recorder.Encoder
	sched     *schedule.Scheduler
	quant     *altitude.Quantizer
	detector  *launch.Detector
	threshold int32
	policy    SensorPolicy

	dbg debug.Sink
	obs Observer
	ind indicator.Indicator
	now func() time.Time

	lastGood altitude.Pressure
	records  int
	full     bool
	started  bool
}

// New validates opts and builds an unstarted session.
func New(opts Options) (*Session, error) {
	if opts.Barometer == nil || opts.Encoder == nil || opts.Scheduler == nil {
		return nil, errors.New("flight: barometer, encoder and scheduler are required")
	}
	if opts.ThresholdIntervals <= 0 {
		return nil, fmt.Errorf("flight: threshold must be positive, got %d", opts.ThresholdIntervals)
	}
	q, err := altitude.NewQuantizer(opts.IntervalPa)
	if err != nil {
		return nil, fmt.Errorf("flight: %w", err)
	}

	s := &Session{
		baro:      opts.Barometer,
		enc:       opts.Encoder,
		sched:     opts.Scheduler,
		quant:     q,
		threshold: opts.ThresholdIntervals,
		policy:    opts.Policy,
		dbg:       opts.Debug,
		obs:       opts.Observer,
		ind:       opts.Indicator,
		now:       time.Now,
	}
	if s.dbg == nil {
		s.dbg = debug.Nop{}
	}
	if s.obs == nil {
		s.obs = nopObserver{}
	}
	if s.ind == nil {
		s.ind = indicator.Log{}
	}
	return s, nil
}

// Start initialises the sensor and takes the boot-time reading that seeds
// launch detection. Any failure here is fatal.
func (s *Session) Start() error {
	if err := s.baro.Init(); err != nil {
		return s.fault(fmt.Errorf("flight: sensor init: %w", err))
	}
	p, err := s.baro.Measure()
	if err != nil {
		return s.fault(fmt.Errorf("flight: initial measurement: %w", err))
	}

	d, err := launch.NewDetector(p, s.quant.IntervalPa(), s.threshold)
	if err != nil {
		return fmt.Errorf("flight: %w", err)
	}
	s.detector = d
	s.lastGood = p
	s.started = true

	log.Printf("flight: armed at %d Pa, interval %d Pa, threshold %d", p, s.quant.IntervalPa(), s.threshold)
	s.ind.Show(indicator.Armed)
	s.event(EventArmed, p, 0, "")
	return nil
}

// Step processes one sample.
func (s *Session) Step(p altitude.Pressure) (StepResult, error) {
	if !s.started {
		return StepResult{}, errors.New("flight: session not started")
	}
	if s.full {
		return StepResult{}, nil
	}

	if s.detector.State() == launch.Idle {
		dec := s.detector.Observe(p)
		if !dec.Launched {
			return StepResult{More: true}, nil
		}

		s.quant.SetReference(dec.Reference)
		log.Printf("flight: launch detected (+%d intervals), reference %d Pa", dec.Step, dec.Reference)
		s.ind.Show(indicator.Recording)
		s.event(EventLaunch, p, dec.Step, "")

		res := StepResult{Launched: true, More: true}
		for _, bp := range dec.Backfill {
			d, more, err := s.record(bp)
			if err != nil {
				return res, err
			}
			res.Deltas = append(res.Deltas, d)
			if !more {
				res.More = false
				return res, nil
			}
		}
		return res, nil
	}

	d, more, err := s.record(p)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{Deltas: []int32{d}, More: more}, nil
}

func (s *Session) record(p altitude.Pressure) (int32, bool, error) {
	d := s.quant.Delta(p)
	more, err := s.enc.Record(int(d))
	if err != nil {
		s.full = true
		return d, false, fmt.Errorf("flight: record: %w", err)
	}

	s.quant.Commit(d)
	s.records++
	s.dbg.SendByte(byte(clampInt8(d)))
	s.event(EventRecord, p, d, "")

	if s.sched.Advance(s.records) {
		log.Printf("flight: %d records, switching to %s period", s.records, s.sched.Period())
		s.event(EventCadence, p, 0, "")
	}
	if !more {
		s.full = true
	}
	return d, more, nil
}

func clampInt8(v int32) int8 {
	switch {
	case v > 127:
		return 127
	case v < -128:
		return -128
	default:
		return int8(v)
	}
}

func (s *Session) fault(err error) error {
	log.Printf("flight: %v", err)
	s.ind.Show(indicator.Fault)
	s.event(EventSensorFault, s.lastGood, 0, err.Error())
	return err
}

func (s *Session) event(kind EventKind, p altitude.Pressure, delta int32, msg string) {
	s.obs.OnEvent(Event{
		Kind:     kind,
		Time:     s.now(),
		Pressure: p,
		Delta:    delta,
		Altitude: s.quant.Committed(),
		Records:  s.records,
		Bytes:    s.enc.Bytes(),
		Capacity: s.enc.Capacity(),
		Period:   s.sched.Period(),
		Message:  msg,
	})
}

// State returns the launch state.
func (s *Session) State() launch.State {
	if s.detector == nil {
		return launch.Idle
	}
	return s.detector.State()
}

// Records returns the number of deltas stored since launch.
func (s *Session) Records() int { return s.records }

// Altitude returns the committed altitude in intervals above the reference.
func (s *Session) Altitude() int32 { return s.quant.Committed() }

// Reference returns the launch reference pressure.
func (s *Session) Reference() altitude.Pressure { return s.quant.Reference() }

// Full reports whether storage is exhausted.
func (s *Session) Full() bool { return s.full }

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package flight

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/relabs-tech/altitude_logger/internal/altitude"
	"github.com/relabs-tech/altitude_logger/internal/indicator"
	"github.com/relabs-tech/altitude_logger/internal/sensors"
)

// Outcome is why Run returned.
type Outcome int

const (
	// OutcomeStorageFull is the normal end of a captured flight.
	OutcomeStorageFull Outcome = iota
	// OutcomeCancelled means the context ended the session.
	OutcomeCancelled
	// OutcomeSourceExhausted means a replayed source ran out of samples.
	OutcomeSourceExhausted
	// OutcomeSensorFault means a measurement failed; Run also returns the error.
	OutcomeSensorFault
	// OutcomeStorageError means the backend failed; Run also returns the error.
	OutcomeStorageError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStorageFull:
		return "storage full"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeSourceExhausted:
		return "source exhausted"
	case OutcomeSensorFault:
		return "sensor fault"
	case OutcomeStorageError:
		return "storage error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Run drives the session until storage is full, ctx is done, or a fatal
// error occurs. Start must have been called. The only blocking points are
// the tick wait and the measurement and storage calls.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	if !s.started {
		return OutcomeSensorFault, errors.New("flight: session not started")
	}

	for {
		if err := s.sched.Wait(ctx); err != nil {
			s.finish(EventStopped, "cancelled")
			return OutcomeCancelled, nil
		}

		p, err := s.measure()
		if err != nil {
			if errors.Is(err, sensors.ErrReplayDone) {
				s.finish(EventStopped, "source exhausted")
				return OutcomeSourceExhausted, nil
			}
			s.sched.Stop()
			return OutcomeSensorFault, s.fault(fmt.Errorf("flight: measure: %w", err))
		}

		res, err := s.Step(p)
		if err != nil {
			s.sched.Stop()
			log.Printf("flight: storage failure, recording stopped: %v", err)
			s.ind.Show(indicator.Full)
			s.event(EventStorageFull, p, 0, err.Error())
			return OutcomeStorageError, err
		}
		if !res.More {
			log.Printf("flight: storage full after %d records (%d bytes)", s.records, s.enc.Bytes())
			s.finish(EventStorageFull, "")
			s.ind.Show(indicator.Full)
			return OutcomeStorageFull, nil
		}
	}
}

func (s *Session) measure() (altitude.Pressure, error) {
	p, err := s.baro.Measure()
	if err == nil {
		s.lastGood = p
		return p, nil
	}
	if s.policy == ReuseLastPressure && !errors.Is(err, sensors.ErrReplayDone) {
		log.Printf("flight: measurement failed, reusing %d Pa: %v", s.lastGood, err)
		return s.lastGood, nil
	}
	return 0, err
}

// finish stops the ticker and flushes a trailing nibble.
func (s *Session) finish(kind EventKind, msg string) {
	s.sched.Stop()
	if err := s.enc.Flush(); err != nil {
		log.Printf("flight: flush: %v", err)
	}
	s.event(kind, s.lastGood, 0, msg)
}

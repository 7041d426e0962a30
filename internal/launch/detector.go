// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package launch decides when a flight has started.
package launch

import (
	"fmt"

	"github.com/relabs-tech/altitude_logger/internal/altitude"
)

// State is the recording state of a session.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Decision is the outcome of observing one sample.
type Decision struct {
	Launched bool
	// Step is the sample-to-sample climb in intervals that was tested
	// against the threshold.
	Step int32
	// Reference is the anchor pressure for the recording session.
	// Set only when Launched.
	Reference altitude.Pressure
	// Backfill holds the pre-trigger sample and the triggering sample, in
	// the order they must be recorded. Set only when Launched.
	Backfill [2]altitude.Pressure
}

// Detector is the Idle -> Recording state machine.
//
// While idle the reference slides one sample behind the last sample, so at
// the moment of launch the reference is the sample before the pre-trigger
// one and both backfilled deltas describe real movement.
type Detector struct {
	intervalPa int32
	threshold  int32

	state     State
	last      altitude.Pressure
	reference altitude.Pressure
}

// NewDetector creates an idle detector seeded with the boot-time pressure.
func NewDetector(initial altitude.Pressure, intervalPa, thresholdIntervals int32) (*Detector, error) {
	if intervalPa <= 0 {
		return nil, fmt.Errorf("launch: %w (got %d)", altitude.ErrInvalidInterval, intervalPa)
	}
	if thresholdIntervals <= 0 {
		return nil, fmt.Errorf("launch: threshold must be positive, got %d", thresholdIntervals)
	}
	return &Detector{
		intervalPa: intervalPa,
		threshold:  thresholdIntervals,
		last:       initial,
		reference:  initial,
	}, nil
}

// State returns the current state.
func (d *Detector) State() State { return d.state }

// Last returns the most recent idle sample.
func (d *Detector) Last() altitude.Pressure { return d.last }

// Reference returns the sliding reference pressure.
func (d *Detector) Reference() altitude.Pressure { return d.reference }

// Observe feeds one sample. Once Recording, it returns a zero Decision and
// leaves the state untouched.
func (d *Detector) Observe(current altitude.Pressure) Decision {
	if d.state != Idle {
		return Decision{}
	}

	step := altitude.Intervals(d.last, current, d.intervalPa)
	if step >= d.threshold {
		d.state = Recording
		return Decision{
			Launched:  true,
			Step:      step,
			Reference: d.reference,
			Backfill:  [2]altitude.Pressure{d.last, current},
		}
	}

	d.reference = d.last
	d.last = current
	return Decision{Step: step}
}

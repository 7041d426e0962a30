// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package indicator shows the logger state to the person on the field.
package indicator

import (
	"fmt"
	"log"
)

// Status is what the operator needs to know at a glance.
type Status int

const (
	Booting   Status = iota
	Waiting          // powered, waiting for the arm button
	Armed            // armed, waiting for launch
	Recording        // launch detected, logging
	Full             // storage exhausted, trace complete
	Fault            // sensor failure, needs a reset
)

func (s Status) String() string {
	switch s {
	case Booting:
		return "booting"
	case Waiting:
		return "waiting"
	case Armed:
		return "armed"
	case Recording:
		return "recording"
	case Full:
		return "full"
	case Fault:
		return "fault"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Indicator displays a status until the next call.
type Indicator interface {
	Show(s Status)
}

// Log writes status changes to the standard logger.
type Log struct{}

func (Log) Show(s Status) { log.Printf("indicator: %s", s) }

// Multi fans a status out to several indicators.
type Multi []Indicator

func (m Multi) Show(s Status) {
	for _, ind := range m {
		ind.Show(s)
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides pressure sources for the flight loop.
package sensors

import (
	"errors"

	"github.com/relabs-tech/altitude_logger/internal/altitude"
)

// ErrSensorFailure wraps every failed measurement.
var ErrSensorFailure = errors.New("sensor failure")

// Barometer is anything that can measure pressure. Measure blocks until a
// reading is ready.
type Barometer interface {
	Init() error
	Measure() (altitude.Pressure, error)
}

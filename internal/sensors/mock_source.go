// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"math/rand"

	"github.com/relabs-tech/altitude_logger/internal/altitude"
)

// FlightProfile shapes a synthetic flight, one step per measurement.
type FlightProfile struct {
	Ground       altitude.Pressure // pressure on the pad
	PadSamples   int               // samples before lift-off
	ClimbPa      int32             // pressure drop per sample while climbing
	ClimbSamples int
	DescentPa    int32 // pressure rise per sample after apogee
	Noise        int32 // uniform noise amplitude, +/- pascals
	Seed         int64
	FailAt       int // measurement index that fails, 0 to never fail
}

// DefaultFlightProfile is a small model rocket: 2s on the pad at 8Hz, a
// short burn and a slow descent under chute.
var DefaultFlightProfile = FlightProfile{
	Ground:       101325,
	PadSamples:   16,
	ClimbPa:      60,
	ClimbSamples: 40,
	DescentPa:    10,
	Noise:        3,
	Seed:         1,
}

type mockFlight struct {
	p   FlightProfile
	n   int
	rng *rand.Rand
}

// NewMockFlight creates a barometer that replays a synthetic flight.
func NewMockFlight(p FlightProfile) Barometer {
	return &mockFlight{p: p, rng: rand.New(rand.NewSource(p.Seed))}
}

func (m *mockFlight) Init() error { return nil }

func (m *mockFlight) Measure() (altitude.Pressure, error) {
	m.n++
	if m.p.FailAt > 0 && m.n == m.p.FailAt {
		return 0, fmt.Errorf("%w: mock flight failure at sample %d", ErrSensorFailure, m.n)
	}

	var drop int32
	i := m.n - 1 - m.p.PadSamples
	switch {
	case i < 0:
	case i < m.p.ClimbSamples:
		drop = int32(i+1) * m.p.ClimbPa
	default:
		apogee := int32(m.p.ClimbSamples) * m.p.ClimbPa
		drop = apogee - int32(i-m.p.ClimbSamples+1)*m.p.DescentPa
		if drop < 0 {
			drop = 0
		}
	}

	var noise int32
	if m.p.Noise > 0 {
		noise = m.rng.Int31n(2*m.p.Noise+1) - m.p.Noise
	}
	return m.p.Ground - altitude.Pressure(drop) + altitude.Pressure(noise), nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/altitude_logger/internal/altitude"
)

func TestMockFlight_Profile(t *testing.T) {
	p := FlightProfile{
		Ground: 100000, PadSamples: 2, ClimbPa: 100, ClimbSamples: 3, DescentPa: 200,
	}
	src := NewMockFlight(p)
	require.NoError(t, src.Init())

	var got []altitude.Pressure
	for i := 0; i < 8; i++ {
		v, err := src.Measure()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []altitude.Pressure{
		100000, 100000, // pad
		99900, 99800, 99700, // climb
		99900, 100000, 100000, // descent, landed
	}, got)
}

func TestMockFlight_NoiseBoundedAndDeterministic(t *testing.T) {
	p := FlightProfile{Ground: 100000, PadSamples: 100, Noise: 4, Seed: 42}
	a := NewMockFlight(p)
	b := NewMockFlight(p)
	for i := 0; i < 100; i++ {
		va, err := a.Measure()
		require.NoError(t, err)
		vb, _ := b.Measure()
		assert.Equal(t, va, vb)
		assert.InDelta(t, 100000, int(va), 4)
	}
}

func TestMockFlight_Failure(t *testing.T) {
	src := NewMockFlight(FlightProfile{Ground: 100000, FailAt: 3})
	for i := 0; i < 2; i++ {
		_, err := src.Measure()
		require.NoError(t, err)
	}
	_, err := src.Measure()
	assert.ErrorIs(t, err, ErrSensorFailure)
}

func TestReplay(t *testing.T) {
	in := "# pad\n101325\n\n101320\n 101200 \n"
	rep, err := NewReplay(strings.NewReader(in))
	require.NoError(t, err)
	require.NoError(t, rep.Init())
	assert.Equal(t, 3, rep.Len())

	for _, want := range []altitude.Pressure{101325, 101320, 101200} {
		got, err := rep.Measure()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = rep.Measure()
	assert.ErrorIs(t, err, ErrSensorFailure)
	assert.ErrorIs(t, err, ErrReplayDone)
}

func TestReplay_Errors(t *testing.T) {
	_, err := NewReplay(strings.NewReader("101325\nabc\n"))
	assert.ErrorContains(t, err, "line 2")

	rep, err := NewReplay(strings.NewReader("# nothing\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, rep.Init(), ErrSensorFailure)
}

func TestBME280_MeasureBeforeInit(t *testing.T) {
	b := NewBME280(BME280Opts{})
	_, err := b.Measure()
	assert.ErrorIs(t, err, ErrSensorFailure)
	assert.NoError(t, b.Close())
}

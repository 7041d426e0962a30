// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCadence = Cadence{Fast: 125 * time.Millisecond, Slow: time.Second, FastLimit: 4}

func TestCadence_Validate(t *testing.T) {
	assert.NoError(t, testCadence.Validate())
	assert.Error(t, Cadence{Fast: 0, Slow: time.Second}.Validate())
	assert.Error(t, Cadence{Fast: time.Second, Slow: -1}.Validate())
	assert.Error(t, Cadence{Fast: time.Second, Slow: time.Second, FastLimit: -1}.Validate())
}

func TestCadence_PeriodFor(t *testing.T) {
	assert.Equal(t, testCadence.Fast, testCadence.PeriodFor(0))
	assert.Equal(t, testCadence.Fast, testCadence.PeriodFor(3))
	assert.Equal(t, testCadence.Slow, testCadence.PeriodFor(4))
	assert.Equal(t, testCadence.Slow, testCadence.PeriodFor(100))
}

func TestScheduler_SwitchesOnce(t *testing.T) {
	m := NewManual(testCadence.Fast)
	s, err := New(testCadence, m)
	require.NoError(t, err)

	for n := 0; n < 4; n++ {
		assert.False(t, s.Advance(n))
	}
	assert.Equal(t, testCadence.Fast, s.Period())

	assert.True(t, s.Advance(4))
	assert.True(t, s.Slow())
	assert.Equal(t, testCadence.Slow, s.Period())

	for n := 5; n < 50; n++ {
		assert.False(t, s.Advance(n))
	}
	assert.Equal(t, []time.Duration{time.Second}, m.Resets(), "ticker reprogrammed exactly once")
}

// A counter that jumps past the limit still switches.
func TestScheduler_SwitchOnOvershoot(t *testing.T) {
	m := NewManual(testCadence.Fast)
	s, err := New(testCadence, m)
	require.NoError(t, err)

	assert.True(t, s.Advance(9))
	assert.Equal(t, []time.Duration{time.Second}, m.Resets())
}

func TestScheduler_Wait(t *testing.T) {
	m := NewManual(testCadence.Fast)
	s, err := New(testCadence, m)
	require.NoError(t, err)

	require.True(t, m.Tick())
	assert.NoError(t, s.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.Canceled)
}

func TestScheduler_Stop(t *testing.T) {
	m := NewManual(testCadence.Fast)
	s, err := New(testCadence, m)
	require.NoError(t, err)

	s.Stop()
	assert.True(t, m.Stopped())
	assert.ErrorIs(t, s.Wait(context.Background()), ErrStopped)
	assert.False(t, s.Advance(100), "no reprogramming after stop")
	assert.False(t, m.Tick())
}

func TestNew_InvalidCadence(t *testing.T) {
	_, err := New(Cadence{}, NewManual(time.Second))
	assert.Error(t, err)
}

func TestFreeRunning(t *testing.T) {
	s, err := New(Cadence{Fast: time.Hour, Slow: time.Hour}, NewFreeRunning())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Wait(context.Background()))
	}
	s.Stop()
	assert.ErrorIs(t, s.Wait(context.Background()), ErrStopped)
}

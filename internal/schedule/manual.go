// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package schedule

import (
	"sync"
	"time"
)

// Manual is a Ticker driven by explicit Tick calls. It records every
// Reset so callers can inspect how the period was reprogrammed.
type Manual struct {
	mu      sync.Mutex
	c       chan time.Time
	now     time.Time
	period  time.Duration
	resets  []time.Duration
	stopped bool
}

// NewManual returns a manual ticker with the given initial period.
func NewManual(period time.Duration) *Manual {
	return &Manual{
		c:      make(chan time.Time, 1),
		now:    time.Unix(0, 0),
		period: period,
	}
}

func (m *Manual) C() <-chan time.Time { return m.c }

func (m *Manual) Reset(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.period = d
	m.resets = append(m.resets, d)
}

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Tick advances the clock by one period and delivers a tick. It reports
// false if the ticker is stopped or the previous tick was not consumed.
func (m *Manual) Tick() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return false
	}
	m.now = m.now.Add(m.period)
	select {
	case m.c <- m.now:
		return true
	default:
		return false
	}
}

// Period returns the current period.
func (m *Manual) Period() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.period
}

// Resets returns every period passed to Reset, in order.
func (m *Manual) Resets() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.resets...)
}

// Stopped reports whether Stop was called.
func (m *Manual) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// FreeRunning is a Ticker that is always ready. Bench runs use it to
// replay a flight as fast as the loop can go.
type FreeRunning struct {
	c chan time.Time
}

// NewFreeRunning returns a ticker whose channel never blocks.
func NewFreeRunning() *FreeRunning {
	c := make(chan time.Time)
	close(c)
	return &FreeRunning{c: c}
}

func (f *FreeRunning) C() <-chan time.Time { return f.c }
func (f *FreeRunning) Reset(time.Duration) {}
func (f *FreeRunning) Stop()               {}

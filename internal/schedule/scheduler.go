// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package schedule paces the sampling loop.
package schedule

import (
	"context"
	"fmt"
	"time"
)

// Cadence describes the two sampling rates of a flight.
type Cadence struct {
	Fast      time.Duration // period right after launch
	Slow      time.Duration // period once FastLimit records are stored
	FastLimit int           // records taken at the fast period
}

// Validate checks that the cadence can drive a ticker.
func (c Cadence) Validate() error {
	if c.Fast <= 0 {
		return fmt.Errorf("fast period must be positive, got %s", c.Fast)
	}
	if c.Slow <= 0 {
		return fmt.Errorf("slow period must be positive, got %s", c.Slow)
	}
	if c.FastLimit < 0 {
		return fmt.Errorf("fast limit must not be negative, got %d", c.FastLimit)
	}
	return nil
}

// PeriodFor returns the period in effect after n records.
func (c Cadence) PeriodFor(n int) time.Duration {
	if n >= c.FastLimit {
		return c.Slow
	}
	return c.Fast
}

// Ticker is the periodic wake source.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

// NewTicker returns a Ticker backed by time.Ticker.
func NewTicker(d time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(d)}
}

func (t *timeTicker) C() <-chan time.Time   { return t.t.C }
func (t *timeTicker) Reset(d time.Duration) { t.t.Reset(d) }
func (t *timeTicker) Stop()                 { t.t.Stop() }

// Scheduler blocks the loop between ticks and switches to the slow cadence
// exactly once.
type Scheduler struct {
	cadence Cadence
	ticker  Ticker
	slow    bool
	stopped bool
}

// New creates a scheduler running at the fast period. If ticker is nil a
// time.Ticker is used.
func New(c Cadence, ticker Ticker) (*Scheduler, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	if ticker == nil {
		ticker = NewTicker(c.Fast)
	}
	return &Scheduler{cadence: c, ticker: ticker}, nil
}

// Cadence returns the configured cadence.
func (s *Scheduler) Cadence() Cadence { return s.cadence }

// Slow reports whether the slow cadence is in effect.
func (s *Scheduler) Slow() bool { return s.slow }

// Period returns the current tick period.
func (s *Scheduler) Period() time.Duration {
	if s.slow {
		return s.cadence.Slow
	}
	return s.cadence.Fast
}

// Wait blocks until the next tick or until ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	if s.stopped {
		return ErrStopped
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ticker.C():
		return nil
	}
}

// Advance reprograms the ticker the first time records reaches the fast
// limit. It reports whether the period changed.
func (s *Scheduler) Advance(records int) bool {
	if s.slow || s.stopped || records < s.cadence.FastLimit {
		return false
	}
	s.slow = true
	s.ticker.Reset(s.cadence.Slow)
	return true
}

// Stop halts the ticker for the rest of the session.
func (s *Scheduler) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.ticker.Stop()
}

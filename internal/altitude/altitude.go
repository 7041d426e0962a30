// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package altitude turns barometric pressure into counts of fixed-size
// altitude intervals.
//
// Pressure falls as altitude rises, so a positive interval count means
// "higher than the reference". All division rounds toward negative infinity
// so that a climb and a descent of the same size quantize symmetrically
// around every interval boundary.
package altitude

import (
	"errors"
	"fmt"
)

// Pressure is a barometric reading in whole pascals.
type Pressure int32

// ErrInvalidInterval is returned when an interval size is not positive.
var ErrInvalidInterval = errors.New("interval size must be positive")

// FloorDiv divides a by b rounding toward negative infinity.
// b must be positive.
func FloorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}

// Intervals returns how many whole intervals current lies above reference.
func Intervals(reference, current Pressure, intervalPa int32) int32 {
	return FloorDiv(int32(reference-current), intervalPa)
}

// Quantizer produces deltas anchored to a fixed reference pressure.
//
// Every delta is computed from the reference, minus what was already
// committed, so rounding error never accumulates across samples.
type Quantizer struct {
	intervalPa int32
	reference  Pressure
	committed  int32
}

// NewQuantizer returns a quantizer for the given interval size in pascals.
func NewQuantizer(intervalPa int32) (*Quantizer, error) {
	if intervalPa <= 0 {
		return nil, fmt.Errorf("quantizer: %w (got %d)", ErrInvalidInterval, intervalPa)
	}
	return &Quantizer{intervalPa: intervalPa}, nil
}

// IntervalPa returns the interval size in pascals.
func (q *Quantizer) IntervalPa() int32 { return q.intervalPa }

// SetReference anchors subsequent deltas to p.
func (q *Quantizer) SetReference(p Pressure) { q.reference = p }

// Reference returns the anchor pressure.
func (q *Quantizer) Reference() Pressure { return q.reference }

// Committed returns the sum of all committed deltas.
func (q *Quantizer) Committed() int32 { return q.committed }

// Delta returns the not yet committed interval change implied by p.
func (q *Quantizer) Delta(p Pressure) int32 {
	return Intervals(q.reference, p, q.intervalPa) - q.committed
}

// Commit marks d intervals as persisted.
func (q *Quantizer) Commit(d int32) { q.committed += d }

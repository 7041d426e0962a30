// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package recorder

import "fmt"

// NibbleSpan is the number of distinct values a nibble holds minus one.
const NibbleSpan = 15

// Range is the signed value range a nibble represents. Max - Min is
// always NibbleSpan. The range is asymmetric because flights climb faster
// than they descend.
type Range struct {
	Min int
	Max int
}

// RangeFromMax returns the range whose top value is max.
func RangeFromMax(max int) Range {
	return Range{Min: max - NibbleSpan, Max: max}
}

// Validate checks the range fits a nibble and straddles zero.
func (r Range) Validate() error {
	if r.Max-r.Min != NibbleSpan {
		return fmt.Errorf("nibble range [%d,%d] must span exactly %d", r.Min, r.Max, NibbleSpan)
	}
	if r.Min >= 0 || r.Max <= 0 {
		return fmt.Errorf("nibble range [%d,%d] must contain both signs", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether v can be stored in one nibble.
func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

// Encode maps v to its 4-bit representation.
func (r Range) Encode(v int) byte { return byte(v-r.Min) & 0x0F }

// Decode maps a 4-bit value back to the signed value.
func (r Range) Decode(n byte) int { return int(n&0x0F) + r.Min }

// Boundary reports whether v is a continuation value produced by Split.
func (r Range) Boundary(v int) bool { return v == r.Min || v == r.Max }

// Split breaks delta into nibble values. Every value but the last is
// r.Max (climb) or r.Min (descent); the last lies strictly inside the range,
// so a reader can tell where one delta ends. The values sum to delta.
func Split(delta int, r Range) []int {
	var out []int
	if delta > 0 {
		for delta >= r.Max {
			out = append(out, r.Max)
			delta -= r.Max
		}
	} else {
		for delta <= r.Min {
			out = append(out, r.Min)
			delta -= r.Min
		}
	}
	return append(out, delta)
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package decode turns a dumped storage image back into an altitude trace.
package decode

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/relabs-tech/altitude_logger/internal/recorder"
	"github.com/relabs-tech/altitude_logger/internal/schedule"
	"github.com/relabs-tech/altitude_logger/internal/storage"
)

// Nibbles unpacks every byte of image into two values, low nibble first.
func Nibbles(image []byte, r recorder.Range) []int {
	out := make([]int, 0, 2*len(image))
	for _, b := range image {
		out = append(out, r.Decode(b), r.Decode(b>>4))
	}
	return out
}

// Merge folds continuation values into the value that follows them,
// recovering one delta per recorded sample. A run of continuation values
// at the end, cut short by a full store, is emitted as a final delta.
//
// A session that ended on a lone nibble was flushed with a zero pad, which
// comes back as one extra trailing 0 delta. The format cannot tell it from
// a real sample.
func Merge(values []int, r recorder.Range) []int32 {
	var (
		out   []int32
		carry int
		open  bool
	)
	for _, v := range values {
		if r.Boundary(v) {
			carry += v
			open = true
			continue
		}
		out = append(out, int32(carry+v))
		carry, open = 0, false
	}
	if open {
		out = append(out, int32(carry))
	}
	return out
}

// Trim drops trailing erased bytes. A full store may legitimately end in
// 0xFF, a climb pair cut off at capacity, so only trim dumps whose written
// length is unknown and whose store was not filled.
func Trim(image []byte) []byte {
	n := len(image)
	for n > 0 && image[n-1] == storage.Erased {
		n--
	}
	return image[:n]
}

// Point is one sample of the reconstructed trace.
type Point struct {
	Time     time.Duration
	Altitude int32 // intervals above the launch reference
}

// Trace accumulates deltas into altitude points. The first point is the
// reference at time zero; the time axis follows the cadence the scheduler
// used while recording. A flush pad delta (see Merge) adds a final point
// one period after the last real sample, at the same altitude.
func Trace(deltas []int32, c schedule.Cadence) []Point {
	pts := make([]Point, 0, len(deltas)+1)
	pts = append(pts, Point{})
	var (
		t   time.Duration
		alt int32
	)
	for i, d := range deltas {
		t += c.PeriodFor(i)
		alt += d
		pts = append(pts, Point{Time: t, Altitude: alt})
	}
	return pts
}

// Image decodes the written bytes of a dump into a trace. Callers slice
// off the unwritten tail; Image does not trim.
func Image(written []byte, r recorder.Range, c schedule.Cadence) []Point {
	return Trace(Merge(Nibbles(written, r), r), c)
}

// WriteCSV writes seconds,intervals,pascals rows with a header.
func WriteCSV(w io.Writer, pts []Point, intervalPa int32) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"seconds", "intervals", "pascals"}); err != nil {
		return fmt.Errorf("decode: write csv: %w", err)
	}
	for _, p := range pts {
		row := []string{
			strconv.FormatFloat(p.Time.Seconds(), 'f', 3, 64),
			strconv.FormatInt(int64(p.Altitude), 10),
			strconv.FormatInt(int64(p.Altitude)*int64(intervalPa), 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("decode: write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("decode: write csv: %w", err)
	}
	return nil
}

// Fingerprint identifies a dump. Erased tails do not change it.
func Fingerprint(image []byte) uint64 {
	return xxhash.Sum64(Trim(image))
}

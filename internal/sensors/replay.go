// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/relabs-tech/altitude_logger/internal/altitude"
)

// ErrReplayDone is returned once every recorded sample was replayed.
var ErrReplayDone = errors.New("replay finished")

// Replay returns recorded pressures in order. The input holds one integer
// pascal value per line; blank lines and lines starting with '#' are
// skipped.
type Replay struct {
	samples []altitude.Pressure
	next    int
}

// NewReplay parses all samples from r.
func NewReplay(r io.Reader) (*Replay, error) {
	rep := &Replay{}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := strconv.ParseInt(line, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("replay line %d: invalid pressure %q: %w", lineNum, line, err)
		}
		rep.samples = append(rep.samples, altitude.Pressure(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("replay: read: %w", err)
	}
	return rep, nil
}

// OpenReplay loads a replay file.
func OpenReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer f.Close()
	return NewReplay(f)
}

// Len returns the number of samples.
func (r *Replay) Len() int { return len(r.samples) }

func (r *Replay) Init() error {
	if len(r.samples) == 0 {
		return fmt.Errorf("%w: replay has no samples", ErrSensorFailure)
	}
	return nil
}

func (r *Replay) Measure() (altitude.Pressure, error) {
	if r.next >= len(r.samples) {
		return 0, fmt.Errorf("%w: %w", ErrSensorFailure, ErrReplayDone)
	}
	p := r.samples[r.next]
	r.next++
	return p, nil
}

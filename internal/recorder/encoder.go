// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package recorder packs signed altitude deltas into nibbles, two per byte,
// and commits them to a storage backend until it is full.
//
// Layout: bytes are written sequentially from offset 0. The first value of
// a pair sits in the low nibble, the second in the high nibble. Each nibble
// is the value minus Range.Min.
package recorder

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/altitude_logger/internal/storage"
)

var (
	// ErrOutOfRange is returned for a nibble value outside the range.
	ErrOutOfRange = errors.New("recorder: value outside nibble range")
	// ErrFlushed is returned for writes after Flush.
	ErrFlushed = errors.New("recorder: session already flushed")
)

// Encoder writes nibble pairs to a backend a page at a time.
type Encoder struct {
	backend storage.Backend
	r       Range

	page      []byte
	pageIndex int
	bytes     int

	pending byte
	half    bool

	nibbles int
	full    bool
	flushed bool
	err     error
}

// NewEncoder returns an encoder writing from the start of backend.
func NewEncoder(backend storage.Backend, r Range) (*Encoder, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	if backend.Capacity() <= 0 || backend.PageSize() <= 0 {
		return nil, fmt.Errorf("recorder: %w", storage.ErrInvalidGeometry)
	}
	return &Encoder{
		backend: backend,
		r:       r,
		page:    make([]byte, 0, backend.PageSize()),
	}, nil
}

// Range returns the nibble range in use.
func (e *Encoder) Range() Range { return e.r }

// Bytes returns the number of completed bytes, committed or buffered.
func (e *Encoder) Bytes() int { return e.bytes }

// Nibbles returns the number of values written.
func (e *Encoder) Nibbles() int { return e.nibbles }

// Capacity returns the backend size in bytes.
func (e *Encoder) Capacity() int { return e.backend.Capacity() }

// Full reports whether the backend has no room left.
func (e *Encoder) Full() bool { return e.full }

// Pending reports whether a low nibble is waiting for its pair.
func (e *Encoder) Pending() bool { return e.half }

// Record stores delta, splitting it into as many nibbles as needed. It
// reports whether there is room for more; once false, the caller must stop.
// Chunks of delta after the store fills are dropped.
func (e *Encoder) Record(delta int) (bool, error) {
	for _, v := range Split(delta, e.r) {
		more, err := e.WriteNibble(v)
		if err != nil {
			return false, err
		}
		if !more {
			return false, nil
		}
	}
	return true, nil
}

// WriteNibble stores a single value that must already fit the range. It
// reports whether there is room for more. The write that fills the last
// byte is kept and returns false; later writes store nothing.
func (e *Encoder) WriteNibble(v int) (bool, error) {
	if e.err != nil {
		return false, e.err
	}
	if e.flushed {
		return false, ErrFlushed
	}
	if e.full {
		return false, nil
	}
	if !e.r.Contains(v) {
		return false, fmt.Errorf("%w: %d not in [%d,%d]", ErrOutOfRange, v, e.r.Min, e.r.Max)
	}

	n := e.r.Encode(v)
	e.nibbles++
	if !e.half {
		e.pending = n
		e.half = true
		return true, nil
	}

	e.half = false
	if err := e.commitByte(e.pending | n<<4); err != nil {
		return false, err
	}
	return !e.full, nil
}

func (e *Encoder) commitByte(b byte) error {
	e.page = append(e.page, b)
	e.bytes++
	if len(e.page) == e.backend.PageSize() {
		if err := e.writePage(); err != nil {
			return err
		}
		e.pageIndex++
		e.page = e.page[:0]
	}
	if e.bytes >= e.backend.Capacity() {
		e.full = true
	}
	return nil
}

func (e *Encoder) writePage() error {
	if err := e.backend.WritePage(e.pageIndex, e.page); err != nil {
		e.err = fmt.Errorf("recorder: commit page %d: %w", e.pageIndex, err)
		return e.err
	}
	return nil
}

// Flush ends the session: a lone low nibble is paired with a zero delta and
// any buffered partial page is committed. Flush is idempotent; the encoder
// accepts no writes afterwards.
func (e *Encoder) Flush() error {
	if e.flushed {
		return e.err
	}
	e.flushed = true
	if e.err != nil {
		return e.err
	}
	if e.half && !e.full {
		e.half = false
		if err := e.commitByte(e.pending | e.r.Encode(0)<<4); err != nil {
			return err
		}
	}
	if len(e.page) > 0 {
		return e.writePage()
	}
	return nil
}

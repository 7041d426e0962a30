// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package storage provides the non-volatile stores a flight trace is
// written to.
package storage

import (
	"errors"
	"fmt"
)

// Erased is the value of a byte that was never programmed.
const Erased = 0xFF

var (
	// ErrOutOfBounds is returned for writes past the end of a store.
	ErrOutOfBounds = errors.New("storage: write out of bounds")
	// ErrInvalidGeometry is returned for non-positive capacity or page size,
	// or a capacity that is not a whole number of pages.
	ErrInvalidGeometry = errors.New("storage: invalid geometry")
)

// Backend is a fixed-size store written one page at a time. A page size of
// 1 makes it byte-granular.
type Backend interface {
	// Capacity is the total size in bytes.
	Capacity() int
	// PageSize is the commit granularity in bytes.
	PageSize() int
	// WritePage stores data at page*PageSize(). data may be shorter than a
	// page only for the final flush of a session.
	WritePage(page int, data []byte) error
	// ReadAll returns the whole store.
	ReadAll() ([]byte, error)
}

// Eraser is implemented by backends that can be reset to Erased.
type Eraser interface {
	Erase() error
}

// Closer is implemented by backends holding an OS or bus resource.
type Closer interface {
	Close() error
}

func checkGeometry(capacity, pageSize int) error {
	if capacity <= 0 || pageSize <= 0 || capacity%pageSize != 0 {
		return fmt.Errorf("%w: capacity=%d page=%d", ErrInvalidGeometry, capacity, pageSize)
	}
	return nil
}

func checkWrite(b Backend, page int, data []byte) (int, error) {
	off := page * b.PageSize()
	if page < 0 || len(data) > b.PageSize() || off+len(data) > b.Capacity() {
		return 0, fmt.Errorf("%w: page=%d len=%d capacity=%d", ErrOutOfBounds, page, len(data), b.Capacity())
	}
	return off, nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package storage

import "bytes"

// Memory is an in-RAM store.
type Memory struct {
	buf      []byte
	pageSize int
	writes   int
}

// NewMemory returns an erased in-RAM store.
func NewMemory(capacity, pageSize int) (*Memory, error) {
	if err := checkGeometry(capacity, pageSize); err != nil {
		return nil, err
	}
	return &Memory{
		buf:      bytes.Repeat([]byte{Erased}, capacity),
		pageSize: pageSize,
	}, nil
}

func (m *Memory) Capacity() int { return len(m.buf) }
func (m *Memory) PageSize() int { return m.pageSize }

func (m *Memory) WritePage(page int, data []byte) error {
	off, err := checkWrite(m, page, data)
	if err != nil {
		return err
	}
	copy(m.buf[off:], data)
	m.writes++
	return nil
}

func (m *Memory) ReadAll() ([]byte, error) {
	return append([]byte(nil), m.buf...), nil
}

func (m *Memory) Erase() error {
	for i := range m.buf {
		m.buf[i] = Erased
	}
	m.writes = 0
	return nil
}

// Writes returns how many pages were committed since creation or Erase.
func (m *Memory) Writes() int { return m.writes }

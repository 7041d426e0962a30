// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// File keeps the store as a fixed-size image file. Each page is synced to
// disk before WritePage returns.
type File struct {
	f        *os.File
	capacity int
	pageSize int
}

// OpenFile opens or creates an image file. A new or wrongly sized file is
// (re)initialised to Erased; an existing image of the right size is kept.
func OpenFile(path string, capacity, pageSize int) (*File, error) {
	if err := checkGeometry(capacity, pageSize); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open image %s: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: stat image %s: %w", path, err)
	}

	s := &File{f: f, capacity: capacity, pageSize: pageSize}
	if st.Size() != int64(capacity) {
		if err := s.Erase(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *File) Capacity() int { return s.capacity }
func (s *File) PageSize() int { return s.pageSize }

func (s *File) WritePage(page int, data []byte) error {
	off, err := checkWrite(s, page, data)
	if err != nil {
		return err
	}
	if _, err := s.f.WriteAt(data, int64(off)); err != nil {
		return fmt.Errorf("storage: write page %d: %w", page, err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("storage: sync page %d: %w", page, err)
	}
	return nil
}

func (s *File) ReadAll() ([]byte, error) {
	buf := make([]byte, s.capacity)
	if _, err := s.f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("storage: read image: %w", err)
	}
	return buf, nil
}

func (s *File) Erase() error {
	if err := s.f.Truncate(0); err != nil {
		return fmt.Errorf("storage: truncate image: %w", err)
	}
	if _, err := s.f.WriteAt(bytes.Repeat([]byte{Erased}, s.capacity), 0); err != nil {
		return fmt.Errorf("storage: erase image: %w", err)
	}
	return s.f.Sync()
}

func (s *File) Close() error { return s.f.Close() }

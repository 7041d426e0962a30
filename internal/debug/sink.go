// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package debug provides fire-and-forget diagnostic byte sinks.
package debug

import (
	"io"
	"log"
	"sync"
)

// Sink accepts diagnostic bytes. SendByte never blocks on flow control and
// never fails the caller.
type Sink interface {
	SendByte(b byte)
}

// Nop discards everything.
type Nop struct{}

func (Nop) SendByte(byte) {}

// Writer sends each byte to an io.Writer, logging the first error only.
type Writer struct {
	w       io.Writer
	name    string
	errOnce sync.Once
}

// NewWriter wraps w. name is used in the log message on error.
func NewWriter(w io.Writer, name string) *Writer {
	return &Writer{w: w, name: name}
}

func (s *Writer) SendByte(b byte) {
	if _, err := s.w.Write([]byte{b}); err != nil {
		s.errOnce.Do(func() {
			log.Printf("debug: %s write error (further errors suppressed): %v", s.name, err)
		})
	}
}

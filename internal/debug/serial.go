// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package debug

import (
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"
)

// Serial is a UART debug sink.
type Serial struct {
	*Writer
	port io.ReadWriteCloser
}

// OpenSerial opens a UART at baud, 8N1.
func OpenSerial(portName string, baud int) (*Serial, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("debug: open serial %s: %w", portName, err)
	}
	log.Printf("debug: serial sink opened on %s at %d baud", portName, baud)

	return &Serial{Writer: NewWriter(port, portName), port: port}, nil
}

func (s *Serial) Close() error { return s.port.Close() }

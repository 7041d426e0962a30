// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package storage

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// EEPROM24Opts describes a 24Cxx-family serial EEPROM.
type EEPROM24Opts struct {
	Addr      uint16        // 7-bit bus address, usually 0x50
	Capacity  int           // bytes, e.g. 4096 for a 24C32
	PageSize  int           // write page, e.g. 32 for a 24C32
	AddrBytes int           // word address width: 1 (<=24C16) or 2
	WriteTime time.Duration // max write cycle time, 5ms for most parts
}

// DefaultEEPROM24Opts matches a 24C32.
var DefaultEEPROM24Opts = EEPROM24Opts{
	Addr:      0x50,
	Capacity:  4096,
	PageSize:  32,
	AddrBytes: 2,
	WriteTime: 5 * time.Millisecond,
}

const eepromReadChunk = 128

// EEPROM24 is a 24Cxx EEPROM on an I2C bus.
type EEPROM24 struct {
	dev  i2c.Dev
	opts EEPROM24Opts

	// sleep is replaced in tests.
	sleep func(time.Duration)
}

// NewEEPROM24 binds an EEPROM on bus. It does not touch the device.
func NewEEPROM24(bus i2c.Bus, opts EEPROM24Opts) (*EEPROM24, error) {
	if err := checkGeometry(opts.Capacity, opts.PageSize); err != nil {
		return nil, err
	}
	if opts.AddrBytes != 1 && opts.AddrBytes != 2 {
		return nil, fmt.Errorf("storage: eeprom address width must be 1 or 2, got %d", opts.AddrBytes)
	}
	if opts.WriteTime <= 0 {
		opts.WriteTime = DefaultEEPROM24Opts.WriteTime
	}
	return &EEPROM24{
		dev:   i2c.Dev{Bus: bus, Addr: opts.Addr},
		opts:  opts,
		sleep: time.Sleep,
	}, nil
}

func (e *EEPROM24) Capacity() int { return e.opts.Capacity }
func (e *EEPROM24) PageSize() int { return e.opts.PageSize }

func (e *EEPROM24) wordAddr(off int) []byte {
	if e.opts.AddrBytes == 1 {
		return []byte{byte(off)}
	}
	return []byte{byte(off >> 8), byte(off)}
}

// WritePage sends one page and blocks until the write cycle completes.
func (e *EEPROM24) WritePage(page int, data []byte) error {
	off, err := checkWrite(e, page, data)
	if err != nil {
		return err
	}

	w := append(e.wordAddr(off), data...)
	if err := e.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("storage: eeprom write page %d: %w", page, err)
	}
	return e.waitReady()
}

// waitReady polls until the device acknowledges again. A device busy with
// its internal write cycle NAKs its address.
func (e *EEPROM24) waitReady() error {
	step := e.opts.WriteTime / 5
	if step <= 0 {
		step = time.Millisecond
	}
	deadline := 4 * e.opts.WriteTime
	var err error
	for waited := time.Duration(0); waited <= deadline; waited += step {
		if err = e.dev.Tx(e.wordAddr(0), nil); err == nil {
			return nil
		}
		e.sleep(step)
	}
	return fmt.Errorf("storage: eeprom write cycle timeout: %w", err)
}

func (e *EEPROM24) ReadAll() ([]byte, error) {
	buf := make([]byte, e.opts.Capacity)
	for off := 0; off < len(buf); off += eepromReadChunk {
		end := off + eepromReadChunk
		if end > len(buf) {
			end = len(buf)
		}
		if err := e.dev.Tx(e.wordAddr(off), buf[off:end]); err != nil {
			return nil, fmt.Errorf("storage: eeprom read at %d: %w", off, err)
		}
	}
	return buf, nil
}

func (e *EEPROM24) Erase() error {
	blank := make([]byte, e.opts.PageSize)
	for i := range blank {
		blank[i] = Erased
	}
	for p := 0; p < e.opts.Capacity/e.opts.PageSize; p++ {
		if err := e.WritePage(p, blank); err != nil {
			return err
		}
	}
	return nil
}

func (e *EEPROM24) String() string {
	return fmt.Sprintf("24Cxx@0x%02X(%dB)", e.opts.Addr, e.opts.Capacity)
}

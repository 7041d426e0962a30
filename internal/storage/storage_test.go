// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestMemory_Geometry(t *testing.T) {
	_, err := NewMemory(0, 1)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	_, err = NewMemory(100, 32)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	m, err := NewMemory(64, 8)
	require.NoError(t, err)
	assert.Equal(t, 64, m.Capacity())
	assert.Equal(t, 8, m.PageSize())
}

func TestMemory_WriteAndBounds(t *testing.T) {
	m, err := NewMemory(16, 4)
	require.NoError(t, err)

	require.NoError(t, m.WritePage(1, []byte{1, 2, 3, 4}))
	require.NoError(t, m.WritePage(3, []byte{9}))

	img, err := m.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0xFF, 0xFF, 0xFF, 0xFF,
		1, 2, 3, 4,
		0xFF, 0xFF, 0xFF, 0xFF,
		9, 0xFF, 0xFF, 0xFF,
	}, img)

	assert.ErrorIs(t, m.WritePage(4, []byte{1}), ErrOutOfBounds)
	assert.ErrorIs(t, m.WritePage(0, []byte{1, 2, 3, 4, 5}), ErrOutOfBounds)
	assert.ErrorIs(t, m.WritePage(-1, []byte{1}), ErrOutOfBounds)
	assert.Equal(t, 2, m.Writes())

	require.NoError(t, m.Erase())
	img, _ = m.ReadAll()
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 16), img)
}

func TestFile_CreateWriteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.img")

	f, err := OpenFile(path, 32, 8)
	require.NoError(t, err)
	require.NoError(t, f.WritePage(0, []byte{0xA5, 0x5A}))
	require.NoError(t, f.Close())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(32), st.Size())

	f, err = OpenFile(path, 32, 8)
	require.NoError(t, err)
	defer f.Close()

	img, err := f.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA5, 0x5A, 0xFF}, img[:3], "existing image is kept")

	require.NoError(t, f.Erase())
	img, err = f.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 32), img)
}

func TestFile_ResizedImageIsErased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.img")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	f, err := OpenFile(path, 16, 1)
	require.NoError(t, err)
	defer f.Close()

	img, err := f.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 16), img)
}

// fakeBus emulates a 24Cxx with 2 address bytes that NAKs a fixed number
// of polls after each page write.
type fakeBus struct {
	mem       []byte
	busyPolls int
	busy      int
	pageTx    int
	failWrite bool
}

func (b *fakeBus) String() string                    { return "fake" }
func (b *fakeBus) SetSpeed(f physic.Frequency) error { return nil }

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if b.busy > 0 {
		b.busy--
		return errors.New("nak")
	}
	off := int(w[0])<<8 | int(w[1])
	if len(r) > 0 {
		copy(r, b.mem[off:])
		return nil
	}
	if len(w) > 2 {
		if b.failWrite {
			return errors.New("bus error")
		}
		copy(b.mem[off:], w[2:])
		b.pageTx++
		b.busy = b.busyPolls
	}
	return nil
}

func newFakeEEPROM(t *testing.T, busyPolls int) (*EEPROM24, *fakeBus) {
	t.Helper()
	bus := &fakeBus{mem: bytes.Repeat([]byte{0xFF}, 256), busyPolls: busyPolls}
	e, err := NewEEPROM24(bus, EEPROM24Opts{
		Addr: 0x50, Capacity: 256, PageSize: 16, AddrBytes: 2, WriteTime: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	e.sleep = func(time.Duration) {}
	return e, bus
}

func TestEEPROM24_WriteReadAll(t *testing.T) {
	e, bus := newFakeEEPROM(t, 3)

	require.NoError(t, e.WritePage(2, []byte{1, 2, 3}))
	assert.Equal(t, 1, bus.pageTx)
	assert.Equal(t, 0, bus.busy, "write cycle polled to completion")

	img, err := e.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, img[32:35])
	assert.Equal(t, byte(0xFF), img[35])
}

func TestEEPROM24_Timeout(t *testing.T) {
	e, _ := newFakeEEPROM(t, 1000)
	err := e.WritePage(0, []byte{1})
	assert.ErrorContains(t, err, "write cycle timeout")
}

func TestEEPROM24_Errors(t *testing.T) {
	e, bus := newFakeEEPROM(t, 0)
	assert.ErrorIs(t, e.WritePage(16, []byte{1}), ErrOutOfBounds)

	bus.failWrite = true
	assert.ErrorContains(t, e.WritePage(0, []byte{1}), "bus error")

	_, err := NewEEPROM24(bus, EEPROM24Opts{Capacity: 256, PageSize: 16, AddrBytes: 3})
	assert.Error(t, err)
}

func TestEEPROM24_Erase(t *testing.T) {
	e, bus := newFakeEEPROM(t, 0)
	bus.mem[7] = 0x12

	require.NoError(t, e.Erase())
	assert.Equal(t, 16, bus.pageTx)
	assert.Equal(t, byte(0xFF), bus.mem[7])
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package recorder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/altitude_logger/internal/storage"
)

var testRange = RangeFromMax(10)

func newEncoder(t *testing.T, capacity, pageSize int) (*Encoder, *storage.Memory) {
	t.Helper()
	mem, err := storage.NewMemory(capacity, pageSize)
	require.NoError(t, err)
	enc, err := NewEncoder(mem, testRange)
	require.NoError(t, err)
	return enc, mem
}

func image(t *testing.T, mem *storage.Memory) []byte {
	t.Helper()
	img, err := mem.ReadAll()
	require.NoError(t, err)
	return img
}

func TestRange(t *testing.T) {
	assert.Equal(t, Range{Min: -5, Max: 10}, testRange)
	assert.NoError(t, testRange.Validate())
	assert.Error(t, Range{Min: -5, Max: 9}.Validate())
	assert.Error(t, Range{Min: 0, Max: 15}.Validate())
	assert.Error(t, Range{Min: -15, Max: 0}.Validate())

	for v := testRange.Min; v <= testRange.Max; v++ {
		assert.Equal(t, v, testRange.Decode(testRange.Encode(v)))
	}
	assert.True(t, testRange.Boundary(10))
	assert.True(t, testRange.Boundary(-5))
	assert.False(t, testRange.Boundary(0))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		delta int
		want  []int
	}{
		{0, []int{0}},
		{9, []int{9}},
		{10, []int{10, 0}},
		{11, []int{10, 1}},
		{22, []int{10, 10, 2}},
		{-4, []int{-4}},
		{-5, []int{-5, 0}},
		{-6, []int{-5, -1}},
		{-17, []int{-5, -5, -5, -2}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Split(tt.delta, testRange), "Split(%d)", tt.delta)
	}
}

func TestSplit_Properties(t *testing.T) {
	for delta := -200; delta <= 200; delta++ {
		parts := Split(delta, testRange)
		sum := 0
		for i, v := range parts {
			sum += v
			last := i == len(parts)-1
			if last {
				assert.True(t, v > testRange.Min && v < testRange.Max, "remainder %d of %d", v, delta)
			} else {
				assert.True(t, testRange.Boundary(v), "chunk %d of %d", v, delta)
			}
		}
		assert.Equal(t, delta, sum)
		if delta > testRange.Min && delta < testRange.Max {
			assert.Equal(t, []int{delta}, parts)
		}
	}
}

func TestWriteNibble_PacksLowFirst(t *testing.T) {
	enc, mem := newEncoder(t, 4, 1)

	more, err := enc.WriteNibble(10)
	require.NoError(t, err)
	assert.True(t, more)
	assert.True(t, enc.Pending())
	assert.Equal(t, 0, enc.Bytes())

	more, err = enc.WriteNibble(-5)
	require.NoError(t, err)
	assert.True(t, more)
	assert.False(t, enc.Pending())

	want := byte((10-(-5))&0xF) | byte(((-5)-(-5))&0xF)<<4
	assert.Equal(t, want, image(t, mem)[0])
	assert.Equal(t, byte(0x0F), image(t, mem)[0])
}

func TestWriteNibble_OutOfRange(t *testing.T) {
	enc, _ := newEncoder(t, 4, 1)
	_, err := enc.WriteNibble(11)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = enc.WriteNibble(-6)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 0, enc.Nibbles())
}

func TestRecord_SplitsLargeDelta(t *testing.T) {
	enc, mem := newEncoder(t, 8, 1)

	for _, d := range []int{11, 11, 22} {
		more, err := enc.Record(d)
		require.NoError(t, err)
		require.True(t, more)
	}
	// 10,1 | 10,1 | 10,10 | 2,pending
	assert.Equal(t, 7, enc.Nibbles())
	assert.Equal(t, 3, enc.Bytes())
	img := image(t, mem)
	assert.Equal(t, []byte{0x6F, 0x6F, 0xFF, 0xFF}, img[:4])

	require.NoError(t, enc.Flush())
	img = image(t, mem)
	assert.Equal(t, byte(testRange.Encode(2)|testRange.Encode(0)<<4), img[3])
}

func TestCapacityBoundary(t *testing.T) {
	enc, mem := newEncoder(t, 3, 1)

	for i := 0; i < 2; i++ {
		more, err := enc.WriteNibble(1)
		require.NoError(t, err)
		require.True(t, more)
		more, err = enc.WriteNibble(2)
		require.NoError(t, err)
		require.True(t, more, "pair %d", i)
	}

	more, err := enc.WriteNibble(3)
	require.NoError(t, err)
	assert.True(t, more)
	more, err = enc.WriteNibble(4)
	require.NoError(t, err)
	assert.False(t, more, "filling the last byte reports no room")
	assert.True(t, enc.Full())
	assert.Equal(t, 3, mem.Writes())

	before := image(t, mem)
	for i := 0; i < 5; i++ {
		more, err = enc.WriteNibble(0)
		require.NoError(t, err)
		assert.False(t, more)
	}
	assert.Equal(t, before, image(t, mem))
	assert.Equal(t, 3, mem.Writes(), "nothing committed once full")
	assert.NoError(t, enc.Flush())
	assert.Equal(t, 3, mem.Writes())
}

// A multi-chunk delta stops at the first chunk that fills the store.
func TestRecord_StopsMidDelta(t *testing.T) {
	enc, mem := newEncoder(t, 1, 1)

	more, err := enc.Record(-35)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, 2, enc.Nibbles(), "remaining chunks dropped")
	assert.Equal(t, byte(0x00), image(t, mem)[0])

	more, err = enc.Record(1)
	require.NoError(t, err)
	assert.False(t, more)
}

func TestPageGranularCommit(t *testing.T) {
	enc, mem := newEncoder(t, 8, 4)

	for i := 0; i < 6; i++ {
		_, err := enc.WriteNibble(0)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, enc.Bytes())
	assert.Equal(t, 0, mem.Writes(), "partial page stays buffered")

	for i := 0; i < 2; i++ {
		_, err := enc.WriteNibble(0)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, mem.Writes())

	var more bool
	for i := 0; i < 8; i++ {
		var err error
		more, err = enc.WriteNibble(1)
		require.NoError(t, err)
		if i < 7 {
			require.True(t, more)
		}
	}
	assert.False(t, more)
	assert.Equal(t, 2, mem.Writes())

	zero := testRange.Encode(0)
	one := testRange.Encode(1)
	assert.Equal(t, []byte{
		zero | zero<<4, zero | zero<<4, zero | zero<<4, zero | zero<<4,
		one | one<<4, one | one<<4, one | one<<4, one | one<<4,
	}, image(t, mem))
}

func TestFlush_PartialPage(t *testing.T) {
	enc, mem := newEncoder(t, 8, 4)
	for _, v := range []int{1, 2, 3} {
		_, err := enc.WriteNibble(v)
		require.NoError(t, err)
	}
	require.NoError(t, enc.Flush())
	require.NoError(t, enc.Flush())

	img := image(t, mem)
	assert.Equal(t, testRange.Encode(1)|testRange.Encode(2)<<4, img[0])
	assert.Equal(t, testRange.Encode(3)|testRange.Encode(0)<<4, img[1])
	assert.Equal(t, byte(0xFF), img[2])
	assert.Equal(t, 1, mem.Writes())

	_, err := enc.WriteNibble(0)
	assert.ErrorIs(t, err, ErrFlushed)
}

type failingBackend struct{ *storage.Memory }

func (f failingBackend) WritePage(int, []byte) error { return errors.New("i2c nak") }

func TestBackendErrorStopsRecording(t *testing.T) {
	mem, err := storage.NewMemory(4, 1)
	require.NoError(t, err)
	enc, err := NewEncoder(failingBackend{mem}, testRange)
	require.NoError(t, err)

	more, err := enc.Record(1)
	require.NoError(t, err)
	require.True(t, more)

	more, err = enc.Record(1)
	assert.False(t, more)
	assert.ErrorContains(t, err, "i2c nak")

	more, err = enc.Record(1)
	assert.False(t, more)
	assert.Error(t, err, "error is sticky")
}

func TestNewEncoder_BadRange(t *testing.T) {
	mem, err := storage.NewMemory(4, 1)
	require.NoError(t, err)
	_, err = NewEncoder(mem, Range{Min: -1, Max: 1})
	assert.Error(t, err)
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package arm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

// scriptedPin returns one edge result and one level per call.
type scriptedPin struct {
	edges  []bool
	levels []gpio.Level
	inErr  error
	pull   gpio.Pull
	edge   gpio.Edge
}

func (p *scriptedPin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.pull, p.edge = pull, edge
	return p.inErr
}

func (p *scriptedPin) WaitForEdge(time.Duration) bool {
	if len(p.edges) == 0 {
		return false
	}
	e := p.edges[0]
	p.edges = p.edges[1:]
	return e
}

func (p *scriptedPin) Read() gpio.Level {
	if len(p.levels) == 0 {
		return gpio.High
	}
	l := p.levels[0]
	p.levels = p.levels[1:]
	return l
}

func TestButton_IgnoresBounce(t *testing.T) {
	pin := &scriptedPin{
		edges:  []bool{false, true, true},
		levels: []gpio.Level{gpio.High, gpio.Low},
	}
	b, err := NewButton(pin, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, gpio.PullUp, pin.pull)
	assert.Equal(t, gpio.FallingEdge, pin.edge)

	require.NoError(t, b.Wait(context.Background()))
	assert.Empty(t, pin.edges, "first edge was a bounce")
}

func TestButton_Cancel(t *testing.T) {
	b, err := NewButton(&scriptedPin{}, time.Millisecond)
	require.NoError(t, err)
	b.poll = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Wait(ctx), context.DeadlineExceeded)
}

func TestNewButton_ConfigError(t *testing.T) {
	_, err := NewButton(&scriptedPin{inErr: errors.New("busy")}, time.Millisecond)
	assert.ErrorContains(t, err, "busy")
}

func TestImmediate(t *testing.T) {
	assert.NoError(t, Immediate{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Immediate{}.Wait(ctx), context.Canceled)
}

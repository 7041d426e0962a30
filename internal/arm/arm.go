// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package arm blocks until the operator arms the logger. Arming is a one
// time step at boot so a power cycle on the shelf never overwrites a
// recorded flight.
package arm

import (
	"context"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Trigger waits for the arm action.
type Trigger interface {
	Wait(ctx context.Context) error
}

// Immediate arms without waiting.
type Immediate struct{}

func (Immediate) Wait(ctx context.Context) error { return ctx.Err() }

// InputPin is the input side of a GPIO with edge detection.
type InputPin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
	Read() gpio.Level
}

// Button is an active-low push button with an internal pull-up.
type Button struct {
	pin      InputPin
	debounce time.Duration
	poll     time.Duration
}

// NewButton configures pin as a pulled-up falling-edge input. The button
// must stay pressed for debounce to count.
func NewButton(pin InputPin, debounce time.Duration) (*Button, error) {
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("arm: configure button: %w", err)
	}
	return &Button{pin: pin, debounce: debounce, poll: 100 * time.Millisecond}, nil
}

// OpenButton looks up the GPIO by name, e.g. "GPIO27".
func OpenButton(name string, debounce time.Duration) (*Button, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("arm: periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("arm: pin %q not found", name)
	}
	return NewButton(p, debounce)
}

// Wait blocks until a debounced press or ctx is done.
func (b *Button) Wait(ctx context.Context) error {
	log.Println("arm: waiting for button press")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !b.pin.WaitForEdge(b.poll) {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.debounce):
		}

		if b.pin.Read() == gpio.Low {
			log.Println("arm: armed")
			return nil
		}
	}
}

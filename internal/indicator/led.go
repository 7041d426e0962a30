// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package indicator

import (
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Pin is the output side of a GPIO.
type Pin interface {
	Out(l gpio.Level) error
}

type pattern struct {
	on, off time.Duration
}

// LED drives a single status LED. Solid on while armed, off while
// recording so it draws no current, a short flash when the trace is
// complete, and a fast blink that never stops on a fault.
type LED struct {
	pin Pin

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}

	patterns map[Status]pattern
}

// NewLED wraps an output pin.
func NewLED(pin Pin) *LED {
	return &LED{
		pin: pin,
		patterns: map[Status]pattern{
			Waiting: {on: 500 * time.Millisecond, off: 500 * time.Millisecond},
			Full:    {on: 50 * time.Millisecond, off: 2 * time.Second},
			Fault:   {on: 100 * time.Millisecond, off: 100 * time.Millisecond},
		},
	}
}

// OpenLED looks up a GPIO by name, e.g. "GPIO17".
func OpenLED(name string) (*LED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("led: periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("led: pin %q not found", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("led: configure %s: %w", name, err)
	}
	return NewLED(p), nil
}

func (l *LED) Show(s Status) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopBlink()

	if p, ok := l.patterns[s]; ok {
		l.stop = make(chan struct{})
		l.done = make(chan struct{})
		go l.blink(p, l.stop, l.done)
		return
	}

	level := gpio.Low
	if s == Booting || s == Armed {
		level = gpio.High
	}
	l.out(level)
}

func (l *LED) stopBlink() {
	if l.stop == nil {
		return
	}
	close(l.stop)
	<-l.done
	l.stop, l.done = nil, nil
}

func (l *LED) blink(p pattern, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		l.out(gpio.High)
		select {
		case <-stop:
			return
		case <-time.After(p.on):
		}
		l.out(gpio.Low)
		select {
		case <-stop:
			return
		case <-time.After(p.off):
		}
	}
}

func (l *LED) out(level gpio.Level) {
	if err := l.pin.Out(level); err != nil {
		log.Printf("led: set %s: %v", level, err)
	}
}

// Close stops any blinking and turns the LED off.
func (l *LED) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopBlink()
	return l.pin.Out(gpio.Low)
}

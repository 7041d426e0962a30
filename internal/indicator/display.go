// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package indicator

import (
	"fmt"
	"image"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// Drawer is the part of ssd1306.Dev the display uses.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Display shows the status on a 128x64 SSD1306 OLED.
type Display struct {
	dev Drawer
	bus i2c.BusCloser
}

// NewDisplay wraps an already initialised drawer.
func NewDisplay(dev Drawer) *Display {
	return &Display{dev: dev}
}

// OpenDisplay initialises an SSD1306 on the named I2C bus.
func OpenDisplay(busName string, addr uint16) (*Display, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("display: open I2C bus %q: %w", busName, err)
	}

	dev, err := ssd1306.NewI2C(bus, addr, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("display: init at 0x%02X: %w", addr, err)
	}
	log.Printf("display: initialized at 0x%02X", addr)

	return &Display{dev: dev, bus: bus}, nil
}

var statusLines = map[Status][2]string{
	Booting:   {"Altimeter", "Booting..."},
	Waiting:   {"Ready", "Press to arm"},
	Armed:     {"ARMED", "Waiting launch"},
	Recording: {"RECORDING", ""},
	Full:      {"Trace done", "Memory full"},
	Fault:     {"SENSOR FAULT", "Reset needed"},
}

func (d *Display) Show(s Status) {
	lines, ok := statusLines[s]
	if !ok {
		lines = [2]string{s.String(), ""}
	}
	if err := d.dev.Draw(d.dev.Bounds(), render(lines), image.Point{}); err != nil {
		log.Printf("display: draw %s: %v", s, err)
	}
}

func render(lines [2]string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(0, 26)
	drawer.DrawBytes([]byte(lines[0]))
	drawer.Dot = fixed.P(0, 43)
	drawer.DrawBytes([]byte(lines[1]))
	return img
}

// Close releases the bus.
func (d *Display) Close() error {
	if d.bus == nil {
		return nil
	}
	return d.bus.Close()
}

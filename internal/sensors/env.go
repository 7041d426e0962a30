// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"
	"log"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/altitude_logger/internal/altitude"
)

// BME280Opts selects the bus and sampling of a Bosch BMx280.
type BME280Opts struct {
	Bus         string // "i2c" or "spi"
	Device      string // bus name for i2creg/spireg, "" for the first one
	I2CAddr     uint16 // 0x76 or 0x77
	PressureOSR byte   // 0=off 1=1x .. 5=16x
	TempOSR     byte   // 0=off 1=1x .. 5=16x
	IIRFilter   byte   // 0=off 1=2 .. 4=16
}

// BME280 reads pressure from a BME280/BMP280 in forced mode.
type BME280 struct {
	opts   BME280Opts
	dev    *bmxx80.Dev
	closer io.Closer
}

// NewBME280 returns an uninitialised sensor; call Init before Measure.
func NewBME280(opts BME280Opts) *BME280 {
	return &BME280{opts: opts}
}

// Init opens the bus and configures the device.
func (b *BME280) Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("bmx280: periph host init: %w", err)
	}

	devOpts := bmxx80.DefaultOpts
	if b.opts.PressureOSR != 0 {
		devOpts.Pressure = bmxx80.Oversampling(b.opts.PressureOSR)
	}
	if b.opts.TempOSR != 0 {
		devOpts.Temperature = bmxx80.Oversampling(b.opts.TempOSR)
	}
	devOpts.Filter = bmxx80.Filter(b.opts.IIRFilter)

	switch b.opts.Bus {
	case "", "i2c":
		bus, err := i2creg.Open(b.opts.Device)
		if err != nil {
			return fmt.Errorf("bmx280: i2c open %q: %w", b.opts.Device, err)
		}
		dev, err := bmxx80.NewI2C(bus, b.opts.I2CAddr, &devOpts)
		if err != nil {
			bus.Close()
			return fmt.Errorf("bmx280: init at 0x%02X: %w", b.opts.I2CAddr, err)
		}
		b.dev, b.closer = dev, bus
	case "spi":
		port, err := spireg.Open(b.opts.Device)
		if err != nil {
			return fmt.Errorf("bmx280: spi open %q: %w", b.opts.Device, err)
		}
		dev, err := bmxx80.NewSPI(port, &devOpts)
		if err != nil {
			port.Close()
			return fmt.Errorf("bmx280: init on %s: %w", b.opts.Device, err)
		}
		b.dev, b.closer = dev, port
	default:
		return fmt.Errorf("bmx280: unknown bus %q", b.opts.Bus)
	}

	log.Printf("bmx280: %s initialized (osr p=%d t=%d, iir=%d)", b.dev, devOpts.Pressure, devOpts.Temperature, devOpts.Filter)
	return nil
}

// Measure triggers one forced conversion and returns whole pascals.
func (b *BME280) Measure() (altitude.Pressure, error) {
	if b.dev == nil {
		return 0, fmt.Errorf("%w: bmx280 not initialized", ErrSensorFailure)
	}
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return 0, fmt.Errorf("%w: bmx280 sense: %v", ErrSensorFailure, err)
	}
	return altitude.Pressure(e.Pressure / physic.Pascal), nil
}

// Close halts the device and releases the bus.
func (b *BME280) Close() error {
	if b.dev == nil {
		return nil
	}
	if err := b.dev.Halt(); err != nil {
		log.Printf("bmx280: halt: %v", err)
	}
	return b.closer.Close()
}

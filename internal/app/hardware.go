// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/altitude_logger/internal/arm"
	"github.com/relabs-tech/altitude_logger/internal/config"
	"github.com/relabs-tech/altitude_logger/internal/debug"
	"github.com/relabs-tech/altitude_logger/internal/flight"
	"github.com/relabs-tech/altitude_logger/internal/indicator"
	"github.com/relabs-tech/altitude_logger/internal/recorder"
	"github.com/relabs-tech/altitude_logger/internal/schedule"
	"github.com/relabs-tech/altitude_logger/internal/sensors"
	"github.com/relabs-tech/altitude_logger/internal/storage"
)

// closers runs cleanup funcs in reverse order.
type closers []func()

func (c *closers) add(f func()) { *c = append(*c, f) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// openStorage opens the configured backend and erases it when asked.
func openStorage(sc config.StorageConfig) (storage.Backend, func(), error) {
	var (
		backend storage.Backend
		release = func() {}
	)

	switch sc.Kind {
	case "memory":
		m, err := storage.NewMemory(sc.Capacity, sc.PageSize)
		if err != nil {
			return nil, nil, err
		}
		backend = m

	case "file":
		f, err := storage.OpenFile(sc.Path, sc.Capacity, sc.PageSize)
		if err != nil {
			return nil, nil, err
		}
		backend = f
		release = func() {
			if err := f.Close(); err != nil {
				log.Printf("storage: close %s: %v", sc.Path, err)
			}
		}

	case "eeprom24":
		if _, err := host.Init(); err != nil {
			return nil, nil, fmt.Errorf("storage: periph host init: %w", err)
		}
		bus, err := i2creg.Open(sc.I2CBus)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: open I2C bus %q: %w", sc.I2CBus, err)
		}
		e, err := storage.NewEEPROM24(bus, storage.EEPROM24Opts{
			Addr:      sc.I2CAddr,
			Capacity:  sc.Capacity,
			PageSize:  sc.PageSize,
			AddrBytes: sc.AddrBytes,
			WriteTime: sc.WriteTime,
		})
		if err != nil {
			bus.Close()
			return nil, nil, err
		}
		backend = e
		release = func() { bus.Close() }

	default:
		return nil, nil, fmt.Errorf("storage: unknown kind %q", sc.Kind)
	}

	if sc.Erase {
		er, ok := backend.(storage.Eraser)
		if !ok {
			release()
			return nil, nil, fmt.Errorf("storage: %s cannot be erased", sc.Kind)
		}
		if err := er.Erase(); err != nil {
			release()
			return nil, nil, fmt.Errorf("storage: erase: %w", err)
		}
		log.Printf("storage: erased %d bytes", backend.Capacity())
	}
	log.Printf("storage: %s, %d bytes in %d-byte pages", sc.Kind, backend.Capacity(), backend.PageSize())
	return backend, release, nil
}

// openDebug opens the configured debug sink.
func openDebug(dc config.DebugConfig) (debug.Sink, func(), error) {
	switch dc.Sink {
	case "", "none":
		return debug.Nop{}, func() {}, nil
	case "serial":
		s, err := debug.OpenSerial(dc.SerialPort, dc.BaudRate)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "mqtt":
		m, disconnect, err := debug.DialMQTT(dc.MQTTBroker, dc.MQTTClientID, dc.MQTTTopic)
		if err != nil {
			return nil, nil, err
		}
		return m, disconnect, nil
	default:
		return nil, nil, fmt.Errorf("debug: unknown sink %q", dc.Sink)
	}
}

// openIndicators always logs and adds the LED and display when configured.
// A missing indicator is not fatal: the logger can fly without one.
func openIndicators(ic config.IndicatorConfig) (indicator.Indicator, func()) {
	multi := indicator.Multi{indicator.Log{}}
	var cleanup closers

	if ic.LEDPin != "" {
		led, err := indicator.OpenLED(ic.LEDPin)
		if err != nil {
			log.Printf("WARNING: %v", err)
		} else {
			multi = append(multi, led)
			cleanup.add(func() { led.Close() })
		}
	}
	if ic.Display {
		d, err := indicator.OpenDisplay(ic.DisplayBus, ic.DisplayAddr)
		if err != nil {
			log.Printf("WARNING: %v", err)
		} else {
			multi = append(multi, d)
			cleanup.add(func() { d.Close() })
		}
	}
	return multi, cleanup.run
}

// openTrigger returns the arm button, or Immediate without one.
func openTrigger(ac config.ArmConfig) (arm.Trigger, error) {
	if ac.ButtonPin == "" {
		return arm.Immediate{}, nil
	}
	return arm.OpenButton(ac.ButtonPin, ac.Debounce)
}

func newBarometer(sc config.SensorConfig) *sensors.BME280 {
	return sensors.NewBME280(sensors.BME280Opts{
		Bus:         sc.Bus,
		Device:      sc.Device,
		I2CAddr:     sc.I2CAddr,
		PressureOSR: sc.PressureOSR,
		TempOSR:     sc.TempOSR,
		IIRFilter:   sc.IIRFilter,
	})
}

// sessionParts are the collaborators of a session that differ between the
// device and the bench.
type sessionParts struct {
	baro     sensors.Barometer
	backend  storage.Backend
	ticker   schedule.Ticker
	debug    debug.Sink
	observer flight.Observer
	ind      indicator.Indicator
}

// newSession builds the encoder, scheduler and session for the effective
// profile.
func newSession(cfg *config.Config, parts sessionParts) (*flight.Session, *recorder.Encoder, error) {
	prof, err := cfg.Effective()
	if err != nil {
		return nil, nil, err
	}
	policy, err := flight.ParseSensorPolicy(cfg.SensorPolicy)
	if err != nil {
		return nil, nil, err
	}

	enc, err := recorder.NewEncoder(parts.backend, prof.Range())
	if err != nil {
		return nil, nil, err
	}
	sched, err := schedule.New(prof.Cadence(), parts.ticker)
	if err != nil {
		return nil, nil, err
	}

	s, err := flight.New(flight.Options{
		Barometer:          parts.baro,
		Encoder:            enc,
		Scheduler:          sched,
		IntervalPa:         prof.IntervalPa,
		ThresholdIntervals: prof.ThresholdIntervals,
		Policy:             policy,
		Debug:              parts.debug,
		Observer:           parts.observer,
		Indicator:          parts.ind,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("mode %s: %d Pa per interval, threshold %d, %s then %s after %d records, nibble range [%d,%d]",
		cfg.Mode, prof.IntervalPa, prof.ThresholdIntervals, prof.FastPeriod, prof.SlowPeriod,
		prof.FastLimit, prof.Range().Min, prof.Range().Max)
	return s, enc, nil
}

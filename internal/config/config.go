// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/altitude_logger/internal/recorder"
	"github.com/relabs-tech/altitude_logger/internal/schedule"
)

// Config holds all application configuration values.
type Config struct {
	// Mode selects a profile from Profiles, e.g. "rocket" or "kite".
	Mode     string             `yaml:"mode"`
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
	// Flight overrides individual fields of the selected profile.
	Flight Profile `yaml:"flight,omitempty"`

	// SensorPolicy is "halt" or "reuse".
	SensorPolicy string `yaml:"sensor_policy"`

	Sensor    SensorConfig    `yaml:"sensor"`
	Storage   StorageConfig   `yaml:"storage"`
	Arm       ArmConfig       `yaml:"arm"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Debug     DebugConfig     `yaml:"debug"`
	Bench     BenchConfig     `yaml:"bench"`
}

// Profile tunes the recording pipeline for one kind of flight. Zero
// fields mean "inherit".
type Profile struct {
	IntervalPa         int32         `yaml:"interval_pa,omitempty"`
	ThresholdIntervals int32         `yaml:"threshold_intervals,omitempty"`
	FastPeriod         time.Duration `yaml:"fast_period,omitempty"`
	SlowPeriod         time.Duration `yaml:"slow_period,omitempty"`
	FastLimit          int           `yaml:"fast_limit,omitempty"`
	NibbleMax          int           `yaml:"nibble_max,omitempty"`
}

// SensorConfig selects the BMx280 connection.
type SensorConfig struct {
	Bus         string `yaml:"bus"`    // i2c or spi
	Device      string `yaml:"device"` // periph bus name, empty for the first
	I2CAddr     uint16 `yaml:"i2c_addr"`
	PressureOSR byte   `yaml:"pressure_osr"`
	TempOSR     byte   `yaml:"temp_osr"`
	IIRFilter   byte   `yaml:"iir_filter"`
}

// StorageConfig selects where the trace is written.
type StorageConfig struct {
	Kind      string        `yaml:"kind"` // eeprom24, file or memory
	Path      string        `yaml:"path"`
	Capacity  int           `yaml:"capacity"`
	PageSize  int           `yaml:"page_size"`
	I2CBus    string        `yaml:"i2c_bus"`
	I2CAddr   uint16        `yaml:"i2c_addr"`
	AddrBytes int           `yaml:"addr_bytes"`
	WriteTime time.Duration `yaml:"write_time"`
	// Erase wipes the store before a session starts.
	Erase bool `yaml:"erase"`
}

// ArmConfig selects the start button. An empty pin arms immediately.
type ArmConfig struct {
	ButtonPin string        `yaml:"button_pin"`
	Debounce  time.Duration `yaml:"debounce"`
}

// IndicatorConfig selects status outputs.
type IndicatorConfig struct {
	LEDPin      string `yaml:"led_pin"`
	Display     bool   `yaml:"display"`
	DisplayBus  string `yaml:"display_bus"`
	DisplayAddr uint16 `yaml:"display_addr"`
}

// DebugConfig selects the debug byte sink.
type DebugConfig struct {
	Sink         string `yaml:"sink"` // none, serial or mqtt
	SerialPort   string `yaml:"serial_port"`
	BaudRate     int    `yaml:"baud_rate"`
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTClientID string `yaml:"mqtt_client_id"`
	MQTTTopic    string `yaml:"mqtt_topic"`
}

// BenchConfig drives the host-side bench run.
type BenchConfig struct {
	Source     string `yaml:"source"` // mock or replay
	ReplayPath string `yaml:"replay_path"`
	// Realtime paces the bench with the profile cadence instead of
	// running as fast as possible.
	Realtime    bool   `yaml:"realtime"`
	MonitorAddr string `yaml:"monitor_addr"`

	Ground       int32 `yaml:"ground_pa"`
	PadSamples   int   `yaml:"pad_samples"`
	ClimbPa      int32 `yaml:"climb_pa"`
	ClimbSamples int   `yaml:"climb_samples"`
	DescentPa    int32 `yaml:"descent_pa"`
	Noise        int32 `yaml:"noise_pa"`
	Seed         int64 `yaml:"seed"`
	FailAt       int   `yaml:"fail_at"`
}

// Package-level singleton, set once by InitGlobal and read with Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// DefaultProfiles are the built-in flight modes.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		"rocket": {
			IntervalPa: 36, ThresholdIntervals: 1,
			FastPeriod: 500 * time.Millisecond, SlowPeriod: 3 * time.Second, FastLimit: 20,
			NibbleMax: 10,
		},
		"thrown": {
			IntervalPa: 6, ThresholdIntervals: 1,
			FastPeriod: 125 * time.Millisecond, SlowPeriod: 500 * time.Millisecond, FastLimit: 80,
			NibbleMax: 10,
		},
		"kite": {
			IntervalPa: 12, ThresholdIntervals: 2,
			FastPeriod: time.Second, SlowPeriod: 5 * time.Second, FastLimit: 60,
			NibbleMax: 7,
		},
		"electric": {
			IntervalPa: 18, ThresholdIntervals: 2,
			FastPeriod: 250 * time.Millisecond, SlowPeriod: 2 * time.Second, FastLimit: 120,
			NibbleMax: 8,
		},
	}
}

// Default returns a configuration for a rocket logger with a 24C32 EEPROM.
func Default() *Config {
	return &Config{
		Mode:         "rocket",
		Profiles:     DefaultProfiles(),
		SensorPolicy: "halt",
		Sensor: SensorConfig{
			Bus:         "i2c",
			I2CAddr:     0x76,
			PressureOSR: 5,
			TempOSR:     1,
			IIRFilter:   0,
		},
		Storage: StorageConfig{
			Kind:      "eeprom24",
			Path:      "flight.bin",
			Capacity:  4096,
			PageSize:  32,
			I2CAddr:   0x50,
			AddrBytes: 2,
			WriteTime: 5 * time.Millisecond,
		},
		Arm: ArmConfig{
			ButtonPin: "GPIO17",
			Debounce:  50 * time.Millisecond,
		},
		Indicator: IndicatorConfig{
			LEDPin:      "GPIO27",
			DisplayAddr: 0x3C,
		},
		Debug: DebugConfig{
			Sink:         "none",
			SerialPort:   "/dev/ttyS0",
			BaudRate:     9600,
			MQTTBroker:   "tcp://localhost:1883",
			MQTTClientID: "altitude-logger",
			MQTTTopic:    "altitude/delta",
		},
		Bench: BenchConfig{
			Source:       "mock",
			MonitorAddr:  ":8080",
			Ground:       101325,
			PadSamples:   16,
			ClimbPa:      60,
			ClimbSamples: 40,
			DescentPa:    10,
			Noise:        3,
			Seed:         1,
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Profiles named in the file replace built-ins field by field.
	def := DefaultProfiles()
	for name, p := range cfg.Profiles {
		if base, ok := def[name]; ok {
			cfg.Profiles[name] = merge(base, p)
		}
	}
	for name, p := range def {
		if _, ok := cfg.Profiles[name]; !ok {
			cfg.Profiles[name] = p
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func merge(base, over Profile) Profile {
	if over.IntervalPa != 0 {
		base.IntervalPa = over.IntervalPa
	}
	if over.ThresholdIntervals != 0 {
		base.ThresholdIntervals = over.ThresholdIntervals
	}
	if over.FastPeriod != 0 {
		base.FastPeriod = over.FastPeriod
	}
	if over.SlowPeriod != 0 {
		base.SlowPeriod = over.SlowPeriod
	}
	if over.FastLimit != 0 {
		base.FastLimit = over.FastLimit
	}
	if over.NibbleMax != 0 {
		base.NibbleMax = over.NibbleMax
	}
	return base
}

// Effective returns the selected profile with the flight overrides applied.
func (c *Config) Effective() (Profile, error) {
	p, ok := c.Profiles[c.Mode]
	if !ok {
		names := make([]string, 0, len(c.Profiles))
		for n := range c.Profiles {
			names = append(names, n)
		}
		sort.Strings(names)
		return Profile{}, fmt.Errorf("unknown mode %q (have %v)", c.Mode, names)
	}
	return merge(p, c.Flight), nil
}

// Cadence returns the scheduler cadence of the effective profile.
func (p Profile) Cadence() schedule.Cadence {
	return schedule.Cadence{Fast: p.FastPeriod, Slow: p.SlowPeriod, FastLimit: p.FastLimit}
}

// Range returns the nibble range of the effective profile.
func (p Profile) Range() recorder.Range {
	return recorder.RangeFromMax(p.NibbleMax)
}

func (p Profile) validate() error {
	if p.IntervalPa <= 0 {
		return fmt.Errorf("interval_pa must be positive, got %d", p.IntervalPa)
	}
	if p.ThresholdIntervals <= 0 {
		return fmt.Errorf("threshold_intervals must be positive, got %d", p.ThresholdIntervals)
	}
	if err := p.Cadence().Validate(); err != nil {
		return err
	}
	return p.Range().Validate()
}

// validate checks that the configuration can drive a session.
func (c *Config) validate() error {
	p, err := c.Effective()
	if err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return fmt.Errorf("mode %s: %w", c.Mode, err)
	}

	switch c.SensorPolicy {
	case "", "halt", "reuse":
	default:
		return fmt.Errorf("sensor_policy must be halt or reuse, got %q", c.SensorPolicy)
	}

	switch c.Sensor.Bus {
	case "", "i2c", "spi":
	default:
		return fmt.Errorf("sensor.bus must be i2c or spi, got %q", c.Sensor.Bus)
	}
	if c.Sensor.PressureOSR > 5 || c.Sensor.TempOSR > 5 {
		return fmt.Errorf("sensor oversampling must be 0-5")
	}
	if c.Sensor.IIRFilter > 4 {
		return fmt.Errorf("sensor.iir_filter must be 0-4, got %d", c.Sensor.IIRFilter)
	}

	switch c.Storage.Kind {
	case "eeprom24", "memory":
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for file storage")
		}
	default:
		return fmt.Errorf("storage.kind must be eeprom24, file or memory, got %q", c.Storage.Kind)
	}
	if c.Storage.Capacity <= 0 || c.Storage.PageSize <= 0 || c.Storage.Capacity%c.Storage.PageSize != 0 {
		return fmt.Errorf("storage capacity %d must be a positive multiple of page size %d",
			c.Storage.Capacity, c.Storage.PageSize)
	}

	switch c.Debug.Sink {
	case "", "none":
	case "serial":
		if c.Debug.SerialPort == "" || c.Debug.BaudRate <= 0 {
			return fmt.Errorf("debug.serial_port and debug.baud_rate are required for the serial sink")
		}
	case "mqtt":
		if c.Debug.MQTTBroker == "" || c.Debug.MQTTTopic == "" {
			return fmt.Errorf("debug.mqtt_broker and debug.mqtt_topic are required for the mqtt sink")
		}
	default:
		return fmt.Errorf("debug.sink must be none, serial or mqtt, got %q", c.Debug.Sink)
	}

	switch c.Bench.Source {
	case "", "mock":
	case "replay":
		if c.Bench.ReplayPath == "" {
			return fmt.Errorf("bench.replay_path is required for the replay source")
		}
	default:
		return fmt.Errorf("bench.source must be mock or replay, got %q", c.Bench.Source)
	}
	return nil
}

// InitGlobal loads the configuration once. Later calls return the result
// of the first.
func InitGlobal(path string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(path)
	})
	return err
}

// Get returns the global configuration, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

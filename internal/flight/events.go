// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package flight

import (
	"time"

	"github.com/relabs-tech/altitude_logger/internal/altitude"
)

// EventKind names what happened in the loop.
type EventKind string

const (
	EventArmed       EventKind = "armed"
	EventLaunch      EventKind = "launch"
	EventRecord      EventKind = "record"
	EventCadence     EventKind = "cadence"
	EventStorageFull EventKind = "storage_full"
	EventSensorFault EventKind = "sensor_fault"
	EventStopped     EventKind = "stopped"
)

// Event is a snapshot sent to observers.
type Event struct {
	Kind     EventKind         `json:"kind"`
	Time     time.Time         `json:"time"`
	Pressure altitude.Pressure `json:"pressure_pa"`
	Delta    int32             `json:"delta,omitempty"`
	Altitude int32             `json:"altitude_intervals"`
	Records  int               `json:"records"`
	Bytes    int               `json:"bytes"`
	Capacity int               `json:"capacity"`
	Period   time.Duration     `json:"period_ns"`
	Message  string            `json:"message,omitempty"`
}

// Observer receives events synchronously from the loop. Implementations
// must not block.
type Observer interface {
	OnEvent(e Event)
}

type nopObserver struct{}

func (nopObserver) OnEvent(Event) {}

// Observers fans events out.
type Observers []Observer

func (o Observers) OnEvent(e Event) {
	for _, obs := range o {
		obs.OnEvent(e)
	}
}

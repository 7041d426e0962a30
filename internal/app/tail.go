// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/altitude_logger/internal/config"
)

// deltaPrinter prints each signed debug byte with the running altitude.
type deltaPrinter struct {
	w          io.Writer
	intervalPa int32
	n          int
	alt        int32
}

func (p *deltaPrinter) feed(b byte) {
	d := int32(int8(b))
	p.alt += d
	p.n++
	fmt.Fprintf(p.w, "%5d  %+4d  alt=%5d intervals (%d Pa)\n", p.n, d, p.alt, p.alt*p.intervalPa)
}

// RunTail prints the live debug byte stream of a logger, read either from
// its UART or from the MQTT debug topic, until ctx is done.
func RunTail(ctx context.Context, cfg *config.Config, out io.Writer) error {
	prof, err := cfg.Effective()
	if err != nil {
		return fmt.Errorf("tail: %w", err)
	}
	p := &deltaPrinter{w: out, intervalPa: prof.IntervalPa}

	switch cfg.Debug.Sink {
	case "serial":
		return tailSerial(ctx, cfg.Debug, p)
	case "mqtt":
		return tailMQTT(ctx, cfg.Debug, p)
	default:
		return fmt.Errorf("tail: debug sink %q has no stream to follow", cfg.Debug.Sink)
	}
}

func tailSerial(ctx context.Context, dc config.DebugConfig, p *deltaPrinter) error {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              dc.SerialPort,
		BaudRate:              uint(dc.BaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	})
	if err != nil {
		return fmt.Errorf("tail: open %s: %w", dc.SerialPort, err)
	}
	log.Printf("tail: reading %s at %d baud", dc.SerialPort, dc.BaudRate)
	return followPort(ctx, port, p)
}

// followPort reads port until EOF or ctx is done. Cancelling ctx closes the
// port to unblock a pending Read; the port is closed on return either way.
func followPort(ctx context.Context, port io.ReadCloser, p *deltaPrinter) error {
	defer port.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			port.Close()
		case <-done:
		}
	}()
	return readDeltas(ctx, port, p)
}

// readDeltas feeds every byte from r until EOF or ctx is done.
func readDeltas(ctx context.Context, r io.Reader, p *deltaPrinter) error {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			p.feed(b)
		}
		if err != nil {
			if ctx.Err() != nil || err == io.EOF {
				return nil
			}
			return fmt.Errorf("tail: read: %w", err)
		}
	}
}

func tailMQTT(ctx context.Context, dc config.DebugConfig, p *deltaPrinter) error {
	opts := mqtt.NewClientOptions().
		AddBroker(dc.MQTTBroker).
		SetClientID(dc.MQTTClientID + "-tail")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("tail: mqtt connect %s: %w", dc.MQTTBroker, token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("tail: connected to MQTT broker at %s", dc.MQTTBroker)

	// paho calls handlers one at a time in order, so p needs no lock.
	token := client.Subscribe(dc.MQTTTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		for _, b := range msg.Payload() {
			p.feed(b)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("tail: subscribe %s: %w", dc.MQTTTopic, token.Error())
	}
	log.Printf("tail: subscribed to %s", dc.MQTTTopic)

	<-ctx.Done()
	return nil
}

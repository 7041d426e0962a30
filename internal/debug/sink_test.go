// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package debug

import (
	"bytes"
	"errors"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, "buf")
	for _, b := range []byte{0x01, 0xFE, 0x7F} {
		w.SendByte(b)
	}
	assert.Equal(t, []byte{0x01, 0xFE, 0x7F}, buf.Bytes())
}

type failWriter struct{ calls int }

func (f *failWriter) Write([]byte) (int, error) {
	f.calls++
	return 0, errors.New("tx overrun")
}

func TestWriter_ErrorsDoNotPropagate(t *testing.T) {
	fw := &failWriter{}
	w := NewWriter(fw, "uart")
	w.SendByte(1)
	w.SendByte(2)
	assert.Equal(t, 2, fw.calls)
}

type fakePublisher struct {
	topics   []string
	payloads [][]byte
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload.([]byte))
	return nil
}

func TestMQTT(t *testing.T) {
	pub := &fakePublisher{}
	s := NewMQTT(pub, "altimeter/debug")
	s.SendByte(0x05)
	s.SendByte(0xFB)

	assert.Equal(t, []string{"altimeter/debug", "altimeter/debug"}, pub.topics)
	assert.Equal(t, [][]byte{{0x05}, {0xFB}}, pub.payloads)
}

func TestNop(t *testing.T) {
	var s Sink = Nop{}
	s.SendByte(1)
}

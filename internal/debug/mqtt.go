// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package debug

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the subset of mqtt.Client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes every byte as a one-byte message at QoS 0. The returned
// token is never waited on.
type MQTT struct {
	pub   Publisher
	topic string
}

// NewMQTT wraps an already connected publisher.
func NewMQTT(pub Publisher, topic string) *MQTT {
	return &MQTT{pub: pub, topic: topic}
}

func (m *MQTT) SendByte(b byte) {
	m.pub.Publish(m.topic, 0, false, []byte{b})
}

// DialMQTT connects to broker and returns a sink plus a disconnect func.
func DialMQTT(broker, clientID, topic string) (*MQTT, func(), error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("debug: mqtt connect %s: %w", broker, token.Error())
	}
	log.Printf("debug: mqtt sink connected to %s, topic %s", broker, topic)

	return NewMQTT(client, topic), func() { client.Disconnect(250) }, nil
}

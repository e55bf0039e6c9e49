package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/strefethen/soundbar-hub-go/internal/config"
	"github.com/strefethen/soundbar-hub-go/internal/registry"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Publisher mirrors soundbar state to an MQTT broker. State topics are
// retained so late subscribers see the last known snapshot.
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
}

// NewPublisher connects to the broker. The connection retries in the
// background, so a broker outage at startup does not fail the hub.
func NewPublisher(cfg config.Config) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBrokerURL).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false)

	opts.OnConnect = func(mqtt.Client) {
		log.Printf("MQTT: connected to %s", cfg.MQTTBrokerURL)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("MQTT: connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("MQTT: broker %s not reachable yet, retrying in background", cfg.MQTTBrokerURL)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.MQTTTopicPrefix,
	}, nil
}

// SoundbarStateChanged implements registry.Notifier.
func (p *Publisher) SoundbarStateChanged(soundbarID string, state registry.StateView) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Printf("MQTT: marshal state for %s: %v", soundbarID, err)
		return
	}

	// Retained state topic for late subscribers, non-retained event topic
	// for change streams.
	p.publish(fmt.Sprintf("%s/state/%s", p.topicPrefix, soundbarID), true, payload)
	p.publish(fmt.Sprintf("%s/event/%s", p.topicPrefix, soundbarID), false, payload)
}

func (p *Publisher) publish(topic string, retained bool, payload []byte) {
	token := p.client.Publish(topic, 0, retained, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("MQTT: publish to %s timed out", topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("MQTT: publish to %s: %v", topic, err)
		}
	}()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

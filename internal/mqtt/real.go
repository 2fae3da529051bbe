package mqtt

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/sunrise-clock/internal/alarm"
)

// Options configure a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	// BufferSize is the number of messages kept while disconnected.
	BufferSize int
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed on reconnection.
type RealPublisher struct {
	client paho.Client
	topics Topics
	out    *outbox

	connectedOnce atomic.Bool
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	if o.ClientID == "" {
		o.ClientID = "sunrise-clock"
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 100
	}
	p := &RealPublisher{topics: NewTopics(o.TopicPrefix)}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(p.topics.System, will, 1, true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		}).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	p.out = newOutbox(o.BufferSize, p.send, p.client.IsConnectionOpen)

	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// onConnect replays buffered messages. On a reconnection it also announces
// that the clock is back.
func (p *RealPublisher) onConnect(paho.Client) {
	if p.out == nil {
		return
	}
	if p.connectedOnce.Swap(true) {
		log.Printf("mqtt: reconnected")
		if err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED", Retained: true}); err != nil {
			log.Printf("mqtt: publish reconnected: %v", err)
		}
	}
	if n := p.out.flush(); n > 0 {
		log.Printf("mqtt: replayed %d buffered messages", n)
	}
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}
	return nil
}

// Publish sends an alarm event to the MQTT broker.
func (p *RealPublisher) Publish(event alarm.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.out.publish(bufferedMsg{topic: p.topics.Events, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) so shutdown events are delivered
	return p.out.publish(bufferedMsg{
		topic:    p.topics.System,
		payload:  payload,
		qos:      1,
		retained: event.Retained,
	})
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	if n := p.out.pending(); n > 0 {
		log.Printf("mqtt: dropping %d buffered messages on close", n)
	}
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

// Package events carries protocol traffic over MQTT: submissions from field
// devices in, lifecycle events out.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
)

const (
	EventCommitted = "committed"
	EventRemoved   = "removed"
)

// Connect dials the broker and waits for the session.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}

// Event is published after every committed or removed protocol.
type Event struct {
	Type       string          `json:"type"`
	ProtocolID string          `json:"protocolId"`
	Created    bool            `json:"created,omitempty"`
	Anlage     string          `json:"anlage,omitempty"`
	Ergebnis   domain.Ergebnis `json:"ergebnis,omitempty"`
	At         time.Time       `json:"at"`
}

// Publisher emits Events on one topic.
type Publisher struct {
	client mqtt.Client
	topic  string
	qos    byte
	now    func() time.Time
}

// NewPublisher publishes on topic. now stamps removal events and should be
// the clock the protocol service commits with.
func NewPublisher(client mqtt.Client, topic string, now func() time.Time) *Publisher {
	return &Publisher{client: client, topic: topic, qos: 1, now: now}
}

func (p *Publisher) Committed(ctx context.Context, pr domain.Protocol, created bool) error {
	return p.publish(ctx, Event{
		Type:       EventCommitted,
		ProtocolID: pr.ID(),
		Created:    created,
		Anlage:     pr.Anlage(),
		Ergebnis:   pr.Ergebnis(),
		At:         pr.UpdatedAt(),
	})
}

func (p *Publisher) Removed(ctx context.Context, id string) error {
	return p.publish(ctx, Event{Type: EventRemoved, ProtocolID: id, At: p.now()})
}

func (p *Publisher) publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return wait(ctx, p.client.Publish(p.topic, p.qos, false, payload))
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submission is a form posted by a field device. Without ProtocolID the
// patch creates a new protocol, otherwise it edits that one.
type Submission struct {
	ProtocolID string       `json:"protocolId,omitempty"`
	Patch      domain.Patch `json:"patch"`
}

func DecodeSubmission(payload []byte) (Submission, error) {
	var s Submission
	if err := json.Unmarshal(payload, &s); err != nil {
		return Submission{}, fmt.Errorf("decode submission: %w", err)
	}
	return s, nil
}

// Subscribe routes decoded submissions to handle. Undecodable payloads are
// passed to onError and otherwise dropped.
func Subscribe(client mqtt.Client, topic string, handle func(Submission) error, onError func(topic string, err error)) error {
	callback := func(_ mqtt.Client, msg mqtt.Message) {
		s, err := DecodeSubmission(msg.Payload())
		if err == nil {
			err = handle(s)
		}
		if err != nil {
			onError(msg.Topic(), err)
		}
	}
	if token := client.Subscribe(topic, 1, callback); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

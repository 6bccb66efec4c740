package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrDisabled is returned by NewPublisher when no driver is configured.
var ErrDisabled = errors.New("pubsub disabled")

// Event represents a message published to the event bus.
type Event struct {
	Type      string          `json:"type"`
	WorkerID  string          `json:"worker_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event stamped with the given time.
func NewEvent(eventType, workerID string, payload interface{}, at time.Time) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		WorkerID:  workerID,
		Payload:   data,
		Timestamp: at,
	}, nil
}

// UnmarshalPayload unmarshals the event payload into v.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher publishes events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
	Close() error
}

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Entity names carried by change events.
const (
	EntityPrizes  = "prizes"
	EntityOutputs = "outputs"
)

// Operation is the kind of row change.
type Operation string

// Supported operations.
const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Event is one committed row change.
type Event struct {
	Entity    string          `json:"entityType"`
	Operation Operation       `json:"operation"`
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	At        time.Time       `json:"at"`
}

// NewEvent marshals payload into an event stamped with the current time.
func NewEvent(entity string, op Operation, id string, payload any) (Event, error) {
	ev := Event{Entity: entity, Operation: op, ID: id, At: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("realtime: marshal %s payload: %w", entity, err)
		}
		ev.Payload = raw
	}
	return ev, nil
}

// Publisher emits change events after a write commits.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber delivers change events in publish order until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Feed is a transport carrying events between writers and readers.
type Feed interface {
	Publisher
	Subscriber
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

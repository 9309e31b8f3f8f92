package events

import "time"

// Event is the contract every festival event must satisfy before it
// is handed to the NATS publisher.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SCORE_SUBMITTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the concrete carrier used by the constructors in this
// package; subscribers also decode incoming subjects back into it.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

package events

import (
	"context"
	"time"
)

// Event types emitted by the intake pipeline
const (
	TypeHandoffStarted   = "HANDOFF_STARTED"
	TypeHandoffCancelled = "HANDOFF_CANCELLED"
	TypeSubsidySelected  = "SUBSIDY_SELECTED"
)

// Event defines the contract for all domain events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "HANDOFF_STARTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
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

func HandoffStarted(userID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       TypeHandoffStarted,
		Data:       map[string]interface{}{"user_id": userID},
		OccurredAt: at,
	}
}

func HandoffCancelled(userID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       TypeHandoffCancelled,
		Data:       map[string]interface{}{"user_id": userID},
		OccurredAt: at,
	}
}

func SubsidySelected(userID, candidateID, candidateName string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeSubsidySelected,
		Data: map[string]interface{}{
			"user_id":        userID,
			"candidate_id":   candidateID,
			"candidate_name": candidateName,
		},
		OccurredAt: at,
	}
}

// Publisher hands events to the event bus. Implementations must not block on slow consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

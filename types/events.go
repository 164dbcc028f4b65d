package types

import (
	"context"
	"encoding/json"
	"time"

	"github.com/TripTally/trip-tally-backend/errors"
)

type EventType string

const (
	CategoryExpense   = "EXPENSE"
	CategoryMember    = "MEMBER"
	CategoryChecklist = "CHECKLIST"
)

const (
	EventTypeExpenseCreated EventType = CategoryExpense + "_CREATED"
	EventTypeExpenseUpdated EventType = CategoryExpense + "_UPDATED"
	EventTypeExpenseDeleted EventType = CategoryExpense + "_DELETED"

	EventTypeMemberAdded       EventType = CategoryMember + "_ADDED"
	EventTypeMemberDeactivated EventType = CategoryMember + "_DEACTIVATED"

	EventTypeChecklistItemCreated EventType = CategoryChecklist + "_ITEM_CREATED"
	EventTypeChecklistItemUpdated EventType = CategoryChecklist + "_ITEM_UPDATED"
	EventTypeChecklistItemDeleted EventType = CategoryChecklist + "_ITEM_DELETED"
)

// BaseEvent carries the metadata common to all published events.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TripID    string    `json:"tripId"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// EventMetadata identifies the origin of an event for tracing.
type EventMetadata struct {
	CorrelationID string `json:"correlationId,omitempty"`
	Source        string `json:"source"`
}

type Event struct {
	BaseEvent
	Metadata EventMetadata   `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

// Validate checks the event carries the required metadata.
func (e Event) Validate() error {
	if e.ID == "" {
		return errors.ValidationFailed("invalid event", "event ID is required")
	}
	if e.Type == "" {
		return errors.ValidationFailed("invalid event", "event type is required")
	}
	if e.TripID == "" {
		return errors.ValidationFailed("invalid event", "trip ID is required")
	}
	if e.Timestamp.IsZero() {
		return errors.ValidationFailed("invalid event", "timestamp is required")
	}
	return nil
}

// EventPublisher fans ledger events out to interested subscribers.
// Delivery to end clients is handled outside this service.
type EventPublisher interface {
	Publish(ctx context.Context, tripID string, event Event) error
	PublishBatch(ctx context.Context, tripID string, events []Event) error
	Subscribe(ctx context.Context, tripID string, userID string, filters ...EventType) (<-chan Event, error)
	Unsubscribe(ctx context.Context, tripID string, userID string) error
}

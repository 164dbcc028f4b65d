package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/TripTally/trip-tally-backend/types"
	"github.com/google/uuid"
)

const sourceName = "trip-tally-backend"

// NewEvent assembles a ready-to-publish event with generated ID and
// timestamp. Payload must be JSON-marshalable.
func NewEvent(eventType types.EventType, tripID, userID string, payload interface{}) (types.Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return types.Event{}, err
	}
	return types.Event{
		BaseEvent: types.BaseEvent{
			ID:        uuid.NewString(),
			Type:      eventType,
			TripID:    tripID,
			UserID:    userID,
			Timestamp: time.Now(),
			Version:   1,
		},
		Metadata: types.EventMetadata{Source: sourceName},
		Payload:  data,
	}, nil
}

// PublishWithPayload is a convenience wrapper for the common
// build-then-publish sequence in the models layer.
func PublishWithPayload(ctx context.Context, pub types.EventPublisher, eventType types.EventType, tripID, userID string, payload interface{}) error {
	event, err := NewEvent(eventType, tripID, userID, payload)
	if err != nil {
		return err
	}
	return pub.Publish(ctx, tripID, event)
}

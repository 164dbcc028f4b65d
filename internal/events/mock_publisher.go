package events

import (
	"context"
	"sync"

	"github.com/TripTally/trip-tally-backend/types"
)

// MockPublisher records published events for assertions in tests.
type MockPublisher struct {
	mu        sync.Mutex
	published []PublishedEvent
	PublishFn func(ctx context.Context, tripID string, event types.Event) error
}

type PublishedEvent struct {
	TripID string
	Event  types.Event
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, tripID string, event types.Event) error {
	if m.PublishFn != nil {
		if err := m.PublishFn(ctx, tripID, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, PublishedEvent{TripID: tripID, Event: event})
	return nil
}

func (m *MockPublisher) PublishBatch(ctx context.Context, tripID string, events []types.Event) error {
	for _, event := range events {
		if err := m.Publish(ctx, tripID, event); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockPublisher) Subscribe(ctx context.Context, tripID string, userID string, filters ...types.EventType) (<-chan types.Event, error) {
	ch := make(chan types.Event)
	close(ch)
	return ch, nil
}

func (m *MockPublisher) Unsubscribe(ctx context.Context, tripID string, userID string) error {
	return nil
}

// Published returns a copy of everything published so far.
func (m *MockPublisher) Published() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedEvent, len(m.published))
	copy(out, m.published)
	return out
}

// EventTypes returns the types of all published events in order.
func (m *MockPublisher) EventTypes() []types.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.EventType, 0, len(m.published))
	for _, p := range m.published {
		out = append(out, p.Event.Type)
	}
	return out
}

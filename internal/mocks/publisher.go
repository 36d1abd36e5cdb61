package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/taskman-api/internal/events"
)

// MockPublisher implements events.Publisher for testing. Published events
// are recorded under a mutex because the coordinator dispatches publishes
// from detached goroutines; tests read them through Published().
type MockPublisher struct {
	// PublishFn overrides the default record-only behavior when set.
	PublishFn func(ctx context.Context, event events.TaskEvent) error

	mu     sync.Mutex
	events []events.TaskEvent
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Ensure MockPublisher implements events.Publisher interface
var _ events.Publisher = (*MockPublisher)(nil)

// Publish implements the Publisher interface
func (m *MockPublisher) Publish(ctx context.Context, event events.TaskEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()

	if m.PublishFn != nil {
		return m.PublishFn(ctx, event)
	}
	return nil
}

// Published returns a copy of every event observed so far.
func (m *MockPublisher) Published() []events.TaskEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]events.TaskEvent, len(m.events))
	copy(copied, m.events)
	return copied
}

// PublishCount returns the number of events observed so far.
func (m *MockPublisher) PublishCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

package events

import (
	"context"
	"time"
)

// Event type values carried in TaskEvent.Event.
const (
	EventTaskCreated = "task_created"
	EventTaskUpdated = "task_updated"
	EventTaskDeleted = "task_deleted"
)

// TaskEvent is the change notification broadcast after a successful task
// mutation. UpdatedFields is only set for task_updated events and carries
// the changed field names with their new values.
type TaskEvent struct {
	Event         string                 `json:"event"`
	TaskID        string                 `json:"taskId"`
	UserID        string                 `json:"userId,omitempty"`
	UpdatedFields map[string]interface{} `json:"updatedFields,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// Subject returns the human-readable subject line for the event,
// used by transports that support one (e.g., SNS).
func (e TaskEvent) Subject() string {
	switch e.Event {
	case EventTaskCreated:
		return "Task Created"
	case EventTaskUpdated:
		return "Task Updated"
	case EventTaskDeleted:
		return "Task Deleted"
	default:
		return "Task Event"
	}
}

// Publisher broadcasts task change events to interested subscribers.
// Publish failures are logged by the caller and never propagated as
// operation failures; implementations should not retry internally.
type Publisher interface {
	Publish(ctx context.Context, event TaskEvent) error
}

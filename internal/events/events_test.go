package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/phrazzld/taskman-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskEventSubject(t *testing.T) {
	tests := []struct {
		event   string
		subject string
	}{
		{events.EventTaskCreated, "Task Created"},
		{events.EventTaskUpdated, "Task Updated"},
		{events.EventTaskDeleted, "Task Deleted"},
		{"task_archived", "Task Event"},
	}

	for _, tc := range tests {
		t.Run(tc.event, func(t *testing.T) {
			e := events.TaskEvent{Event: tc.event}
			assert.Equal(t, tc.subject, e.Subject())
		})
	}
}

func TestTaskEventJSONShape(t *testing.T) {
	e := events.TaskEvent{
		Event:     events.EventTaskUpdated,
		TaskID:    "7cbd8b3f-7e3a-43b8-91f0-96b41b7f0a93",
		UserID:    "u1",
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedFields: map[string]interface{}{
			"status": "Completed",
		},
	}

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "task_updated", decoded["event"])
	assert.Equal(t, "7cbd8b3f-7e3a-43b8-91f0-96b41b7f0a93", decoded["taskId"])
	assert.Equal(t, "u1", decoded["userId"])
	assert.Contains(t, decoded, "updatedFields")

	// Empty optional fields stay out of the payload entirely.
	raw, err = json.Marshal(events.TaskEvent{Event: events.EventTaskDeleted, TaskID: "t"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "userId")
	assert.NotContains(t, string(raw), "updatedFields")
}

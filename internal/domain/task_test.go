package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Run("valid task", func(t *testing.T) {
		due := time.Now().UTC().Add(48 * time.Hour)
		task, err := NewTask("Write spec", "first draft", "u1", &due)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, "Write spec", task.Title)
		assert.Equal(t, "first draft", task.Description)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, "u1", task.UserID)
		assert.NotNil(t, task.Attachments)
		assert.Empty(t, task.Attachments)
		assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	})

	t.Run("unique IDs across calls", func(t *testing.T) {
		first, err := NewTask("a", "", "u1", nil)
		require.NoError(t, err)
		second, err := NewTask("a", "", "u1", nil)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		_, err := NewTask("", "", "u1", nil)
		assert.ErrorIs(t, err, ErrEmptyTaskTitle)
	})

	t.Run("empty user ID rejected", func(t *testing.T) {
		_, err := NewTask("title", "", "", nil)
		assert.ErrorIs(t, err, ErrEmptyTaskUserID)
	})
}

func TestTaskValidate(t *testing.T) {
	valid := func() *Task {
		now := time.Now().UTC()
		return &Task{
			ID:        uuid.New(),
			Title:     "t",
			Status:    TaskStatusPending,
			UserID:    "u1",
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("nil ID", func(t *testing.T) {
		task := valid()
		task.ID = uuid.Nil
		assert.ErrorIs(t, task.Validate(), ErrEmptyTaskID)
	})

	t.Run("unknown status", func(t *testing.T) {
		task := valid()
		task.Status = "Archived"
		assert.ErrorIs(t, task.Validate(), ErrInvalidTaskStatus)
	})

	t.Run("updated before created", func(t *testing.T) {
		task := valid()
		task.UpdatedAt = task.CreatedAt.Add(-time.Second)
		assert.ErrorIs(t, task.Validate(), ErrInvalidTimestamps)
	})
}

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    TaskStatus
		wantErr bool
	}{
		{"Pending", TaskStatusPending, false},
		{"InProgress", TaskStatusInProgress, false},
		{"Completed", TaskStatusCompleted, false},
		{"pending", "", true},
		{"", "", true},
		{"Done", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTaskStatus(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTaskStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaskPatch(t *testing.T) {
	t.Run("applies only set fields", func(t *testing.T) {
		task, err := NewTask("original", "desc", "u1", nil)
		require.NoError(t, err)

		status := TaskStatusCompleted
		patch := TaskPatch{
			Status:    &status,
			UpdatedAt: task.UpdatedAt.Add(time.Second),
		}
		patch.ApplyTo(task)

		assert.Equal(t, "original", task.Title)
		assert.Equal(t, "desc", task.Description)
		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.True(t, task.UpdatedAt.After(task.CreatedAt))
	})

	t.Run("empty patch reports empty", func(t *testing.T) {
		patch := TaskPatch{UpdatedAt: time.Now().UTC()}
		assert.True(t, patch.IsEmpty())
	})

	t.Run("fields map uses API names", func(t *testing.T) {
		title := "new title"
		status := TaskStatusInProgress
		patch := TaskPatch{Title: &title, Status: &status}

		fields := patch.Fields()
		assert.Equal(t, map[string]interface{}{
			"title":  "new title",
			"status": "InProgress",
		}, fields)
	})
}

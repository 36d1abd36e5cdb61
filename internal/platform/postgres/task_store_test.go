package postgres

import (
	"testing"
	"time"

	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateSet(t *testing.T) {
	updatedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("single field plus updated_at", func(t *testing.T) {
		status := domain.TaskStatusCompleted
		patch := domain.TaskPatch{Status: &status, UpdatedAt: updatedAt}

		clause, args, err := buildUpdateSet(patch)
		require.NoError(t, err)

		assert.Equal(t, "status = $1, updated_at = $2", clause)
		require.Len(t, args, 2)
		assert.Equal(t, "Completed", args[0])
		assert.Equal(t, updatedAt, args[1])
	})

	t.Run("all fields in declaration order", func(t *testing.T) {
		title := "new title"
		description := "new description"
		status := domain.TaskStatusInProgress
		attachments := []string{"https://bucket.s3.eu-north-1.amazonaws.com/a.pdf"}
		due := updatedAt.Add(72 * time.Hour)
		patch := domain.TaskPatch{
			Title:       &title,
			Description: &description,
			Status:      &status,
			Attachments: &attachments,
			DueDate:     &due,
			UpdatedAt:   updatedAt,
		}

		clause, args, err := buildUpdateSet(patch)
		require.NoError(t, err)

		assert.Equal(t,
			"title = $1, description = $2, status = $3, attachments = $4, due_date = $5, updated_at = $6",
			clause)
		require.Len(t, args, 6)
		assert.JSONEq(t, `["https://bucket.s3.eu-north-1.amazonaws.com/a.pdf"]`, string(args[3].([]byte)))
	})

	t.Run("empty patch still advances updated_at", func(t *testing.T) {
		clause, args, err := buildUpdateSet(domain.TaskPatch{UpdatedAt: updatedAt})
		require.NoError(t, err)

		assert.Equal(t, "updated_at = $1", clause)
		assert.Equal(t, []any{updatedAt}, args)
	})
}

func TestNullableString(t *testing.T) {
	assert.False(t, nullableString("").Valid)

	ns := nullableString("hello")
	assert.True(t, ns.Valid)
	assert.Equal(t, "hello", ns.String)
}

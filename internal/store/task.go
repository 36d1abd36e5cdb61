package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
)

// TaskStore defines the interface for task persistence. Each method is a
// single atomic operation from the coordinator's point of view; no multi-row
// transactions are required across calls.
type TaskStore interface {
	// Insert saves a new task to the store.
	// The task must be valid according to domain validation rules.
	Insert(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// UpdateFields applies a partial update to an existing task. Only the
	// fields the patch sets are modified, plus the patch's UpdatedAt; the
	// caller never resends the whole entity.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateFields(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves every task in the store. Returns an empty slice,
	// not an error, when the store holds no tasks.
	List(ctx context.Context) ([]*domain.Task, error)
}

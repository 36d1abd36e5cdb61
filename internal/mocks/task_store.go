package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. The default behavior
// is an in-memory map keyed by task ID; individual methods are overridable
// through the Fn fields. Call counters track every invocation, including
// overridden ones.
type MockTaskStore struct {
	// Function fields for customizable behavior
	InsertFn       func(ctx context.Context, task *domain.Task) error
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateFieldsFn func(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) error
	DeleteFn       func(ctx context.Context, id uuid.UUID) error
	ListFn         func(ctx context.Context) ([]*domain.Task, error)

	// Call counters
	InsertCalls       int
	GetByIDCalls      int
	UpdateFieldsCalls int
	DeleteCalls       int
	ListCalls         int

	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

// NewMockTaskStore creates a new mock store with an empty in-memory table.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		tasks: make(map[uuid.UUID]*domain.Task),
	}
}

// Ensure MockTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*MockTaskStore)(nil)

// Seed places a task directly into the in-memory table without counting a call.
func (m *MockTaskStore) Seed(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *task
	m.tasks[task.ID] = &copied
}

// Stored returns the stored task for the given ID, or nil.
func (m *MockTaskStore) Stored(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil
	}
	copied := *task
	return &copied
}

// Len returns the number of stored tasks.
func (m *MockTaskStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// WriteCalls returns the total number of mutating calls observed.
func (m *MockTaskStore) WriteCalls() int {
	return m.InsertCalls + m.UpdateFieldsCalls + m.DeleteCalls
}

// Insert implements the TaskStore interface
func (m *MockTaskStore) Insert(ctx context.Context, task *domain.Task) error {
	m.InsertCalls++
	if m.InsertFn != nil {
		return m.InsertFn(ctx, task)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

// GetByID implements the TaskStore interface
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	m.GetByIDCalls++
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, exists := m.tasks[id]
	if !exists {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

// UpdateFields implements the TaskStore interface
func (m *MockTaskStore) UpdateFields(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) error {
	m.UpdateFieldsCalls++
	if m.UpdateFieldsFn != nil {
		return m.UpdateFieldsFn(ctx, id, patch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, exists := m.tasks[id]
	if !exists {
		return store.ErrTaskNotFound
	}
	patch.ApplyTo(task)
	return nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.DeleteCalls++
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[id]; !exists {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// List implements the TaskStore interface
func (m *MockTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	m.ListCalls++
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := make([]*domain.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		copied := *task
		tasks = append(tasks, &copied)
	}
	return tasks, nil
}

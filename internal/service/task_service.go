package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/events"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// uploadConcurrency bounds how many attachment files are uploaded in
// parallel before persistence begins.
const uploadConcurrency = 4

// defaultPublishTimeout bounds the detached notification publish.
const defaultPublishTimeout = 10 * time.Second

// AttachmentStore defines the attachment storage interface for the
// coordinator. Each call returns a distinct durable locator.
type AttachmentStore interface {
	Store(ctx context.Context, body io.Reader, fileName, contentType string) (string, error)
}

// AttachmentUpload is a raw file received with a create or update request.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// CreateTaskInput carries the fields for a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	UserID      string
	DueDate     *time.Time
	Attachments []AttachmentUpload
}

// UpdateTaskInput carries a partial update. Only non-nil fields change;
// NewFiles are uploaded and their locators appended to the attachments list.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Attachments *[]string
	DueDate     *time.Time
	NewFiles    []AttachmentUpload
}

// isEmpty reports whether the update names no fields and carries no files.
func (in UpdateTaskInput) isEmpty() bool {
	return in.Title == nil &&
		in.Description == nil &&
		in.Status == nil &&
		in.Attachments == nil &&
		in.DueDate == nil &&
		len(in.NewFiles) == 0
}

// TaskService coordinates task mutations across the fast-lookup store, the
// relational store, the attachment store and the notification publisher.
type TaskService interface {
	// Create stores the attachments, persists a new task in both stores and
	// publishes a task_created event. Returns the created task.
	Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error)

	// Get retrieves a task by ID from the fast-lookup store.
	// Returns store.ErrTaskNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List retrieves all tasks from the relational store, the canonical
	// source for bulk queries. Returns an empty slice when no tasks exist.
	List(ctx context.Context) ([]*domain.Task, error)

	// Update applies a partial update to both stores and publishes a
	// task_updated event. Returns the task as it stands after the update.
	// Returns store.ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, id uuid.UUID, input UpdateTaskInput) (*domain.Task, error)

	// Delete removes a task from both stores and publishes a task_deleted
	// event attributed to the calling user.
	// Returns store.ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID, callerUserID string) error
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	fastStore       store.TaskStore
	relationalStore store.TaskStore
	attachments     AttachmentStore
	publisher       events.Publisher
	logger          *slog.Logger
	publishTimeout  time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	fastStore store.TaskStore,
	relationalStore store.TaskStore,
	attachments AttachmentStore,
	publisher events.Publisher,
	logger *slog.Logger,
) (TaskService, error) {
	if fastStore == nil {
		return nil, domain.NewValidationError("fastStore", "cannot be nil", domain.ErrValidation)
	}
	if relationalStore == nil {
		return nil, domain.NewValidationError("relationalStore", "cannot be nil", domain.ErrValidation)
	}
	if attachments == nil {
		return nil, domain.NewValidationError("attachments", "cannot be nil", domain.ErrValidation)
	}
	if publisher == nil {
		return nil, domain.NewValidationError("publisher", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		fastStore:       fastStore,
		relationalStore: relationalStore,
		attachments:     attachments,
		publisher:       publisher,
		logger:          logger.With(slog.String("component", "task_service")),
		publishTimeout:  defaultPublishTimeout,
		now:             func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create implements TaskService.Create
func (s *taskServiceImpl) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if input.Title == "" {
		return nil, domain.NewValidationError("title", "is required", domain.ErrValidation)
	}
	if input.UserID == "" {
		return nil, domain.NewValidationError("userId", "is required", domain.ErrValidation)
	}

	// Attachment upload precedes every persistence write: an upload failure
	// must leave both stores untouched.
	locators, err := s.uploadAll(ctx, input.Attachments)
	if err != nil {
		log.Error("attachment upload failed, aborting create",
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create", "failed to store attachments",
			errors.Join(ErrUpstreamWrite, err))
	}

	task, err := domain.NewTask(input.Title, input.Description, input.UserID, input.DueDate)
	if err != nil {
		return nil, err
	}
	task.Attachments = locators

	// Fast-lookup write first: if it fails, no relational row may exist.
	if err := s.fastStore.Insert(ctx, task); err != nil {
		log.Error("fast-lookup insert failed, aborting create",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create", "failed to write fast-lookup store",
			errors.Join(ErrUpstreamWrite, err))
	}

	// Second write. A failure here leaves the fast-lookup store ahead of the
	// relational store; the operation still succeeds and the gap is logged
	// for out-of-band reconciliation.
	if err := s.relationalStore.Insert(ctx, task); err != nil {
		log.Error("relational insert failed after fast-lookup write; stores diverged",
			slog.String("task_id", task.ID.String()),
			slog.String("reconcile", "missing_relational_row"),
			slog.String("error", err.Error()))
	}

	s.publishAsync(ctx, events.TaskEvent{
		Event:     events.EventTaskCreated,
		TaskID:    task.ID.String(),
		UserID:    task.UserID,
		Timestamp: task.CreatedAt,
	})

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.Int("attachment_count", len(task.Attachments)))
	return task, nil
}

// Get implements TaskService.Get
func (s *taskServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.fastStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, NewTaskServiceError("get", "failed to read fast-lookup store", err)
	}
	return task, nil
}

// List implements TaskService.List
func (s *taskServiceImpl) List(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.relationalStore.List(ctx)
	if err != nil {
		return nil, NewTaskServiceError("list", "failed to read relational store", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

// Update implements TaskService.Update
func (s *taskServiceImpl) Update(ctx context.Context, id uuid.UUID, input UpdateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if input.isEmpty() {
		return nil, domain.NewValidationError("update", "names no fields to change",
			errors.Join(domain.ErrValidation, ErrNoFieldsToUpdate))
	}
	if input.Title != nil && *input.Title == "" {
		return nil, domain.NewValidationError("title", "cannot be empty", domain.ErrValidation)
	}

	current, err := s.fastStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, NewTaskServiceError("update", "failed to read fast-lookup store", err)
	}

	patch := domain.TaskPatch{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		DueDate:     input.DueDate,
		Attachments: input.Attachments,
	}

	if len(input.NewFiles) > 0 {
		locators, err := s.uploadAll(ctx, input.NewFiles)
		if err != nil {
			log.Error("attachment upload failed, aborting update",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
			return nil, NewTaskServiceError("update", "failed to store attachments",
				errors.Join(ErrUpstreamWrite, err))
		}

		// New locators append to whichever list the update starts from: the
		// replacement list when one was provided, the current list otherwise.
		base := current.Attachments
		if input.Attachments != nil {
			base = *input.Attachments
		}
		merged := append(append([]string{}, base...), locators...)
		patch.Attachments = &merged
	}

	// UpdatedAt must advance even when the wall clock has not ticked past
	// the previous write.
	updatedAt := s.now()
	if !updatedAt.After(current.UpdatedAt) {
		updatedAt = current.UpdatedAt.Add(time.Millisecond)
	}
	patch.UpdatedAt = updatedAt

	// Fast-lookup write first, so Get never trails a committed update.
	if err := s.fastStore.UpdateFields(ctx, id, patch); err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, NewTaskServiceError("update", "failed to write fast-lookup store",
			errors.Join(ErrUpstreamWrite, err))
	}

	// Second write; failure is logged only, the fast path has committed.
	if err := s.relationalStore.UpdateFields(ctx, id, patch); err != nil {
		log.Error("relational update failed after fast-lookup write; stores diverged",
			slog.String("task_id", id.String()),
			slog.String("reconcile", "stale_relational_row"),
			slog.String("error", err.Error()))
	}

	s.publishAsync(ctx, events.TaskEvent{
		Event:         events.EventTaskUpdated,
		TaskID:        id.String(),
		UserID:        current.UserID,
		UpdatedFields: patch.Fields(),
		Timestamp:     patch.UpdatedAt,
	})

	updated := *current
	patch.ApplyTo(&updated)

	log.Info("task updated",
		slog.String("task_id", id.String()),
		slog.Int("changed_fields", len(patch.Fields())))
	return &updated, nil
}

// Delete implements TaskService.Delete
func (s *taskServiceImpl) Delete(ctx context.Context, id uuid.UUID, callerUserID string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Existence check against the authoritative lookup path. A repeat delete
	// reports not-found, never a crash.
	current, err := s.fastStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrTaskNotFound
		}
		return NewTaskServiceError("delete", "failed to read fast-lookup store", err)
	}

	if err := s.fastStore.Delete(ctx, id); err != nil {
		if store.IsNotFoundError(err) {
			// Lost a race with a concurrent delete.
			return store.ErrTaskNotFound
		}
		return NewTaskServiceError("delete", "failed to delete from fast-lookup store",
			errors.Join(ErrUpstreamWrite, err))
	}

	// Second write; a failure leaves a dangling relational row, surfaced
	// through logging only.
	if err := s.relationalStore.Delete(ctx, id); err != nil {
		log.Error("relational delete failed after fast-lookup delete; stores diverged",
			slog.String("task_id", id.String()),
			slog.String("reconcile", "dangling_relational_row"),
			slog.String("error", err.Error()))
	}

	userID := callerUserID
	if userID == "" {
		userID = current.UserID
	}
	if userID == "" {
		userID = "unknown"
	}

	s.publishAsync(ctx, events.TaskEvent{
		Event:     events.EventTaskDeleted,
		TaskID:    id.String(),
		UserID:    userID,
		Timestamp: s.now(),
	})

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// uploadAll stores every attachment file with bounded concurrency and
// returns their locators in input order. Any single failure fails the batch.
func (s *taskServiceImpl) uploadAll(ctx context.Context, uploads []AttachmentUpload) ([]string, error) {
	locators := make([]string, len(uploads))
	if len(uploads) == 0 {
		return []string{}, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for i, upload := range uploads {
		g.Go(func() error {
			locator, err := s.attachments.Store(ctx, upload.Body, upload.FileName, upload.ContentType)
			if err != nil {
				return err
			}
			locators[i] = locator
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return locators, nil
}

// publishAsync dispatches the event on a detached goroutine so publisher
// latency or failure never extends or breaks the caller-visible operation.
// Failures are logged, never surfaced, never retried.
func (s *taskServiceImpl) publishAsync(ctx context.Context, event events.TaskEvent) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// The parent request context may be cancelled the moment the handler
	// returns; the publish gets its own deadline instead.
	detached := context.WithoutCancel(ctx)

	go func() {
		publishCtx, cancel := context.WithTimeout(detached, s.publishTimeout)
		defer cancel()

		if err := s.publisher.Publish(publishCtx, event); err != nil {
			log.Error("failed to publish task event",
				slog.String("event", event.Event),
				slog.String("task_id", event.TaskID),
				slog.String("error", err.Error()))
		}
	}()
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/store"
)

// PostgreSQL error codes
const uniqueViolationCode = "23505"

const storeName = "postgres"

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore
// interface. It accepts a database connection or transaction that should be
// initialized and managed by the caller.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	return &PostgresTaskStore{db: db}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// isUniqueViolation checks if the given error is a PostgreSQL unique
// constraint violation, such as inserting a duplicate task ID.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// Insert implements store.TaskStore.Insert
// It saves a new task row, serializing the attachments list as JSONB.
func (s *PostgresTaskStore) Insert(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return store.NewStoreError(storeName, "insert", "invalid task", err)
	}

	attachments, err := json.Marshal(task.Attachments)
	if err != nil {
		return store.NewStoreError(storeName, "insert", "failed to encode attachments", err)
	}

	query := `
		INSERT INTO tasks (task_id, title, description, status, user_id, attachments, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		nullableString(task.Description),
		string(task.Status),
		task.UserID,
		attachments,
		task.DueDate,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.NewStoreError(storeName, "insert", "task already exists", store.ErrDuplicate)
		}
		log.Error("failed to insert task",
			"task_id", task.ID,
			"error", err)
		return store.NewStoreError(storeName, "insert", "failed to insert task", err)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT task_id, title, description, status, user_id, attachments, due_date, created_at, updated_at
		FROM tasks
		WHERE task_id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError(storeName, "get", "failed to query task", err)
	}

	return task, nil
}

// UpdateFields implements store.TaskStore.UpdateFields
// It builds a SET clause from the patch's set fields plus updated_at, so
// absent fields keep their prior values.
// Returns store.ErrTaskNotFound if no row matches the task ID.
func (s *PostgresTaskStore) UpdateFields(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) error {
	log := logger.FromContext(ctx)

	setClause, args, err := buildUpdateSet(patch)
	if err != nil {
		return store.NewStoreError(storeName, "update_fields", "failed to build update", err)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE task_id = $%d", setClause, len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task",
			"task_id", id,
			"error", err)
		return store.NewStoreError(storeName, "update_fields", "failed to update task", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError(storeName, "update_fields", "failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// Delete implements store.TaskStore.Delete
// Returns store.ErrTaskNotFound if no row matches the task ID.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE task_id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			"task_id", id,
			"error", err)
		return store.NewStoreError(storeName, "delete", "failed to delete task", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError(storeName, "delete", "failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// List implements store.TaskStore.List
// It performs a full-table scan ordered by creation time. An empty table
// yields an empty slice, not an error.
func (s *PostgresTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	query := `
		SELECT task_id, title, description, status, user_id, attachments, due_date, created_at, updated_at
		FROM tasks
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, store.NewStoreError(storeName, "list", "failed to query tasks", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError(storeName, "list", "failed to scan task row", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(storeName, "list", "error iterating task rows", err)
	}

	return tasks, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row in the column order used by this package's queries.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		status      string
		description sql.NullString
		attachments []byte
		dueDate     sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&status,
		&task.UserID,
		&attachments,
		&dueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Description = description.String
	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}
	if err := json.Unmarshal(attachments, &task.Attachments); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}
	if task.Attachments == nil {
		task.Attachments = []string{}
	}

	return &task, nil
}

// buildUpdateSet converts a TaskPatch into a SQL SET clause with positional
// arguments. The patch's UpdatedAt is always included; an otherwise empty
// patch still advances updated_at, mirroring the fast-lookup store.
func buildUpdateSet(patch domain.TaskPatch) (string, []any, error) {
	parts := make([]string, 0, 6)
	args := make([]any, 0, 6)

	add := func(column string, value any) {
		args = append(args, value)
		parts = append(parts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", nullableString(*patch.Description))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Attachments != nil {
		encoded, err := json.Marshal(*patch.Attachments)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode attachments: %w", err)
		}
		add("attachments", encoded)
	}
	if patch.DueDate != nil {
		add("due_date", *patch.DueDate)
	}
	add("updated_at", patch.UpdatedAt)

	return strings.Join(parts, ", "), args, nil
}

// nullableString converts an empty string to a SQL NULL.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

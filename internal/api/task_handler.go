package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/service"
)

// maxMultipartMemory caps the in-memory portion of multipart parsing;
// larger attachment files spill to temporary disk storage.
const maxMultipartMemory = 32 << 20

// attachmentsFormKey is the multipart field name carrying attachment files.
const attachmentsFormKey = "attachments"

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if taskService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskService cannot be nil for TaskHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// updateTaskRequest is the "data" JSON body of a PUT /tasks/{taskID} request.
// Every field is optional; absent fields retain their prior values.
type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Attachments *[]string  `json:"attachments"`
	DueDate     *time.Time `json:"dueDate"`
}

// CreateTask handles POST /tasks requests.
// The multipart body carries title, description, dueDate, userId and
// zero-or-more attachment files.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		log.Warn("failed to parse multipart form", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	input := service.CreateTaskInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		UserID:      r.FormValue("userId"),
	}
	if input.UserID == "" {
		// Fall back to the identity middleware's caller identity.
		input.UserID = shared.GetUserID(r.Context())
	}

	if rawDue := r.FormValue("dueDate"); rawDue != "" {
		due, err := parseDueDate(rawDue)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid dueDate format")
			return
		}
		input.DueDate = &due
	}

	uploads, closeFiles, err := openAttachmentUploads(r.MultipartForm)
	if err != nil {
		log.Warn("failed to open attachment upload", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Unreadable attachment file")
		return
	}
	defer closeFiles()
	input.Attachments = uploads

	task, err := h.taskService.Create(r.Context(), input)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.Int("attachment_count", len(task.Attachments)))
	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// ListTasks handles GET /tasks requests.
// An empty store yields 200 with an empty JSON array, never 404.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.List(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// GetTask handles GET /tasks/{taskID} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/{taskID} requests.
// The multipart body carries a "data" field with the JSON of changed fields
// plus optional attachment files; a plain JSON body is accepted as well.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}

	var (
		rawData []byte
		uploads []service.AttachmentUpload
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			log.Warn("failed to parse multipart form", slog.String("error", err.Error()))
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart body")
			return
		}

		rawData = []byte(r.FormValue("data"))

		opened, closeFiles, err := openAttachmentUploads(r.MultipartForm)
		if err != nil {
			log.Warn("failed to open attachment upload", slog.String("error", err.Error()))
			shared.RespondWithError(w, r, http.StatusBadRequest, "Unreadable attachment file")
			return
		}
		defer closeFiles()
		uploads = opened
	} else {
		decoded := json.RawMessage{}
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		rawData = decoded
	}

	input := service.UpdateTaskInput{NewFiles: uploads}
	if len(rawData) > 0 {
		var req updateTaskRequest
		if err := json.Unmarshal(rawData, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		input.Title = req.Title
		input.Description = req.Description
		input.Attachments = req.Attachments
		input.DueDate = req.DueDate
		if req.Status != nil {
			status, err := domain.ParseTaskStatus(*req.Status)
			if err != nil {
				shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task status")
				return
			}
			input.Status = &status
		}
	}

	if _, err := h.taskService.Update(r.Context(), id, input); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task updated", slog.String("task_id", id.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Task updated successfully"})
}

// DeleteTask handles DELETE /tasks/{taskID} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), id, shared.GetUserID(r.Context())); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task deleted", slog.String("task_id", id.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Task deleted successfully"})
}

// pathTaskID extracts and parses the taskID path parameter, writing the
// error response itself when the parameter is missing or malformed.
func (h *TaskHandler) pathTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "taskID")
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID format")
		return uuid.Nil, false
	}
	return id, true
}

// parseDueDate accepts RFC 3339 timestamps and bare dates, the two formats
// clients actually send.
func parseDueDate(raw string) (time.Time, error) {
	if due, err := time.Parse(time.RFC3339, raw); err == nil {
		return due.UTC(), nil
	}
	due, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.New("unsupported dueDate format")
	}
	return due.UTC(), nil
}

// openAttachmentUploads opens every uploaded attachment file and returns the
// uploads plus a cleanup function closing them all.
func openAttachmentUploads(form *multipart.Form) ([]service.AttachmentUpload, func(), error) {
	noop := func() {}
	if form == nil {
		return nil, noop, nil
	}

	files := form.File[attachmentsFormKey]
	if len(files) == 0 {
		return nil, noop, nil
	}

	uploads := make([]service.AttachmentUpload, 0, len(files))
	opened := make([]multipart.File, 0, len(files))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, noop, err
		}
		opened = append(opened, file)
		uploads = append(uploads, service.AttachmentUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
	}

	return uploads, closeAll, nil
}

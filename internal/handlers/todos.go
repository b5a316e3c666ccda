package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/progress"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DefaultAutoScheduleDays is the search window when an auto-schedule request gives no range
const DefaultAutoScheduleDays = 7

// TodoScheduler books calendar time for a todo
type TodoScheduler interface {
	AutoScheduleTodo(ctx context.Context, userID, todoID uuid.UUID, dates models.DateRange) (*models.ScheduleEntry, error)
}

// TodoHandler handles todo-related requests
type TodoHandler struct {
	todoRepo  database.TodoRepositoryInterface
	scheduler TodoScheduler
	jobQueue  queue.JobQueue
	logger    *zap.Logger
	now       func() time.Time
}

// NewTodoHandler creates a new todo handler. jobQueue may be nil, in which case completing a
// path-linked todo does not trigger a progress sync.
func NewTodoHandler(todoRepo database.TodoRepositoryInterface, scheduler TodoScheduler, jobQueue queue.JobQueue, logger *zap.Logger) *TodoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoHandler{todoRepo: todoRepo, scheduler: scheduler, jobQueue: jobQueue, logger: logger, now: time.Now}
}

// RegisterRoutes registers todo routes on the given router
// The router should already have the /todos prefix (e.g., from apiRouter.PathPrefix("/todos"))
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTodos).Methods("GET")
	r.HandleFunc("", h.CreateTodo).Methods("POST")
	r.HandleFunc("/{id:"+uuidPattern+"}", h.GetTodo).Methods("GET")
	r.HandleFunc("/{id:"+uuidPattern+"}", h.UpdateTodo).Methods("PATCH")
	r.HandleFunc("/{id:"+uuidPattern+"}", h.DeleteTodo).Methods("DELETE")
	r.HandleFunc("/{id:"+uuidPattern+"}/complete", h.CompleteTodo).Methods("POST")
	r.HandleFunc("/{id:"+uuidPattern+"}/auto-schedule", h.AutoSchedule).Methods("POST")
}

// CreateTodoRequest represents a create todo request
type CreateTodoRequest struct {
	Title            string                    `json:"title" validate:"required,max=500"`
	Description      *string                   `json:"description,omitempty" validate:"omitempty,max=10000"`
	Priority         models.Priority           `json:"priority,omitempty" validate:"omitempty,priority"`
	Category         string                    `json:"category,omitempty" validate:"max=100"`
	DueDate          *time.Time                `json:"due_date,omitempty"`
	EstimatedMinutes int                       `json:"estimated_minutes,omitempty" validate:"omitempty,min=1,max=480"`
	Videos           []models.VideoReference   `json:"videos,omitempty" validate:"max=50,dive"`
	Tags             []string                  `json:"tags,omitempty" validate:"max=20,dive,max=50"`
	PathRef          *models.PathStepReference `json:"path_ref,omitempty"`
}

// UpdateTodoRequest represents an update todo request
type UpdateTodoRequest struct {
	Title            *string                   `json:"title,omitempty" validate:"omitempty,max=500"`
	Description      *string                   `json:"description,omitempty" validate:"omitempty,max=10000"`
	Status           *models.TodoStatus        `json:"status,omitempty" validate:"omitempty,todo_status"`
	Priority         *models.Priority          `json:"priority,omitempty" validate:"omitempty,priority"`
	Category         *string                   `json:"category,omitempty" validate:"omitempty,max=100"`
	DueDate          *time.Time                `json:"due_date,omitempty"`
	EstimatedMinutes *int                      `json:"estimated_minutes,omitempty" validate:"omitempty,min=1,max=480"`
	ActualMinutes    *int                      `json:"actual_minutes,omitempty" validate:"omitempty,min=0"`
	Videos           *[]models.VideoReference  `json:"videos,omitempty" validate:"omitempty,max=50,dive"`
	Tags             *[]string                 `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
	PathRef          *models.PathStepReference `json:"path_ref,omitempty"`
}

// AutoScheduleRequest bounds the slot search; both dates are optional
type AutoScheduleRequest struct {
	StartDate *clock.Date `json:"start_date,omitempty"`
	EndDate   *clock.Date `json:"end_date,omitempty"`
}

// ListTodos lists the user's todos, optionally filtered by ?status
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var status *models.TodoStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if err := validation.ValidateTodoStatus(s); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		sEnum := models.TodoStatus(s)
		status = &sEnum
	}

	todos, err := h.todoRepo.ListByUserID(r.Context(), user.ID, status)
	if err != nil {
		h.logger.Error("todo_list_failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve todos")
		return
	}
	respondJSON(w, http.StatusOK, todos)
}

// CreateTodo creates a new todo
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	now := h.now()
	todo := &models.Todo{
		ID:               uuid.New(),
		UserID:           user.ID,
		Title:            title,
		Description:      sanitizeOptional(req.Description),
		Status:           models.TodoStatusPending,
		Priority:         req.Priority,
		Category:         validation.SanitizeText(req.Category),
		DueDate:          req.DueDate,
		EstimatedMinutes: req.EstimatedMinutes,
		Videos:           req.Videos,
		Tags:             req.Tags,
		Metadata:         models.TodoMetadata{PathRef: req.PathRef, Source: models.TodoSourceUser},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if todo.Priority == "" {
		todo.Priority = models.PriorityMedium
	}
	if req.PathRef != nil {
		todo.Metadata.Source = models.TodoSourcePath
	}

	if err := h.todoRepo.Create(r.Context(), todo); err != nil {
		h.logger.Error("todo_create_failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create todo")
		return
	}

	respondJSON(w, http.StatusCreated, todo)
}

// GetTodo retrieves a todo by ID
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	todo, ok := h.loadTodo(w, r, user.ID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, todo)
}

// UpdateTodo updates an existing todo
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	todo, ok := h.loadTodo(w, r, user.ID)
	if !ok {
		return
	}

	var req UpdateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Title != nil {
		sanitized := validation.SanitizeText(*req.Title)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		todo.Title = sanitized
	}
	if req.Description != nil {
		todo.Description = sanitizeOptional(req.Description)
	}
	if req.Priority != nil {
		todo.Priority = *req.Priority
	}
	if req.Category != nil {
		todo.Category = validation.SanitizeText(*req.Category)
	}
	if req.DueDate != nil {
		todo.DueDate = req.DueDate
	}
	if req.EstimatedMinutes != nil {
		todo.EstimatedMinutes = *req.EstimatedMinutes
	}
	if req.ActualMinutes != nil {
		todo.ActualMinutes = *req.ActualMinutes
	}
	if req.Videos != nil {
		todo.Videos = *req.Videos
	}
	if req.Tags != nil {
		todo.Tags = *req.Tags
	}
	if req.PathRef != nil {
		todo.Metadata.PathRef = req.PathRef
	}

	wasCompleted := todo.Status == models.TodoStatusCompleted
	now := h.now()
	if req.Status != nil {
		todo.SetStatus(*req.Status, now)
	}
	todo.UpdatedAt = now

	if err := h.todoRepo.Update(r.Context(), todo); err != nil {
		h.logger.Error("todo_update_failed", zap.String("todo_id", todo.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update todo")
		return
	}
	if !wasCompleted && todo.Status == models.TodoStatusCompleted {
		h.enqueueProgressSync(r.Context(), todo)
	}

	respondJSON(w, http.StatusOK, todo)
}

// DeleteTodo deletes a todo
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.todoRepo.Delete(r.Context(), user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Todo not found")
		return
	}
	if err != nil {
		h.logger.Error("todo_delete_failed", zap.String("todo_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete todo")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteTodo marks a todo as completed and, for path-linked todos, queues a progress sync
func (h *TodoHandler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	todo, ok := h.loadTodo(w, r, user.ID)
	if !ok {
		return
	}

	if todo.Status == models.TodoStatusCompleted {
		respondJSON(w, http.StatusOK, todo)
		return
	}

	now := h.now()
	todo.SetStatus(models.TodoStatusCompleted, now)
	todo.UpdatedAt = now

	if err := h.todoRepo.Update(r.Context(), todo); err != nil {
		h.logger.Error("todo_complete_failed", zap.String("todo_id", todo.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete todo")
		return
	}
	h.enqueueProgressSync(r.Context(), todo)

	respondJSON(w, http.StatusOK, todo)
}

// AutoSchedule books the best free slot for the todo
func (h *TodoHandler) AutoSchedule(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req AutoScheduleRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	dates := models.DateRange{Start: clock.DateOf(h.now().UTC())}
	if req.StartDate != nil {
		dates.Start = *req.StartDate
	}
	dates.End = dates.Start.AddDays(DefaultAutoScheduleDays - 1)
	if req.EndDate != nil {
		dates.End = *req.EndDate
	}

	entry, err := h.scheduler.AutoScheduleTodo(r.Context(), user.ID, id, dates)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to schedule todo")
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// loadTodo fetches the {id} todo of the user, answering 400/404/500 itself
func (h *TodoHandler) loadTodo(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*models.Todo, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	todo, err := h.todoRepo.GetByID(r.Context(), userID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Todo not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("todo_fetch_failed", zap.String("todo_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve todo")
		return nil, false
	}
	return todo, true
}

// enqueueProgressSync queues a todo_completed event for the todo's learning path.
// Failures are logged only; the completion itself has already been stored.
func (h *TodoHandler) enqueueProgressSync(ctx context.Context, todo *models.Todo) {
	pathID, linked := todo.LinkedPathID()
	if !linked || h.jobQueue == nil {
		return
	}

	event, err := progress.EncodeEvent(progress.TodoCompleted{TodoID: todo.ID})
	if err != nil {
		h.logger.Error("progress_event_encode_failed", zap.String("todo_id", todo.ID.String()), zap.Error(err))
		return
	}
	job := queue.NewProgressSyncJob(todo.UserID, pathID, event)
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		h.logger.Warn("progress_sync_enqueue_failed",
			zap.String("todo_id", todo.ID.String()),
			zap.String("path_id", pathID.String()),
			zap.Error(err),
		)
		return
	}
	h.logger.Debug("progress_sync_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("todo_id", todo.ID.String()),
		zap.String("path_id", pathID.String()),
	)
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := validation.SanitizeText(*s)
	if v == "" {
		return nil
	}
	return &v
}

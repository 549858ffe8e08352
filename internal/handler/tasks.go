package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/security/middleware"
	"github.com/yourorg/orchestrate/internal/service"
)

// TaskHandler handles the task endpoints.
type TaskHandler struct {
	tasks    *service.TaskService
	workload *service.WorkloadService
	logger   *slog.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(tasks *service.TaskService, workload *service.WorkloadService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{tasks: tasks, workload: workload, logger: logger}
}

type createTaskRequest struct {
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	Priority       string     `json:"priority"`
	EstimatedHours *float64   `json:"estimatedHours"`
	DueDate        *time.Time `json:"dueDate"`
	ProjectID      string     `json:"projectId"`
	AssignedToID   *string    `json:"assignedToId"`
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	task, err := h.tasks.Create(r.Context(), principal, service.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       domain.TaskPriority(req.Priority),
		EstimatedHours: req.EstimatedHours,
		DueDate:        req.DueDate,
		ProjectID:      req.ProjectID,
		AssignedToID:   req.AssignedToID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTaskView(task))
}

// List handles GET /api/tasks with optional narrowing filters.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.TaskFilter{
		ProjectID:  q.Get("projectId"),
		AssigneeID: q.Get("assigneeId"),
		Status:     q.Get("status"),
		Priority:   q.Get("priority"),
		Search:     q.Get("search"),
	}

	principal := middleware.GetPrincipal(r.Context())
	tasks, err := h.tasks.List(r.Context(), principal, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskViews(tasks))
}

// Update handles PATCH /api/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.TaskUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	task, err := h.tasks.Update(r.Context(), principal, r.PathValue("id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskView(task))
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if err := h.tasks.Delete(r.Context(), principal, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

// Workload handles GET /api/tasks/workload.
func (h *TaskHandler) Workload(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	workload, err := h.workload.List(r.Context(), principal)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, workload)
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/security/middleware"
	"github.com/yourorg/orchestrate/internal/service"
)

// ProjectHandler handles the project endpoints.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectHandler{projects: projects, logger: logger}
}

type createProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline"`
	PMID        *string    `json:"pmId"`
}

// Create handles POST /api/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	project, err := h.projects.Create(r.Context(), principal, service.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.ProjectStatus(req.Status),
		Deadline:    req.Deadline,
		PMID:        req.PMID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, projectView{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      string(project.Status),
		Deadline:    project.Deadline,
		PMID:        project.PMID,
		CreatedAt:   project.CreatedAt,
		Members:     []memberView{},
	})
}

// List handles GET /api/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newProjectViews(projects))
}

type addMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// AddMember handles POST /api/projects/{projectId}/members.
func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	members, err := h.projects.AddMember(r.Context(), principal, r.PathValue("projectId"), req.UserID, domain.Role(req.Role))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMemberViews(members))
}

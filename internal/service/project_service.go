package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/observability/metrics"
	"github.com/yourorg/orchestrate/internal/reliability/retry"
	"github.com/yourorg/orchestrate/internal/security"
)

// ProjectService owns project lifecycle and explicit membership.
type ProjectService struct {
	projects domain.ProjectRepository
	members  domain.ProjectMemberRepository
	authz    *security.AuthorizationService
	logger   *slog.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(
	projects domain.ProjectRepository,
	members domain.ProjectMemberRepository,
	authz *security.AuthorizationService,
	logger *slog.Logger,
) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ProjectService{
		projects: projects,
		members:  members,
		authz:    authz,
		logger:   logger,
	}
}

// CreateProjectInput carries a project creation request.
type CreateProjectInput struct {
	Name        string
	Description string
	Status      domain.ProjectStatus
	Deadline    *time.Time
	PMID        *string
}

// Create stores a new project. Manager-tier roles only. A designated PM
// is recorded as a project member immediately.
func (s *ProjectService) Create(ctx context.Context, principal *domain.Principal, in CreateProjectInput) (*domain.Project, error) {
	if err := s.authz.Require(principal.Role, security.PermManageProjects); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, domain.Validationf("name is required")
	}

	status := in.Status
	if status == "" {
		status = domain.ProjectActive
	}
	if !status.Valid() {
		return nil, domain.Validationf("invalid status")
	}

	project := &domain.Project{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Status:      status,
		Deadline:    in.Deadline,
		PMID:        in.PMID,
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	if project.PMID != nil {
		s.syncMember(ctx, project.ID, *project.PMID, domain.RoleProjectManager)
	}

	return project, nil
}

// List returns all projects with task/member counts and relations.
func (s *ProjectService) List(ctx context.Context) ([]*domain.ProjectInfo, error) {
	return s.projects.List(ctx)
}

// AddMember explicitly records a project membership. Manager-tier roles
// only. Adding an existing member is a no-op, not an error.
func (s *ProjectService) AddMember(ctx context.Context, principal *domain.Principal, projectID, userID string, role domain.Role) ([]*domain.ProjectMember, error) {
	if err := s.authz.Require(principal.Role, security.PermManageProjects); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, domain.Validationf("userId is required")
	}
	if role == "" {
		role = domain.RoleDeveloper
	}
	if !role.Valid() {
		return nil, domain.Validationf("invalid role")
	}

	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	if err := s.members.Upsert(ctx, projectID, userID, role); err != nil {
		return nil, err
	}

	return s.members.ListByProject(ctx, projectID)
}

// syncMember mirrors TaskService.syncMember: the project write already
// succeeded, so reconciliation failures are retried then logged.
func (s *ProjectService) syncMember(ctx context.Context, projectID, userID string, role domain.Role) {
	_, err := retry.Do(ctx, retry.DefaultConfig(), s.logger, "membership_sync",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.members.Upsert(ctx, projectID, userID, role)
		})
	if err != nil {
		metrics.ObserveMembershipSync("failure")
		s.logger.Error("membership sync failed",
			slog.String("project_id", projectID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.ObserveMembershipSync("success")
}

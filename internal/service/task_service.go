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

// TaskService owns task lifecycle rules: role scoping on reads, the
// owner/manager split on writes, and membership reconciliation on the
// write path.
type TaskService struct {
	tasks    domain.TaskRepository
	projects domain.ProjectRepository
	members  domain.ProjectMemberRepository
	authz    *security.AuthorizationService
	logger   *slog.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(
	tasks domain.TaskRepository,
	projects domain.ProjectRepository,
	members domain.ProjectMemberRepository,
	authz *security.AuthorizationService,
	logger *slog.Logger,
) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskService{
		tasks:    tasks,
		projects: projects,
		members:  members,
		authz:    authz,
		logger:   logger,
	}
}

// CreateTaskInput carries a task creation request.
type CreateTaskInput struct {
	Title          string
	Description    *string
	Priority       domain.TaskPriority
	EstimatedHours *float64
	DueDate        *time.Time
	ProjectID      string
	AssignedToID   *string
}

// Create stores a new task. Manager-tier roles only. Assigning a user
// also records them as a project member.
func (s *TaskService) Create(ctx context.Context, principal *domain.Principal, in CreateTaskInput) (*domain.Task, error) {
	if err := s.authz.Require(principal.Role, security.PermManageTasks); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, domain.Validationf("title is required")
	}
	if in.ProjectID == "" {
		return nil, domain.Validationf("projectId is required")
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, domain.Validationf("invalid priority")
	}

	task := &domain.Task{
		ID:             uuid.NewString(),
		Title:          in.Title,
		Description:    in.Description,
		Status:         domain.TaskTodo,
		Priority:       priority,
		EstimatedHours: in.EstimatedHours,
		DueDate:        in.DueDate,
		ProjectID:      in.ProjectID,
		AssignedToID:   in.AssignedToID,
		CreatedByID:    principal.UserID,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	if task.AssignedToID != nil {
		s.syncMember(ctx, task.ProjectID, *task.AssignedToID, domain.RoleDeveloper)
	}

	created, err := s.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return task, nil
	}
	return created, nil
}

// List returns tasks inside the viewer's role scope, narrowed by the
// caller-supplied filters. Filters AND with the scope and can never
// widen it.
func (s *TaskService) List(ctx context.Context, principal *domain.Principal, filter domain.TaskFilter) ([]*domain.Task, error) {
	scope, err := s.scopeFor(ctx, principal)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" && !domain.TaskStatus(filter.Status).Valid() {
		return nil, domain.Validationf("invalid status")
	}
	if filter.Priority != "" && !domain.TaskPriority(filter.Priority).Valid() {
		return nil, domain.Validationf("invalid priority")
	}
	return s.tasks.List(ctx, scope, filter)
}

// ownerFields is the set an owner-non-manager may change; anything else
// in the payload is silently ignored for them.
func applyOwnerFields(task *domain.Task, in domain.TaskUpdate) error {
	if status, ok := in.Status.Value(); ok {
		if !status.Valid() {
			return domain.Validationf("invalid status")
		}
		task.Status = status
	}
	if in.ActualHours.Present() {
		if v, ok := in.ActualHours.Value(); ok {
			task.ActualHours = &v
		} else {
			task.ActualHours = nil
		}
	}
	if in.LoggedHours.Present() {
		if v, ok := in.LoggedHours.Value(); ok {
			task.LoggedHours = &v
		} else {
			task.LoggedHours = nil
		}
	}
	if in.EstimatedHours.Present() {
		if v, ok := in.EstimatedHours.Value(); ok {
			task.EstimatedHours = &v
		} else {
			task.EstimatedHours = nil
		}
	}
	if in.DueDate.Present() {
		if v, ok := in.DueDate.Value(); ok {
			task.DueDate = &v
		} else {
			task.DueDate = nil
		}
	}
	return nil
}

func applyManagerFields(task *domain.Task, in domain.TaskUpdate) error {
	if err := applyOwnerFields(task, in); err != nil {
		return err
	}
	if title, ok := in.Title.Value(); ok {
		if title == "" {
			return domain.Validationf("title cannot be empty")
		}
		task.Title = title
	}
	if in.Description.Present() {
		if v, ok := in.Description.Value(); ok {
			task.Description = &v
		} else {
			task.Description = nil
		}
	}
	if priority, ok := in.Priority.Value(); ok {
		if !priority.Valid() {
			return domain.Validationf("invalid priority")
		}
		task.Priority = priority
	}
	if projectID, ok := in.ProjectID.Value(); ok {
		task.ProjectID = projectID
	}
	if in.AssignedToID.Present() {
		// Empty string and null both mean unassign.
		if v, ok := in.AssignedToID.Value(); ok && v != "" {
			task.AssignedToID = &v
		} else {
			task.AssignedToID = nil
		}
	}
	return nil
}

// Update applies a partial update. Manager-tier roles may change every
// field; the assignee may change only their progress fields (status,
// hours, due date), with other payload fields silently ignored. Anyone
// else is rejected.
func (s *TaskService) Update(ctx context.Context, principal *domain.Principal, id string, in domain.TaskUpdate) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	isManager := security.HasPermission(principal.Role, security.PermManageTasks)
	if !isManager && !task.IsAssignedTo(principal.UserID) {
		return nil, domain.Forbiddenf("Forbidden")
	}

	if isManager {
		err = applyManagerFields(task, in)
	} else {
		err = applyOwnerFields(task, in)
	}
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if isManager && task.AssignedToID != nil {
		s.syncMember(ctx, task.ProjectID, *task.AssignedToID, domain.RoleDeveloper)
	}

	updated, err := s.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return task, nil
	}
	return updated, nil
}

// Delete removes a task. Manager-tier roles only; a missing task is
// reported before the permission of non-managers matters.
func (s *TaskService) Delete(ctx context.Context, principal *domain.Principal, id string) error {
	if _, err := s.tasks.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.authz.Require(principal.Role, security.PermManageTasks); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}

// scopeFor computes the maximal read scope for a role. Filters only ever
// narrow what this returns.
func (s *TaskService) scopeFor(ctx context.Context, principal *domain.Principal) (domain.TaskScope, error) {
	switch principal.Role {
	case domain.RoleAdmin:
		return domain.TaskScope{All: true}, nil
	case domain.RoleProjectManager:
		managed, err := s.projects.ListManagedIDs(ctx, principal.UserID)
		if err != nil {
			return domain.TaskScope{}, err
		}
		return domain.TaskScope{AssigneeID: principal.UserID, ProjectIDs: managed}, nil
	case domain.RoleDeveloper:
		return domain.TaskScope{AssigneeID: principal.UserID}, nil
	default:
		return domain.TaskScope{}, domain.Forbiddenf("Forbidden")
	}
}

// syncMember records a derived project membership. Best effort: the task
// write already succeeded, so failures here are retried and then logged,
// never surfaced. The upsert is idempotent, repeats are harmless.
func (s *TaskService) syncMember(ctx context.Context, projectID, userID string, role domain.Role) {
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

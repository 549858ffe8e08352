package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/orchestrate/internal/domain"
)

// Workload intensity bands, classified by active (non-DONE) task count.
const (
	IntensityGreen  = "GREEN"
	IntensityYellow = "YELLOW"
	IntensityRed    = "RED"

	redThreshold    = 7
	yellowThreshold = 4
)

// DeveloperWorkload is one developer's active task summary.
type DeveloperWorkload struct {
	User           *domain.UserRef `json:"user"`
	ActiveTasks    int             `json:"activeTasksCount"`
	EstimatedHours float64         `json:"estimatedHoursTotal"`
	ActualHours    float64         `json:"actualHoursTotal"`
	Intensity      string          `json:"workloadIntensity"`
}

// WorkloadService computes active-task load per developer.
type WorkloadService struct {
	users    domain.UserRepository
	tasks    domain.TaskRepository
	projects domain.ProjectRepository
	logger   *slog.Logger
}

// NewWorkloadService creates a new workload service.
func NewWorkloadService(
	users domain.UserRepository,
	tasks domain.TaskRepository,
	projects domain.ProjectRepository,
	logger *slog.Logger,
) *WorkloadService {
	if logger == nil {
		logger = slog.Default()
	}

	return &WorkloadService{
		users:    users,
		tasks:    tasks,
		projects: projects,
		logger:   logger,
	}
}

// List returns the workload summary for every developer the viewer may
// see: a developer sees only themselves, a project manager sees the
// developers working in their projects, everyone else sees all
// developers. Developers with no active tasks still appear with zeros.
func (s *WorkloadService) List(ctx context.Context, principal *domain.Principal) ([]DeveloperWorkload, error) {
	developers, err := s.visibleDevelopers(ctx, principal)
	if err != nil {
		return nil, err
	}
	if len(developers) == 0 {
		return []DeveloperWorkload{}, nil
	}

	ids := make([]string, 0, len(developers))
	for _, dev := range developers {
		ids = append(ids, dev.ID)
	}

	active, err := s.tasks.ListActiveByAssignees(ctx, ids)
	if err != nil {
		return nil, err
	}

	type totals struct {
		count     int
		estimated float64
		actual    float64
	}
	byAssignee := make(map[string]totals, len(developers))
	for _, task := range active {
		if task.AssignedToID == nil {
			continue
		}
		t := byAssignee[*task.AssignedToID]
		t.count++
		if task.EstimatedHours != nil {
			t.estimated += *task.EstimatedHours
		}
		if task.ActualHours != nil {
			t.actual += *task.ActualHours
		}
		byAssignee[*task.AssignedToID] = t
	}

	out := make([]DeveloperWorkload, 0, len(developers))
	for _, dev := range developers {
		t := byAssignee[dev.ID]
		out = append(out, DeveloperWorkload{
			User:           &domain.UserRef{ID: dev.ID, Name: dev.Name, Email: dev.Email},
			ActiveTasks:    t.count,
			EstimatedHours: t.estimated,
			ActualHours:    t.actual,
			Intensity:      classifyIntensity(t.count),
		})
	}
	return out, nil
}

func (s *WorkloadService) visibleDevelopers(ctx context.Context, principal *domain.Principal) ([]*domain.User, error) {
	switch principal.Role {
	case domain.RoleDeveloper:
		self, err := s.users.GetByID(ctx, principal.UserID)
		if err != nil {
			return nil, err
		}
		return []*domain.User{self}, nil
	case domain.RoleProjectManager:
		managed, err := s.projects.ListManagedIDs(ctx, principal.UserID)
		if err != nil {
			return nil, err
		}
		if managed == nil {
			managed = []string{}
		}
		return s.users.ListDevelopers(ctx, managed)
	default:
		return s.users.ListDevelopers(ctx, nil)
	}
}

func classifyIntensity(activeTasks int) string {
	switch {
	case activeTasks >= redThreshold:
		return IntensityRed
	case activeTasks >= yellowThreshold:
		return IntensityYellow
	default:
		return IntensityGreen
	}
}

package domain

import (
	"context"
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskInReview   TaskStatus = "IN_REVIEW"
	TaskDone       TaskStatus = "DONE"
)

// Valid reports whether s is a defined task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskInReview, TaskDone:
		return true
	}
	return false
}

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "LOW"
	PriorityMedium   TaskPriority = "MEDIUM"
	PriorityHigh     TaskPriority = "HIGH"
	PriorityCritical TaskPriority = "CRITICAL"
)

// Valid reports whether p is a defined task priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Task is a unit of project work.
type Task struct {
	ID             string
	Title          string
	Description    *string
	Status         TaskStatus
	Priority       TaskPriority
	EstimatedHours *float64
	ActualHours    *float64
	LoggedHours    *float64
	DueDate        *time.Time
	ProjectID      string
	AssignedToID   *string
	CreatedByID    string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Relations, populated on reads.
	Project    *ProjectRef
	AssignedTo *UserRef
	CreatedBy  *UserRef
}

// ProjectRef is the identity slice of a project embedded in tasks.
type ProjectRef struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	PMID *string `json:"pmId,omitempty"`
}

// Active reports whether the task counts toward workload (not DONE).
func (t *Task) Active() bool { return t.Status != TaskDone }

// AssignedTo reports whether the task is assigned to the given user.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

// TaskScope is the maximal set of tasks a viewer may read, computed from
// the viewer's role before caller-supplied filters are applied. A task is
// in scope when All is set, or its assignee equals AssigneeID, or its
// project is in ProjectIDs. An empty scope matches nothing.
type TaskScope struct {
	All        bool
	AssigneeID string
	ProjectIDs []string
}

// Contains reports whether the task falls inside the scope.
func (s TaskScope) Contains(t *Task) bool {
	if s.All {
		return true
	}
	if s.AssigneeID != "" && t.IsAssignedTo(s.AssigneeID) {
		return true
	}
	for _, id := range s.ProjectIDs {
		if t.ProjectID == id {
			return true
		}
	}
	return false
}

// TaskFilter holds caller-supplied narrowing filters. Filters are ANDed
// with the role scope; they can only narrow what a role may see.
type TaskFilter struct {
	ProjectID  string
	AssigneeID string
	Status     string
	Priority   string
	Search     string // substring over title and description
}

// TaskUpdate carries a partial update where each field is tri-state:
// absent (retain), null (clear), or set (replace). Which fields are
// honored depends on the actor, see TaskService.Update.
type TaskUpdate struct {
	Title          Field[string]       `json:"title"`
	Description    Field[string]       `json:"description"`
	Status         Field[TaskStatus]   `json:"status"`
	Priority       Field[TaskPriority] `json:"priority"`
	EstimatedHours Field[float64]      `json:"estimatedHours"`
	ActualHours    Field[float64]      `json:"actualHours"`
	LoggedHours    Field[float64]      `json:"loggedHours"`
	DueDate        Field[time.Time]    `json:"dueDate"`
	ProjectID      Field[string]       `json:"projectId"`
	AssignedToID   Field[string]       `json:"assignedToId"`
}

// TaskRepository defines data access for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, scope TaskScope, filter TaskFilter) ([]*Task, error)
	// ListActiveByAssignees returns non-DONE tasks assigned to any of the
	// given users.
	ListActiveByAssignees(ctx context.Context, assigneeIDs []string) ([]*Task, error)
}

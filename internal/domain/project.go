package domain

import (
	"context"
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "ACTIVE"
	ProjectArchived ProjectStatus = "ARCHIVED"
)

// Valid reports whether s is a defined project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectArchived:
		return true
	}
	return false
}

// Project groups tasks under an optional managing user (PMID).
type Project struct {
	ID          string
	Name        string
	Description string
	Status      ProjectStatus
	Deadline    *time.Time
	PMID        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectMember is a derived membership record, reconciled on the write
// path from two signals: the project's PMID and task assignments.
// Unique per (ProjectID, UserID).
type ProjectMember struct {
	ProjectID string
	UserID    string
	Role      Role
	CreatedAt time.Time

	User *UserRef
}

// ProjectInfo is a project enriched with relations for list views.
type ProjectInfo struct {
	Project
	TaskCount   int
	MemberCount int
	PM          *UserRef
	Members     []*ProjectMember
}

// ProjectRepository defines data access for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]*ProjectInfo, error)
	// ListManagedIDs returns the ids of projects whose PMID equals pmID.
	ListManagedIDs(ctx context.Context, pmID string) ([]string, error)
}

// ProjectMemberRepository defines data access for derived memberships.
type ProjectMemberRepository interface {
	// Upsert inserts the membership if absent and leaves an existing row
	// unchanged; it never downgrades a previously recorded role.
	Upsert(ctx context.Context, projectID, userID string, role Role) error
	ListByProject(ctx context.Context, projectID string) ([]*ProjectMember, error)
}

package domain

import (
	"context"
	"time"
)

// Role is the closed set of user roles. Every permission site switches
// over this set or consults the permission table in internal/security,
// so adding a role forces each site to be revisited.
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleProjectManager Role = "PROJECT_MANAGER"
	RoleDeveloper      Role = "DEVELOPER"
	RoleStaff          Role = "STAFF"
	RolePublic         Role = "PUBLIC"
)

// Roles lists every defined role.
var Roles = []Role{RoleAdmin, RoleProjectManager, RoleDeveloper, RoleStaff, RolePublic}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleDeveloper, RoleStaff, RolePublic:
		return true
	}
	return false
}

// UserStatus controls whether a user may authenticate.
type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserDisabled UserStatus = "DISABLED"
)

// User represents a system user. Email is unique.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt hash, never serialized to clients
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRef is the identity slice of a user embedded in related entities.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Principal is an authenticated actor as seen by the rule engine.
// A nil *Principal means an anonymous (public) caller.
type Principal struct {
	UserID string
	Role   Role
	Email  string
	Name   string
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	// ListDevelopers returns users with role DEVELOPER, optionally
	// restricted to those having at least one task in the given projects.
	// A nil projectIDs slice means no project restriction; an empty
	// non-nil slice matches nobody.
	ListDevelopers(ctx context.Context, projectIDs []string) ([]*User, error)
	UpdateStatus(ctx context.Context, id string, status UserStatus) (*User, error)
	Delete(ctx context.Context, id string) error
}

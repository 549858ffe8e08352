package security

import (
	"log/slog"

	"github.com/yourorg/orchestrate/internal/domain"
)

// Permission represents an elevated action. Read visibility (masking,
// scoping) is handled by the services; this table covers mutation rights.
type Permission string

const (
	PermManageBookings Permission = "manage_bookings" // update/delete any booking
	PermManageTasks    Permission = "manage_tasks"    // create/delete/full-edit tasks
	PermManageProjects Permission = "manage_projects" // create projects, add members
	PermManageUsers    Permission = "manage_users"    // admin user lifecycle
)

// RolePermissions maps every role to its elevated permissions. Each role
// has an entry, including the empty ones, so a new role cannot silently
// fall through permission checks.
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: {
		PermManageBookings,
		PermManageTasks,
		PermManageProjects,
		PermManageUsers,
	},
	domain.RoleProjectManager: {
		PermManageBookings,
		PermManageTasks,
		PermManageProjects,
	},
	domain.RoleDeveloper: {},
	domain.RoleStaff:     {},
	domain.RolePublic:    {},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role domain.Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// AuthorizationService wraps permission checks with denial logging.
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service.
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{logger: logger}
}

// Require validates that a role has a permission and returns a forbidden
// error otherwise.
func (as *AuthorizationService) Require(role domain.Role, permission Permission) error {
	if !HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return domain.Forbiddenf("Forbidden")
	}
	return nil
}

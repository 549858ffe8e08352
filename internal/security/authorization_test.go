package security

import (
	"errors"
	"testing"

	"github.com/yourorg/orchestrate/internal/domain"
)

func TestRolePermissionMatrix(t *testing.T) {
	cases := []struct {
		role domain.Role
		perm Permission
		want bool
	}{
		{domain.RoleAdmin, PermManageBookings, true},
		{domain.RoleAdmin, PermManageTasks, true},
		{domain.RoleAdmin, PermManageProjects, true},
		{domain.RoleAdmin, PermManageUsers, true},

		{domain.RoleProjectManager, PermManageBookings, true},
		{domain.RoleProjectManager, PermManageTasks, true},
		{domain.RoleProjectManager, PermManageProjects, true},
		{domain.RoleProjectManager, PermManageUsers, false},

		{domain.RoleDeveloper, PermManageBookings, false},
		{domain.RoleDeveloper, PermManageTasks, false},
		{domain.RoleStaff, PermManageBookings, false},
		{domain.RolePublic, PermManageBookings, false},
	}

	for _, tc := range cases {
		if got := HasPermission(tc.role, tc.perm); got != tc.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestUnknownRoleHasNoPermissions(t *testing.T) {
	if HasPermission(domain.Role("SUPERUSER"), PermManageUsers) {
		t.Fatal("unrecognized roles must never pass permission checks")
	}
}

func TestRequireReturnsForbidden(t *testing.T) {
	as := NewAuthorizationService(nil)

	if err := as.Require(domain.RoleAdmin, PermManageUsers); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	err := as.Require(domain.RoleStaff, PermManageUsers)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestEveryRoleHasAMatrixEntry(t *testing.T) {
	for _, role := range []domain.Role{
		domain.RoleAdmin,
		domain.RoleProjectManager,
		domain.RoleDeveloper,
		domain.RoleStaff,
		domain.RolePublic,
	} {
		if _, ok := RolePermissions[role]; !ok {
			t.Errorf("role %s missing from the permission matrix", role)
		}
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/security"
)

func newUserFixture() (*UserService, *memUserRepo) {
	users := newMemUserRepo()
	return NewUserService(users, security.NewAuthorizationService(nil), nil), users
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	for _, role := range []domain.Role{domain.RoleProjectManager, domain.RoleDeveloper, domain.RoleStaff} {
		p := principalFor("caller", role)
		if _, err := svc.List(ctx, p); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s list: expected forbidden, got %v", role, err)
		}
		if _, err := svc.Create(ctx, p, CreateUserInput{Name: "X", Email: "x@e.com", Password: "pw", Role: domain.RoleStaff}); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s create: expected forbidden, got %v", role, err)
		}
		if err := svc.Delete(ctx, p, "someone"); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s delete: expected forbidden, got %v", role, err)
		}
	}
}

func TestAdminCreatesUserWithExplicitRole(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()
	admin := principalFor("root", domain.RoleAdmin)

	user, err := svc.Create(ctx, admin, CreateUserInput{
		Name:     "Pat",
		Email:    "pat@example.com",
		Password: "pw",
		Role:     domain.RoleProjectManager,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.Role != domain.RoleProjectManager {
		t.Errorf("expected PROJECT_MANAGER, got %s", user.Role)
	}
	if user.Status != domain.UserActive {
		t.Errorf("new users should be ACTIVE, got %s", user.Status)
	}

	if _, err := svc.Create(ctx, admin, CreateUserInput{Name: "P", Email: "p@e.com", Password: "pw", Role: "WIZARD"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad role: expected validation error, got %v", err)
	}
}

func TestUpdateStatusRejectsSelfDisable(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()
	admin := principalFor("root", domain.RoleAdmin)

	users.byID["root"] = &domain.User{ID: "root", Role: domain.RoleAdmin, Status: domain.UserActive}
	users.byID["other"] = &domain.User{ID: "other", Role: domain.RoleStaff, Status: domain.UserActive}

	if _, err := svc.UpdateStatus(ctx, admin, "root", domain.UserDisabled); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("self-disable: expected validation error, got %v", err)
	}

	// Re-activating yourself is fine, disabling someone else too.
	if _, err := svc.UpdateStatus(ctx, admin, "root", domain.UserActive); err != nil {
		t.Fatalf("self-activate failed: %v", err)
	}
	updated, err := svc.UpdateStatus(ctx, admin, "other", domain.UserDisabled)
	if err != nil {
		t.Fatalf("disable other failed: %v", err)
	}
	if updated.Status != domain.UserDisabled {
		t.Errorf("expected DISABLED, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(ctx, admin, "other", "PAUSED"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad status: expected validation error, got %v", err)
	}
}

func TestDeleteRejectsSelf(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()
	admin := principalFor("root", domain.RoleAdmin)

	users.byID["root"] = &domain.User{ID: "root", Role: domain.RoleAdmin, Status: domain.UserActive}
	users.byID["other"] = &domain.User{ID: "other", Role: domain.RoleStaff, Status: domain.UserActive}

	if err := svc.Delete(ctx, admin, "root"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("self-delete: expected validation error, got %v", err)
	}
	if err := svc.Delete(ctx, admin, "other"); err != nil {
		t.Fatalf("delete other failed: %v", err)
	}
	if err := svc.Delete(ctx, admin, "other"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

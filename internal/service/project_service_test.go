package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/security"
)

func newProjectFixture() (*ProjectService, *memMemberRepo) {
	members := newMemMemberRepo()
	svc := NewProjectService(newMemProjectRepo(), members, security.NewAuthorizationService(nil), nil)
	return svc, members
}

func TestCreateProjectRequiresManagerTier(t *testing.T) {
	svc, _ := newProjectFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, principalFor("dev", domain.RoleDeveloper), CreateProjectInput{Name: "Apollo"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for developer, got %v", err)
	}

	p, err := svc.Create(ctx, principalFor("pm", domain.RoleProjectManager), CreateProjectInput{Name: "Apollo"})
	if err != nil {
		t.Fatalf("pm create failed: %v", err)
	}
	if p.Status != domain.ProjectActive {
		t.Errorf("status should default to ACTIVE, got %s", p.Status)
	}
}

func TestCreateProjectRecordsPMMembership(t *testing.T) {
	svc, members := newProjectFixture()
	ctx := context.Background()

	pmID := "pm"
	p, err := svc.Create(ctx, principalFor("root", domain.RoleAdmin), CreateProjectInput{Name: "Apollo", PMID: &pmID})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, _ := members.ListByProject(ctx, p.ID)
	if len(got) != 1 || got[0].UserID != "pm" || got[0].Role != domain.RoleProjectManager {
		t.Fatalf("expected pm recorded as manager member, got %+v", got)
	}
}

func TestAddMemberIsIdempotent(t *testing.T) {
	svc, members := newProjectFixture()
	ctx := context.Background()
	admin := principalFor("root", domain.RoleAdmin)

	p, err := svc.Create(ctx, admin, CreateProjectInput{Name: "Apollo"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		list, err := svc.AddMember(ctx, admin, p.ID, "dev1", "")
		if err != nil {
			t.Fatalf("add member failed: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected 1 member, got %d", len(list))
		}
		if list[0].Role != domain.RoleDeveloper {
			t.Errorf("role should default to DEVELOPER, got %s", list[0].Role)
		}
	}

	got, _ := members.ListByProject(ctx, p.ID)
	if len(got) != 1 {
		t.Fatalf("repeated add must not duplicate the row, got %d", len(got))
	}
}

func TestAddMemberValidation(t *testing.T) {
	svc, _ := newProjectFixture()
	ctx := context.Background()
	admin := principalFor("root", domain.RoleAdmin)

	p, err := svc.Create(ctx, admin, CreateProjectInput{Name: "Apollo"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.AddMember(ctx, admin, p.ID, "", ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing userId: expected validation error, got %v", err)
	}
	if _, err := svc.AddMember(ctx, admin, "missing", "dev1", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown project: expected not found, got %v", err)
	}
	if _, err := svc.AddMember(ctx, principalFor("staff", domain.RoleStaff), p.ID, "dev1", ""); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("staff: expected forbidden, got %v", err)
	}
}

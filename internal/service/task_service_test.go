package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/security"
)

type taskFixture struct {
	svc      *TaskService
	tasks    *memTaskRepo
	projects *memProjectRepo
	members  *memMemberRepo
}

func newTaskFixture() *taskFixture {
	tasks := newMemTaskRepo()
	projects := newMemProjectRepo()
	members := newMemMemberRepo()
	svc := NewTaskService(tasks, projects, members, security.NewAuthorizationService(nil), nil)
	return &taskFixture{svc: svc, tasks: tasks, projects: projects, members: members}
}

func (f *taskFixture) seedProject(t *testing.T, id string, pmID string) {
	t.Helper()
	p := &domain.Project{ID: id, Name: id, Status: domain.ProjectActive}
	if pmID != "" {
		p.PMID = &pmID
	}
	if err := f.projects.Create(context.Background(), p); err != nil {
		t.Fatalf("seed project: %v", err)
	}
}

func (f *taskFixture) seedTask(t *testing.T, id, projectID string, assignee string) {
	t.Helper()
	task := &domain.Task{
		ID:          id,
		Title:       "Task " + id,
		Status:      domain.TaskTodo,
		Priority:    domain.PriorityMedium,
		ProjectID:   projectID,
		CreatedByID: "pm",
	}
	if assignee != "" {
		task.AssignedToID = &assignee
	}
	if err := f.tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
}

func TestCreateTaskRequiresManagerTier(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")

	in := CreateTaskInput{Title: "Build it", ProjectID: "p1"}

	if _, err := f.svc.Create(context.Background(), principalFor("dev", domain.RoleDeveloper), in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for developer, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), principalFor("staff", domain.RoleStaff), in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for staff, got %v", err)
	}
	task, err := f.svc.Create(context.Background(), principalFor("pm", domain.RoleProjectManager), in)
	if err != nil {
		t.Fatalf("pm create failed: %v", err)
	}
	if task.Priority != domain.PriorityMedium {
		t.Errorf("priority should default to MEDIUM, got %s", task.Priority)
	}
	if task.Status != domain.TaskTodo {
		t.Errorf("status should default to TODO, got %s", task.Status)
	}
}

func TestCreateTaskSyncsAssigneeMembership(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")

	assignee := "dev1"
	if _, err := f.svc.Create(context.Background(), principalFor("pm", domain.RoleProjectManager), CreateTaskInput{
		Title:        "Build it",
		ProjectID:    "p1",
		AssignedToID: &assignee,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	members, _ := f.members.ListByProject(context.Background(), "p1")
	if len(members) != 1 || members[0].UserID != "dev1" {
		t.Fatalf("expected dev1 recorded as member, got %+v", members)
	}
}

func TestMembershipSyncIsIdempotent(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")
	pm := principalFor("pm", domain.RoleProjectManager)

	assignee := "dev1"
	task, err := f.svc.Create(context.Background(), pm, CreateTaskInput{
		Title:        "Build it",
		ProjectID:    "p1",
		AssignedToID: &assignee,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Re-assigning the same user repeatedly never duplicates the row.
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Update(context.Background(), pm, task.ID, domain.TaskUpdate{
			AssignedToID: domain.Set("dev1"),
		}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	members, _ := f.members.ListByProject(context.Background(), "p1")
	if len(members) != 1 {
		t.Fatalf("expected 1 membership row, got %d", len(members))
	}
}

func TestMembershipSyncFailureDoesNotFailWrite(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")
	f.members.failN = 10 // outlast the retry budget

	assignee := "dev1"
	task, err := f.svc.Create(context.Background(), principalFor("pm", domain.RoleProjectManager), CreateTaskInput{
		Title:        "Build it",
		ProjectID:    "p1",
		AssignedToID: &assignee,
	})
	if err != nil {
		t.Fatalf("task write must survive sync failure: %v", err)
	}
	if _, err := f.tasks.GetByID(context.Background(), task.ID); err != nil {
		t.Fatalf("task should be persisted: %v", err)
	}
}

func TestListScopesByRole(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")
	f.seedProject(t, "p2", "otherpm")
	f.seedTask(t, "t1", "p1", "dev1")
	f.seedTask(t, "t2", "p2", "dev1")
	f.seedTask(t, "t3", "p2", "dev2")

	ctx := context.Background()

	// Developer: only own assignments, across projects.
	got, err := f.svc.List(ctx, principalFor("dev1", domain.RoleDeveloper), domain.TaskFilter{})
	if err != nil {
		t.Fatalf("developer list failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("developer expected 2 tasks, got %d", len(got))
	}

	// PM: managed projects plus own assignments.
	got, err = f.svc.List(ctx, principalFor("pm", domain.RoleProjectManager), domain.TaskFilter{})
	if err != nil {
		t.Fatalf("pm list failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("pm expected only t1, got %+v", got)
	}

	// Admin: everything.
	got, err = f.svc.List(ctx, principalFor("root", domain.RoleAdmin), domain.TaskFilter{})
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("admin expected 3 tasks, got %d", len(got))
	}

	// Staff: no task access at all.
	if _, err := f.svc.List(ctx, principalFor("staff", domain.RoleStaff), domain.TaskFilter{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for staff, got %v", err)
	}
}

func TestListFiltersCannotWidenScope(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")
	f.seedTask(t, "t1", "p1", "dev1")
	f.seedTask(t, "t2", "p1", "dev2")

	// dev1 asking for dev2's tasks gets the intersection: nothing.
	got, err := f.svc.List(context.Background(), principalFor("dev1", domain.RoleDeveloper), domain.TaskFilter{AssigneeID: "dev2"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("filter must not widen scope, got %d tasks", len(got))
	}
}

func TestUpdateHonorsOwnerFieldSet(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")
	f.seedTask(t, "t1", "p1", "dev1")

	dev := principalFor("dev1", domain.RoleDeveloper)

	// The assignee may move status and hours; title and reassignment in
	// the same payload are silently ignored.
	updated, err := f.svc.Update(context.Background(), dev, "t1", domain.TaskUpdate{
		Status:       domain.Set(domain.TaskInProgress),
		LoggedHours:  domain.Set(2.5),
		Title:        domain.Set("Hijacked"),
		AssignedToID: domain.Set("dev2"),
	})
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Status != domain.TaskInProgress {
		t.Errorf("status not applied, got %s", updated.Status)
	}
	if updated.LoggedHours == nil || *updated.LoggedHours != 2.5 {
		t.Errorf("loggedHours not applied, got %v", updated.LoggedHours)
	}
	if updated.Title != "Task t1" {
		t.Errorf("owner must not change title, got %q", updated.Title)
	}
	if updated.AssignedToID == nil || *updated.AssignedToID != "dev1" {
		t.Errorf("owner must not reassign, got %v", updated.AssignedToID)
	}
}

func TestUpdateRejectsNonOwnerNonManager(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")
	f.seedTask(t, "t1", "p1", "dev1")

	_, err := f.svc.Update(context.Background(), principalFor("dev2", domain.RoleDeveloper), "t1", domain.TaskUpdate{
		Status: domain.Set(domain.TaskDone),
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateManagerCanUnassign(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")
	f.seedTask(t, "t1", "p1", "dev1")
	pm := principalFor("pm", domain.RoleProjectManager)

	// Empty string unassigns.
	updated, err := f.svc.Update(context.Background(), pm, "t1", domain.TaskUpdate{
		AssignedToID: domain.Set(""),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.AssignedToID != nil {
		t.Fatalf("expected unassigned task, got %v", *updated.AssignedToID)
	}

	// Explicit null does too.
	f.seedTask(t, "t2", "p1", "dev1")
	updated, err = f.svc.Update(context.Background(), pm, "t2", domain.TaskUpdate{
		AssignedToID: domain.Cleared[string](),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.AssignedToID != nil {
		t.Fatalf("expected unassigned task, got %v", *updated.AssignedToID)
	}
}

func TestUpdateValidatesEnums(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")
	f.seedTask(t, "t1", "p1", "dev1")

	_, err := f.svc.Update(context.Background(), principalFor("pm", domain.RoleProjectManager), "t1", domain.TaskUpdate{
		Status: domain.Set(domain.TaskStatus("SHIPPED")),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteTaskRules(t *testing.T) {
	f := newTaskFixture()
	f.seedProject(t, "p1", "pm")
	f.seedTask(t, "t1", "p1", "dev1")

	ctx := context.Background()

	// Missing task reported before permissions of non-managers.
	if err := f.svc.Delete(ctx, principalFor("dev1", domain.RoleDeveloper), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.svc.Delete(ctx, principalFor("dev1", domain.RoleDeveloper), "t1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for assignee delete, got %v", err)
	}
	if err := f.svc.Delete(ctx, principalFor("pm", domain.RoleProjectManager), "t1"); err != nil {
		t.Fatalf("manager delete failed: %v", err)
	}
}

package service

import (
	"context"
	"testing"

	"github.com/yourorg/orchestrate/internal/domain"
)

type workloadFixture struct {
	svc      *WorkloadService
	users    *memUserRepo
	tasks    *memTaskRepo
	projects *memProjectRepo
}

func newWorkloadFixture() *workloadFixture {
	users := newMemUserRepo()
	tasks := newMemTaskRepo()
	users.tasks = tasks
	projects := newMemProjectRepo()
	return &workloadFixture{
		svc:      NewWorkloadService(users, tasks, projects, nil),
		users:    users,
		tasks:    tasks,
		projects: projects,
	}
}

func (f *workloadFixture) seedDeveloper(t *testing.T, id string) {
	t.Helper()
	err := f.users.Create(context.Background(), &domain.User{
		ID:     id,
		Name:   id,
		Email:  id + "@example.com",
		Role:   domain.RoleDeveloper,
		Status: domain.UserActive,
	})
	if err != nil {
		t.Fatalf("seed developer: %v", err)
	}
}

// seedLoad gives a developer n active tasks and one DONE task, each with
// the supplied estimated hours (nil entries mean no estimate).
func (f *workloadFixture) seedLoad(t *testing.T, assignee string, n int, hours *float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := assignee + "-task-" + string(rune('a'+i))
		task := &domain.Task{
			ID:             id,
			Title:          id,
			Status:         domain.TaskInProgress,
			Priority:       domain.PriorityMedium,
			EstimatedHours: hours,
			ActualHours:    hours,
			ProjectID:      "p1",
			AssignedToID:   &assignee,
			CreatedByID:    "pm",
		}
		if err := f.tasks.Create(context.Background(), task); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
	done := &domain.Task{
		ID:           assignee + "-done",
		Title:        "done",
		Status:       domain.TaskDone,
		Priority:     domain.PriorityMedium,
		ProjectID:    "p1",
		AssignedToID: &assignee,
		CreatedByID:  "pm",
	}
	if err := f.tasks.Create(context.Background(), done); err != nil {
		t.Fatalf("seed done task: %v", err)
	}
}

func workloadFor(t *testing.T, list []DeveloperWorkload, userID string) DeveloperWorkload {
	t.Helper()
	for _, w := range list {
		if w.User.ID == userID {
			return w
		}
	}
	t.Fatalf("no workload entry for %s", userID)
	return DeveloperWorkload{}
}

func TestWorkloadIntensityBands(t *testing.T) {
	f := newWorkloadFixture()
	hours := 4.0
	f.seedDeveloper(t, "calm")
	f.seedLoad(t, "calm", 3, &hours)
	f.seedDeveloper(t, "busy")
	f.seedLoad(t, "busy", 4, &hours)
	f.seedDeveloper(t, "swamped")
	f.seedLoad(t, "swamped", 7, &hours)

	list, err := f.svc.List(context.Background(), principalFor("root", domain.RoleAdmin))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	cases := []struct {
		id        string
		count     int
		intensity string
	}{
		{"calm", 3, IntensityGreen},
		{"busy", 4, IntensityYellow},
		{"swamped", 7, IntensityRed},
	}
	for _, tc := range cases {
		w := workloadFor(t, list, tc.id)
		if w.ActiveTasks != tc.count {
			t.Errorf("%s: expected %d active tasks, got %d (DONE must not count)", tc.id, tc.count, w.ActiveTasks)
		}
		if w.Intensity != tc.intensity {
			t.Errorf("%s: expected %s, got %s", tc.id, tc.intensity, w.Intensity)
		}
		if want := hours * float64(tc.count); w.EstimatedHours != want {
			t.Errorf("%s: expected %.1f estimated hours, got %.1f", tc.id, want, w.EstimatedHours)
		}
		if want := hours * float64(tc.count); w.ActualHours != want {
			t.Errorf("%s: expected %.1f actual hours, got %.1f", tc.id, want, w.ActualHours)
		}
	}
}

func TestWorkloadIncludesIdleDevelopers(t *testing.T) {
	f := newWorkloadFixture()
	f.seedDeveloper(t, "idle")

	list, err := f.svc.List(context.Background(), principalFor("root", domain.RoleAdmin))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	w := workloadFor(t, list, "idle")
	if w.ActiveTasks != 0 || w.EstimatedHours != 0 {
		t.Fatalf("idle developer should report zeros, got %+v", w)
	}
	if w.Intensity != IntensityGreen {
		t.Fatalf("idle developer should be GREEN, got %s", w.Intensity)
	}
}

func TestWorkloadMissingEstimatesCountAsZero(t *testing.T) {
	f := newWorkloadFixture()
	f.seedDeveloper(t, "dev1")
	f.seedLoad(t, "dev1", 2, nil)

	list, err := f.svc.List(context.Background(), principalFor("root", domain.RoleAdmin))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	w := workloadFor(t, list, "dev1")
	if w.ActiveTasks != 2 {
		t.Errorf("expected 2 active tasks, got %d", w.ActiveTasks)
	}
	if w.EstimatedHours != 0 {
		t.Errorf("missing estimates should sum to 0, got %.1f", w.EstimatedHours)
	}
}

func TestWorkloadPMSeesOnlyManagedProjectDevelopers(t *testing.T) {
	f := newWorkloadFixture()
	pmID := "pm"
	if err := f.projects.Create(context.Background(), &domain.Project{ID: "p1", Name: "p1", Status: domain.ProjectActive, PMID: &pmID}); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	if err := f.projects.Create(context.Background(), &domain.Project{ID: "p2", Name: "p2", Status: domain.ProjectActive}); err != nil {
		t.Fatalf("seed project: %v", err)
	}

	f.seedDeveloper(t, "inside")
	f.seedDeveloper(t, "outside")
	for dev, project := range map[string]string{"inside": "p1", "outside": "p2"} {
		assignee := dev
		if err := f.tasks.Create(context.Background(), &domain.Task{
			ID:           dev + "-task",
			Title:        dev,
			Status:       domain.TaskInProgress,
			Priority:     domain.PriorityMedium,
			ProjectID:    project,
			AssignedToID: &assignee,
			CreatedByID:  "pm",
		}); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}

	list, err := f.svc.List(context.Background(), principalFor("pm", domain.RoleProjectManager))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].User.ID != "inside" {
		t.Fatalf("pm should see only developers working in managed projects, got %+v", list)
	}
}

func TestWorkloadPMWithNoProjectsSeesNobody(t *testing.T) {
	f := newWorkloadFixture()
	f.seedDeveloper(t, "dev1")
	f.seedLoad(t, "dev1", 2, nil)

	list, err := f.svc.List(context.Background(), principalFor("pm", domain.RoleProjectManager))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("pm without managed projects should see nobody, got %+v", list)
	}
}

func TestWorkloadDeveloperSeesOnlySelf(t *testing.T) {
	f := newWorkloadFixture()
	f.seedDeveloper(t, "dev1")
	f.seedDeveloper(t, "dev2")

	list, err := f.svc.List(context.Background(), principalFor("dev1", domain.RoleDeveloper))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].User.ID != "dev1" {
		t.Fatalf("developer should see only themselves, got %+v", list)
	}
}

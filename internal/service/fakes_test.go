package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/yourorg/orchestrate/internal/domain"
)

// In-memory repository fakes shared by the service tests. The booking
// fake reimplements the transactional conflict check so the overlap
// rules can be exercised without Postgres.

type memUserRepo struct {
	byID map[string]*domain.User

	// tasks backs the project restriction in ListDevelopers; nil when a
	// test never exercises that path.
	tasks *memTaskRepo
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return domain.Conflictf("User already exists")
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.NotFoundf("User not found")
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.NotFoundf("User not found")
}

func (m *memUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range m.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUserRepo) ListDevelopers(ctx context.Context, projectIDs []string) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range m.byID {
		if u.Role != domain.RoleDeveloper {
			continue
		}
		// A nil slice means unrestricted; a non-nil slice (including an
		// empty one) keeps only developers with a task in those projects.
		if projectIDs != nil && !m.hasTaskIn(u.ID, projectIDs) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUserRepo) hasTaskIn(userID string, projectIDs []string) bool {
	if m.tasks == nil {
		return false
	}
	for _, t := range m.tasks.tasks {
		if !t.IsAssignedTo(userID) {
			continue
		}
		for _, id := range projectIDs {
			if t.ProjectID == id {
				return true
			}
		}
	}
	return false
}

func (m *memUserRepo) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFoundf("User not found")
	}
	u.Status = status
	u.UpdatedAt = time.Now()
	return u, nil
}

func (m *memUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return domain.NotFoundf("User not found")
	}
	delete(m.byID, id)
	return nil
}

type memRoomRepo struct {
	rooms map[string]*domain.Room
}

func newMemRoomRepo(rooms ...*domain.Room) *memRoomRepo {
	m := &memRoomRepo{rooms: map[string]*domain.Room{}}
	for _, r := range rooms {
		m.rooms[r.ID] = r
	}
	return m
}

func (m *memRoomRepo) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	return nil, domain.NotFoundf("Room not found")
}

func (m *memRoomRepo) List(ctx context.Context) ([]*domain.Room, error) {
	out := []*domain.Room{}
	for _, r := range m.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memBookingRepo struct {
	rooms    *memRoomRepo
	bookings map[string]*domain.Booking
}

func newMemBookingRepo(rooms *memRoomRepo) *memBookingRepo {
	return &memBookingRepo{rooms: rooms, bookings: map[string]*domain.Booking{}}
}

func (m *memBookingRepo) overlaps(roomID string, start, end time.Time, excludeID string) bool {
	for _, b := range m.bookings {
		if b.RoomID != roomID || b.ID == excludeID || b.Status != domain.BookingConfirmed {
			continue
		}
		if domain.Overlaps(start, end, b.StartTime, b.EndTime) {
			return true
		}
	}
	return false
}

func (m *memBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	if _, err := m.rooms.GetByID(ctx, b.RoomID); err != nil {
		return err
	}
	if m.overlaps(b.RoomID, b.StartTime, b.EndTime, "") {
		return domain.Conflictf("Room is already booked for this time slot")
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.bookings[b.ID] = b
	return nil
}

func (m *memBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, domain.NotFoundf("Booking not found")
}

func (m *memBookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	if _, ok := m.bookings[b.ID]; !ok {
		return domain.NotFoundf("Booking not found")
	}
	if m.overlaps(b.RoomID, b.StartTime, b.EndTime, b.ID) {
		return domain.Conflictf("Room is already booked for this time slot")
	}
	b.UpdatedAt = time.Now()
	m.bookings[b.ID] = b
	return nil
}

func (m *memBookingRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.bookings[id]; !ok {
		return domain.NotFoundf("Booking not found")
	}
	delete(m.bookings, id)
	return nil
}

func (m *memBookingRepo) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	out := []*domain.Booking{}
	for _, b := range m.bookings {
		if filter.Day != nil {
			dayStart := filter.Day.Truncate(24 * time.Hour)
			dayEnd := dayStart.Add(24 * time.Hour)
			if b.StartTime.Before(dayStart) || !b.StartTime.Before(dayEnd) {
				continue
			}
		}
		copied := *b
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memBookingRepo) HasConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error) {
	return m.overlaps(roomID, start, end, excludeID), nil
}

func (m *memBookingRepo) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, b := range m.bookings {
		if b.EndTime.Before(cutoff) {
			delete(m.bookings, id)
			n++
		}
	}
	return n, nil
}

type memProjectRepo struct {
	projects map[string]*domain.Project
}

func newMemProjectRepo() *memProjectRepo {
	return &memProjectRepo{projects: map[string]*domain.Project{}}
}

func (m *memProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = p
	return nil
}

func (m *memProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, domain.NotFoundf("Project not found")
}

func (m *memProjectRepo) List(ctx context.Context) ([]*domain.ProjectInfo, error) {
	out := []*domain.ProjectInfo{}
	for _, p := range m.projects {
		out = append(out, &domain.ProjectInfo{Project: *p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProjectRepo) ListManagedIDs(ctx context.Context, pmID string) ([]string, error) {
	out := []string{}
	for _, p := range m.projects {
		if p.PMID != nil && *p.PMID == pmID {
			out = append(out, p.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memberKey struct {
	projectID string
	userID    string
}

type memMemberRepo struct {
	members map[memberKey]*domain.ProjectMember
	upserts int
	failN   int // fail the next N upserts
}

func newMemMemberRepo() *memMemberRepo {
	return &memMemberRepo{members: map[memberKey]*domain.ProjectMember{}}
}

func (m *memMemberRepo) Upsert(ctx context.Context, projectID, userID string, role domain.Role) error {
	m.upserts++
	if m.failN > 0 {
		m.failN--
		return domain.Validationf("simulated failure")
	}
	key := memberKey{projectID, userID}
	if _, ok := m.members[key]; ok {
		return nil
	}
	m.members[key] = &domain.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *memMemberRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.ProjectMember, error) {
	out := []*domain.ProjectMember{}
	for _, mem := range m.members {
		if mem.ProjectID == projectID {
			out = append(out, mem)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type memTaskRepo struct {
	tasks map[string]*domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: map[string]*domain.Task{}}
}

func (m *memTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.tasks[t.ID] = t
	return nil
}

func (m *memTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if t, ok := m.tasks[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, domain.NotFoundf("Task not found")
}

func (m *memTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	if _, ok := m.tasks[t.ID]; !ok {
		return domain.NotFoundf("Task not found")
	}
	t.UpdatedAt = time.Now()
	m.tasks[t.ID] = t
	return nil
}

func (m *memTaskRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return domain.NotFoundf("Task not found")
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTaskRepo) List(ctx context.Context, scope domain.TaskScope, filter domain.TaskFilter) ([]*domain.Task, error) {
	out := []*domain.Task{}
	for _, t := range m.tasks {
		if !scope.Contains(t) {
			continue
		}
		if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
			continue
		}
		if filter.AssigneeID != "" && !t.IsAssignedTo(filter.AssigneeID) {
			continue
		}
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		if filter.Priority != "" && string(t.Priority) != filter.Priority {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			desc := ""
			if t.Description != nil {
				desc = *t.Description
			}
			if !strings.Contains(strings.ToLower(t.Title), needle) &&
				!strings.Contains(strings.ToLower(desc), needle) {
				continue
			}
		}
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTaskRepo) ListActiveByAssignees(ctx context.Context, assigneeIDs []string) ([]*domain.Task, error) {
	ids := map[string]bool{}
	for _, id := range assigneeIDs {
		ids[id] = true
	}
	out := []*domain.Task{}
	for _, t := range m.tasks {
		if !t.Active() || t.AssignedToID == nil || !ids[*t.AssignedToID] {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

package handler

import (
	"time"

	"github.com/yourorg/orchestrate/internal/domain"
)

// View types are the JSON shapes the API exposes. Domain entities carry
// internal-only fields (password hashes, status plumbing), so handlers
// always project through these instead of serializing domain structs.

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserView(u *domain.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

func newUserViews(users []*domain.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, newUserView(u))
	}
	return out
}

type roomView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	Equipment string `json:"equipment,omitempty"`
	Location  string `json:"location,omitempty"`
}

func newRoomViews(rooms []*domain.Room) []roomView {
	out := make([]roomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomView{
			ID:        r.ID,
			Name:      r.Name,
			Capacity:  r.Capacity,
			Equipment: r.Equipment,
			Location:  r.Location,
		})
	}
	return out
}

type bookingView struct {
	ID          string          `json:"id"`
	RoomID      string          `json:"roomId"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     time.Time       `json:"endTime"`
	Title       string          `json:"title"`
	UserID      *string         `json:"userId"`
	GuestName   *string         `json:"guestName,omitempty"`
	GuestEmail  *string         `json:"guestEmail,omitempty"`
	IsExternal  bool            `json:"isExternal"`
	Description *string         `json:"description,omitempty"`
	Attendees   *string         `json:"attendees,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	User        *domain.UserRef `json:"user"`
}

func newBookingView(b *domain.Booking) bookingView {
	return bookingView{
		ID:          b.ID,
		RoomID:      b.RoomID,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Title:       b.Title,
		UserID:      b.UserID,
		GuestName:   b.GuestName,
		GuestEmail:  b.GuestEmail,
		IsExternal:  b.IsExternal,
		Description: b.Description,
		Attendees:   b.Attendees,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		User:        b.Booker,
	}
}

func newBookingViews(bookings []*domain.Booking) []bookingView {
	out := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, newBookingView(b))
	}
	return out
}

type taskView struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Description    *string            `json:"description"`
	Status         string             `json:"status"`
	Priority       string             `json:"priority"`
	EstimatedHours *float64           `json:"estimatedHours"`
	ActualHours    *float64           `json:"actualHours"`
	LoggedHours    *float64           `json:"loggedHours"`
	DueDate        *time.Time         `json:"dueDate"`
	ProjectID      string             `json:"projectId"`
	AssignedToID   *string            `json:"assignedToId"`
	CreatedByID    string             `json:"createdById"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	Project        *domain.ProjectRef `json:"project,omitempty"`
	AssignedTo     *domain.UserRef    `json:"assignedTo"`
	CreatedBy      *domain.UserRef    `json:"createdBy,omitempty"`
}

func newTaskView(t *domain.Task) taskView {
	return taskView{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		LoggedHours:    t.LoggedHours,
		DueDate:        t.DueDate,
		ProjectID:      t.ProjectID,
		AssignedToID:   t.AssignedToID,
		CreatedByID:    t.CreatedByID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		Project:        t.Project,
		AssignedTo:     t.AssignedTo,
		CreatedBy:      t.CreatedBy,
	}
}

func newTaskViews(tasks []*domain.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskView(t))
	}
	return out
}

type memberView struct {
	ProjectID string          `json:"projectId"`
	UserID    string          `json:"userId"`
	Role      string          `json:"role"`
	User      *domain.UserRef `json:"user,omitempty"`
}

func newMemberViews(members []*domain.ProjectMember) []memberView {
	out := make([]memberView, 0, len(members))
	for _, m := range members {
		out = append(out, memberView{
			ProjectID: m.ProjectID,
			UserID:    m.UserID,
			Role:      string(m.Role),
			User:      m.User,
		})
	}
	return out
}

type projectView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Deadline    *time.Time      `json:"deadline"`
	PMID        *string         `json:"pmId"`
	CreatedAt   time.Time       `json:"createdAt"`
	TaskCount   int             `json:"taskCount"`
	MemberCount int             `json:"memberCount"`
	PM          *domain.UserRef `json:"pm"`
	Members     []memberView    `json:"members"`
}

func newProjectViews(projects []*domain.ProjectInfo) []projectView {
	out := make([]projectView, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Status:      string(p.Status),
			Deadline:    p.Deadline,
			PMID:        p.PMID,
			CreatedAt:   p.CreatedAt,
			TaskCount:   p.TaskCount,
			MemberCount: p.MemberCount,
			PM:          p.PM,
			Members:     newMemberViews(p.Members),
		})
	}
	return out
}

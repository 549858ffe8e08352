package service

import (
	"time"

	"github.com/yourorg/orchestrate/internal/domain"
)

// maskedTitle replaces foreign booking titles for STAFF viewers.
const maskedTitle = "Booked"

// PublicBooking is the public-safe projection of a booking: who-ish and
// when, never email addresses, descriptions, or attendee lists.
type PublicBooking struct {
	ID         string               `json:"id"`
	RoomID     string               `json:"roomId"`
	StartTime  time.Time            `json:"startTime"`
	EndTime    time.Time            `json:"endTime"`
	Title      string               `json:"title"`
	Status     domain.BookingStatus `json:"status"`
	GuestName  *string              `json:"guestName"`
	BookerName *string              `json:"bookerName"`
}

// PublicProjection reduces bookings to the public-safe shape. Pure and
// order-preserving.
func PublicProjection(bookings []*domain.Booking) []PublicBooking {
	out := make([]PublicBooking, 0, len(bookings))
	for _, b := range bookings {
		pb := PublicBooking{
			ID:        b.ID,
			RoomID:    b.RoomID,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Title:     b.Title,
			Status:    b.Status,
			GuestName: b.GuestName,
		}
		if b.Booker != nil {
			name := b.Booker.Name
			pb.BookerName = &name
		}
		out = append(out, pb)
	}
	return out
}

// MaskForViewer applies the role-appropriate view to a booking list.
// A nil viewer or a PUBLIC-role account gets the public-safe detail
// level on every booking: no emails, descriptions, attendee lists, or
// booking ownership. STAFF viewers see foreign bookings as opaque
// "Booked" slots with identity and detail fields removed; their own
// bookings pass through unmasked, as does everything for the remaining
// authenticated roles. Pure and order-preserving; the input is never
// mutated.
func MaskForViewer(bookings []*domain.Booking, viewer *domain.Principal) []*domain.Booking {
	if viewer == nil || viewer.Role == domain.RolePublic {
		out := make([]*domain.Booking, 0, len(bookings))
		for _, b := range bookings {
			masked := *b
			masked.UserID = nil
			masked.GuestEmail = nil
			masked.Description = nil
			masked.Attendees = nil
			if b.Booker != nil {
				masked.Booker = &domain.UserRef{Name: b.Booker.Name}
			}
			out = append(out, &masked)
		}
		return out
	}
	if viewer.Role != domain.RoleStaff {
		return bookings
	}

	out := make([]*domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.OwnedBy(viewer.UserID) {
			out = append(out, b)
			continue
		}
		masked := *b
		masked.Title = maskedTitle
		masked.Booker = nil
		masked.GuestName = nil
		masked.GuestEmail = nil
		masked.Description = nil
		masked.Attendees = nil
		out = append(out, &masked)
	}
	return out
}

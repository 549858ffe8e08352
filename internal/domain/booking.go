package domain

import (
	"context"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Room is immutable reference data; rooms are created out-of-band
// (seed CLI or migrations), never through the API.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Equipment string
	Location  string
}

// Booking reserves a room for the half-open interval [StartTime, EndTime).
// Exactly one of UserID (internal booker) or GuestName/GuestEmail
// (external booker) is populated, selected by IsExternal.
type Booking struct {
	ID          string
	RoomID      string
	StartTime   time.Time
	EndTime     time.Time
	Title       string
	UserID      *string
	GuestName   *string
	GuestEmail  *string
	IsExternal  bool
	Description *string
	Attendees   *string
	Status      BookingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Booker is the related user identity, populated on reads.
	Booker *UserRef
}

// OwnedBy reports whether the booking belongs to the given user.
func (b *Booking) OwnedBy(userID string) bool {
	return b.UserID != nil && *b.UserID == userID
}

// Overlaps implements the half-open interval overlap test: [aStart,aEnd)
// intersects [bStart,bEnd) iff aStart < bEnd && aEnd > bStart. Touching
// boundaries are not overlaps.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// BookingFilter narrows booking queries. Day restricts results to
// bookings starting within that calendar day.
type BookingFilter struct {
	Day *time.Time
}

// BookingRepository defines data access for bookings. Create and Update
// are conflict-checked: they run the overlap test and the write in a
// single database transaction holding a per-room lock, and return
// ErrConflict when the interval collides with an existing booking.
type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	Update(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter BookingFilter) ([]*Booking, error)
	// HasConflict reports whether any booking in the room overlaps
	// [start, end), excluding excludeID when non-empty. Callers must
	// enforce start < end before invoking.
	HasConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error)
	// DeleteEndedBefore purges bookings whose end time predates cutoff.
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RoomRepository defines read access to rooms.
type RoomRepository interface {
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context) ([]*Room, error)
}

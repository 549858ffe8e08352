package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/events"
	"github.com/yourorg/orchestrate/internal/observability/metrics"
	"github.com/yourorg/orchestrate/internal/reliability/circuitbreaker"
	"github.com/yourorg/orchestrate/internal/security"
	"github.com/yourorg/orchestrate/pkg/cache"
)

// roomLockTTL bounds how long a distributed room lock can outlive a
// crashed holder.
const roomLockTTL = 5 * time.Second

const roomsCacheKey = "rooms"

// RoomLocker serializes booking writers per room across server instances.
// Implemented by the redis client; nil disables distributed locking and
// the database transaction alone guards against double-booking.
type RoomLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// BookingService owns booking creation, visibility, and mutation rules.
type BookingService struct {
	bookings domain.BookingRepository
	rooms    domain.RoomRepository
	locker   RoomLocker
	breaker  *circuitbreaker.CircuitBreaker
	hub      *events.Hub
	roomList *cache.Cache
	logger   *slog.Logger
}

// NewBookingService creates a new booking service. locker and hub may be
// nil when the deployment runs without redis or the live board feed.
func NewBookingService(
	bookings domain.BookingRepository,
	rooms domain.RoomRepository,
	locker RoomLocker,
	hub *events.Hub,
	logger *slog.Logger,
) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := circuitbreaker.NewCircuitBreaker(3, 2, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("room lock breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &BookingService{
		bookings: bookings,
		rooms:    rooms,
		locker:   locker,
		breaker:  breaker,
		hub:      hub,
		roomList: cache.New(),
		logger:   logger,
	}
}

// CreateBookingInput carries a booking request. Guest bookings set
// IsExternal with GuestName/GuestEmail; internal bookings are attributed
// to the principal.
type CreateBookingInput struct {
	RoomID      string
	StartTime   time.Time
	EndTime     time.Time
	Title       string
	Description *string
	Attendees   *string
	GuestName   string
	GuestEmail  string
	IsExternal  bool
}

// UpdateBookingInput carries a partial booking update; absent fields
// retain their previous values.
type UpdateBookingInput struct {
	Title       domain.Field[string]    `json:"title"`
	Description domain.Field[string]    `json:"description"`
	Attendees   domain.Field[string]    `json:"attendees"`
	StartTime   domain.Field[time.Time] `json:"startTime"`
	EndTime     domain.Field[time.Time] `json:"endTime"`
	RoomID      domain.Field[string]    `json:"roomId"`
}

// Create validates and stores a new booking. The interval must satisfy
// start < end before the overlap check runs; the conflict test itself is
// performed inside the repository transaction.
func (s *BookingService) Create(ctx context.Context, principal *domain.Principal, in CreateBookingInput) (*domain.Booking, error) {
	if in.RoomID == "" {
		return nil, domain.Validationf("roomId is required")
	}
	if in.Title == "" {
		return nil, domain.Validationf("title is required")
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return nil, domain.Validationf("startTime and endTime are required")
	}
	if !in.StartTime.Before(in.EndTime) {
		return nil, domain.Validationf("End time must be after start time")
	}

	booking := &domain.Booking{
		ID:          uuid.NewString(),
		RoomID:      in.RoomID,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Title:       in.Title,
		IsExternal:  in.IsExternal,
		Description: in.Description,
		Attendees:   in.Attendees,
		Status:      domain.BookingConfirmed,
	}

	if in.IsExternal {
		if in.GuestName == "" {
			return nil, domain.Validationf("guestName is required for guest bookings")
		}
		guestName := in.GuestName
		booking.GuestName = &guestName
		if in.GuestEmail != "" {
			guestEmail := in.GuestEmail
			booking.GuestEmail = &guestEmail
		}
	} else {
		if principal == nil {
			return nil, domain.Unauthorizedf("authentication required for internal bookings")
		}
		userID := principal.UserID
		booking.UserID = &userID
		booking.Booker = &domain.UserRef{ID: principal.UserID, Name: principal.Name, Email: principal.Email}
	}

	unlock, err := s.lockRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.ObserveBookingConflict()
		}
		return nil, err
	}

	metrics.ObserveBookingCreated(in.IsExternal)
	s.publish(events.BookingCreated, booking)
	return booking, nil
}

// List returns the role-appropriate view of bookings for an
// authenticated viewer.
func (s *BookingService) List(ctx context.Context, viewer *domain.Principal, day *time.Time) ([]*domain.Booking, error) {
	bookings, err := s.bookings.List(ctx, domain.BookingFilter{Day: day})
	if err != nil {
		return nil, err
	}
	return MaskForViewer(bookings, viewer), nil
}

// ListPublic returns the public-safe projection.
func (s *BookingService) ListPublic(ctx context.Context, day *time.Time) ([]PublicBooking, error) {
	bookings, err := s.bookings.List(ctx, domain.BookingFilter{Day: day})
	if err != nil {
		return nil, err
	}
	return PublicProjection(bookings), nil
}

// Update applies a partial update to a booking. Only the owner or a
// manager-tier role may mutate it; a changed interval or room re-runs
// the conflict check excluding the booking itself.
func (s *BookingService) Update(ctx context.Context, principal *domain.Principal, id string, in UpdateBookingInput) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !booking.OwnedBy(principal.UserID) && !security.HasPermission(principal.Role, security.PermManageBookings) {
		return nil, domain.Forbiddenf("Forbidden")
	}

	if title, ok := in.Title.Value(); ok {
		booking.Title = title
	} else if in.Title.Null() {
		return nil, domain.Validationf("title cannot be empty")
	}
	if in.Description.Present() {
		if desc, ok := in.Description.Value(); ok {
			booking.Description = &desc
		} else {
			booking.Description = nil
		}
	}
	if in.Attendees.Present() {
		if att, ok := in.Attendees.Value(); ok {
			booking.Attendees = &att
		} else {
			booking.Attendees = nil
		}
	}
	if start, ok := in.StartTime.Value(); ok {
		booking.StartTime = start
	}
	if end, ok := in.EndTime.Value(); ok {
		booking.EndTime = end
	}
	if roomID, ok := in.RoomID.Value(); ok {
		booking.RoomID = roomID
	}

	if !booking.StartTime.Before(booking.EndTime) {
		return nil, domain.Validationf("End time must be after start time")
	}

	unlock, err := s.lockRoom(ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.bookings.Update(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.ObserveBookingConflict()
		}
		return nil, err
	}

	s.publish(events.BookingUpdated, booking)
	return booking, nil
}

// Delete cancels a booking. Only the owner or a manager-tier role may
// delete it.
func (s *BookingService) Delete(ctx context.Context, principal *domain.Principal, id string) error {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !booking.OwnedBy(principal.UserID) && !security.HasPermission(principal.Role, security.PermManageBookings) {
		return domain.Forbiddenf("Forbidden")
	}

	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(events.BookingDeleted, booking)
	return nil
}

// ListRooms returns the room catalog. Rooms are immutable reference
// data, so a short-lived cache is safe.
func (s *BookingService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	if cached, ok := s.roomList.Get(roomsCacheKey); ok {
		return cached.([]*domain.Room), nil
	}

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	s.roomList.Set(roomsCacheKey, rooms, 5*time.Minute)
	return rooms, nil
}

// lockRoom takes the distributed per-room lock when redis is available.
// Lock failures trip the circuit breaker and degrade to the database
// transaction alone; they never reject the booking.
func (s *BookingService) lockRoom(ctx context.Context, roomID string) (func(), error) {
	noop := func() {}
	if s.locker == nil || !s.breaker.AllowRequest() {
		return noop, nil
	}

	key := "roomlock:" + roomID
	acquired, err := s.locker.AcquireLock(ctx, key, roomLockTTL)
	if err != nil {
		s.breaker.RecordFailure()
		s.logger.Warn("room lock unavailable, relying on transaction",
			slog.String("room_id", roomID),
			slog.String("error", err.Error()),
		)
		return noop, nil
	}
	s.breaker.RecordSuccess()

	if !acquired {
		// Another instance is writing this room right now.
		return nil, domain.Conflictf("Room is already booked for this time slot")
	}

	return func() {
		if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("failed to release room lock",
				slog.String("room_id", roomID),
				slog.String("error", err.Error()),
			)
		}
	}, nil
}

// publish sends a public-safe booking event to the live board feed.
func (s *BookingService) publish(t events.Type, booking *domain.Booking) {
	if s.hub == nil {
		return
	}
	projected := PublicProjection([]*domain.Booking{booking})
	s.hub.Publish(events.Event{Type: t, Payload: projected[0]})
}

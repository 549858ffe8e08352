package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/pkg/database"
)

// PostgresBookingRepository implements domain.BookingRepository using
// PostgreSQL. Writes are conflict-checked inside a transaction that holds
// a per-room row lock, so two concurrent requests for the same slot
// serialize; a btree_gist exclusion constraint on (room_id, tstzrange)
// backstops the check at the database level.
type PostgresBookingRepository struct {
	pool   *database.ConnectionPool
	logger *slog.Logger
}

// NewPostgresBookingRepository creates a new booking repository
func NewPostgresBookingRepository(pool *database.ConnectionPool, logger *slog.Logger) *PostgresBookingRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBookingRepository{
		pool:   pool,
		logger: logger,
	}
}

const bookingColumns = `
	b.id, b.room_id, b.start_time, b.end_time, b.title,
	b.user_id, b.guest_name, b.guest_email, b.is_external,
	b.description, b.attendees, b.status, b.created_at, b.updated_at,
	u.id, u.name, u.email
`

// Only confirmed bookings block a slot, matching the exclusion
// constraint's status scope in the schema.
const overlapQuery = `
	SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE room_id = $1 AND start_time < $3 AND end_time > $2
			AND id <> $4 AND status = 'confirmed'
	)
`

// Create inserts a booking after re-checking the half-open overlap test
// under a per-room row lock. Returns ErrConflict when the slot is taken.
func (r *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := lockRoom(tx, booking.RoomID); err != nil {
			return err
		}

		conflict, err := overlapExists(tx, booking.RoomID, booking.StartTime, booking.EndTime, "")
		if err != nil {
			return err
		}
		if conflict {
			return domain.Conflictf("Room is already booked for this time slot")
		}

		query := `
			INSERT INTO bookings (id, room_id, start_time, end_time, title,
				user_id, guest_name, guest_email, is_external, description, attendees, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at, updated_at
		`
		err = tx.QueryRow(query,
			booking.ID,
			booking.RoomID,
			booking.StartTime,
			booking.EndTime,
			booking.Title,
			booking.UserID,
			booking.GuestName,
			booking.GuestEmail,
			booking.IsExternal,
			booking.Description,
			booking.Attendees,
			booking.Status,
		).Scan(&booking.CreatedAt, &booking.UpdatedAt)
		if err != nil {
			if isConstraintConflict(err) {
				return domain.Conflictf("Room is already booked for this time slot")
			}
			r.logger.Error("failed to create booking",
				slog.String("room_id", booking.RoomID),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
}

// Update rewrites a booking, re-running the overlap check against every
// other booking in the target room.
func (r *PostgresBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := lockRoom(tx, booking.RoomID); err != nil {
			return err
		}

		conflict, err := overlapExists(tx, booking.RoomID, booking.StartTime, booking.EndTime, booking.ID)
		if err != nil {
			return err
		}
		if conflict {
			return domain.Conflictf("Room is already booked for this time slot")
		}

		query := `
			UPDATE bookings
			SET room_id = $1, start_time = $2, end_time = $3, title = $4,
				description = $5, attendees = $6, status = $7, updated_at = now()
			WHERE id = $8
			RETURNING updated_at
		`
		err = tx.QueryRow(query,
			booking.RoomID,
			booking.StartTime,
			booking.EndTime,
			booking.Title,
			booking.Description,
			booking.Attendees,
			booking.Status,
			booking.ID,
		).Scan(&booking.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFoundf("booking not found")
			}
			if isConstraintConflict(err) {
				return domain.Conflictf("Room is already booked for this time slot")
			}
			return fmt.Errorf("failed to update booking: %w", err)
		}
		return nil
	})
}

// lockRoom takes a row lock on the booking's room, serializing concurrent
// writers for that room. A missing room surfaces as not-found.
func lockRoom(tx *sql.Tx, roomID string) error {
	var id string
	err := tx.QueryRow(`SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundf("room not found")
		}
		return fmt.Errorf("failed to lock room: %w", err)
	}
	return nil
}

func overlapExists(tx *sql.Tx, roomID string, start, end time.Time, excludeID string) (bool, error) {
	var conflict bool
	if err := tx.QueryRow(overlapQuery, roomID, start, end, excludeID).Scan(&conflict); err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return conflict, nil
}

// HasConflict runs the overlap test outside a transaction. Callers must
// enforce start < end before invoking.
func (r *PostgresBookingRepository) HasConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error) {
	var conflict bool
	err := r.pool.GetDB().QueryRowContext(ctx, overlapQuery, roomID, start, end, excludeID).Scan(&conflict)
	if err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return conflict, nil
}

// GetByID retrieves a booking with its booker identity.
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		LEFT JOIN users u ON u.id = b.user_id
		WHERE b.id = $1
	`
	booking, err := scanBooking(r.pool.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("booking not found")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// List returns bookings ordered by start time, optionally restricted to
// one calendar day.
func (r *PostgresBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		LEFT JOIN users u ON u.id = b.user_id
	`
	args := []any{}
	if filter.Day != nil {
		dayStart := filter.Day.Truncate(24 * time.Hour)
		dayEnd := dayStart.Add(24 * time.Hour)
		query += ` WHERE b.start_time >= $1 AND b.start_time < $2`
		args = append(args, dayStart, dayEnd)
	}
	query += ` ORDER BY b.start_time ASC`

	rows, err := r.pool.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list bookings", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// Delete removes a booking.
func (r *PostgresBookingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.GetDB().ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundf("booking not found")
	}
	return nil
}

// DeleteEndedBefore purges bookings whose end time predates cutoff.
func (r *PostgresBookingRepository) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.GetDB().ExecContext(ctx, `DELETE FROM bookings WHERE end_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge bookings: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	booking := &domain.Booking{}
	var (
		userID, guestName, guestEmail sql.NullString
		description, attendees        sql.NullString
		bookerID, bookerName          sql.NullString
		bookerEmail                   sql.NullString
	)

	err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.StartTime,
		&booking.EndTime,
		&booking.Title,
		&userID,
		&guestName,
		&guestEmail,
		&booking.IsExternal,
		&description,
		&attendees,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&bookerID,
		&bookerName,
		&bookerEmail,
	)
	if err != nil {
		return nil, err
	}

	booking.UserID = nullableString(userID)
	booking.GuestName = nullableString(guestName)
	booking.GuestEmail = nullableString(guestEmail)
	booking.Description = nullableString(description)
	booking.Attendees = nullableString(attendees)
	if bookerID.Valid {
		booking.Booker = &domain.UserRef{
			ID:    bookerID.String,
			Name:  bookerName.String,
			Email: bookerEmail.String,
		}
	}
	return booking, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

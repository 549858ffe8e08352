package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/orchestrate/internal/domain"
)

// PostgresRoomRepository implements domain.RoomRepository using PostgreSQL.
// Rooms are reference data; the repository is read-only apart from the
// seed path.
type PostgresRoomRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRoomRepository creates a new room repository
func NewPostgresRoomRepository(db *sql.DB, logger *slog.Logger) *PostgresRoomRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRoomRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a room by ID
func (r *PostgresRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	room := &domain.Room{}

	query := `SELECT id, name, capacity, equipment, location FROM rooms WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&room.Equipment,
		&room.Location,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("room not found")
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// List returns all rooms ordered by name.
func (r *PostgresRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	query := `SELECT id, name, capacity, equipment, location FROM rooms ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list rooms", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*domain.Room
	for rows.Next() {
		room := &domain.Room{}
		if err := rows.Scan(&room.ID, &room.Name, &room.Capacity, &room.Equipment, &room.Location); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// Insert adds a room. Only the seed CLI uses this path; the API never
// mutates rooms.
func (r *PostgresRoomRepository) Insert(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (id, name, capacity, equipment, location)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, room.ID, room.Name, room.Capacity, room.Equipment, room.Location); err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}
	return nil
}

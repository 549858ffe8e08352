package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/yourorg/orchestrate/internal/domain"
)

// PostgresMemberRepository implements domain.ProjectMemberRepository
// using PostgreSQL.
type PostgresMemberRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresMemberRepository creates a new project member repository
func NewPostgresMemberRepository(db *sql.DB, logger *slog.Logger) *PostgresMemberRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMemberRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts a membership row if absent. An existing (project, user)
// row is left untouched, so a membership role is never downgraded by
// later syncs. Idempotent.
func (r *PostgresMemberRepository) Upsert(ctx context.Context, projectID, userID string, role domain.Role) error {
	query := `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, projectID, userID, role); err != nil {
		if isForeignKeyViolation(err) {
			return domain.Validationf("project or user does not exist")
		}
		r.logger.Error("failed to upsert project member",
			slog.String("project_id", projectID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to upsert project member: %w", err)
	}
	return nil
}

// ListByProject returns the membership rows of one project.
func (r *PostgresMemberRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.ProjectMember, error) {
	query := `
		SELECT m.project_id, m.user_id, m.role, m.created_at, u.name, u.email
		FROM project_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1
		ORDER BY m.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	var members []*domain.ProjectMember
	for rows.Next() {
		member := &domain.ProjectMember{}
		var name, email string
		if err := rows.Scan(&member.ProjectID, &member.UserID, &member.Role, &member.CreatedAt, &name, &email); err != nil {
			return nil, fmt.Errorf("failed to scan project member: %w", err)
		}
		member.User = &domain.UserRef{ID: member.UserID, Name: name, Email: email}
		members = append(members, member)
	}
	return members, rows.Err()
}

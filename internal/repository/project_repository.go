package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/orchestrate/internal/domain"
)

// PostgresProjectRepository implements domain.ProjectRepository using PostgreSQL
type PostgresProjectRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresProjectRepository creates a new project repository
func NewPostgresProjectRepository(db *sql.DB, logger *slog.Logger) *PostgresProjectRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new project
func (r *PostgresProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, description, status, deadline, pm_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.Status,
		project.Deadline,
		project.PMID,
	).Scan(&project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Validationf("project manager does not exist")
		}
		r.logger.Error("failed to create project",
			slog.String("name", project.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	project := &domain.Project{}
	var deadline sql.NullTime
	var pmID sql.NullString

	query := `
		SELECT id, name, description, status, deadline, pm_id, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.Status,
		&deadline,
		&pmID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("project not found")
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if deadline.Valid {
		project.Deadline = &deadline.Time
	}
	project.PMID = nullableString(pmID)
	return project, nil
}

// List returns all projects with their manager identity, task/member
// counts, and member rows.
func (r *PostgresProjectRepository) List(ctx context.Context) ([]*domain.ProjectInfo, error) {
	query := `
		SELECT p.id, p.name, p.description, p.status, p.deadline, p.pm_id,
			p.created_at, p.updated_at,
			pm.id, pm.name, pm.email,
			(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id),
			(SELECT COUNT(*) FROM project_members m WHERE m.project_id = p.id)
		FROM projects p
		LEFT JOIN users pm ON pm.id = p.pm_id
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list projects", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.ProjectInfo
	byID := map[string]*domain.ProjectInfo{}
	for rows.Next() {
		info := &domain.ProjectInfo{}
		var (
			deadline              sql.NullTime
			pmID                  sql.NullString
			mgrID, mgrName, mgrEm sql.NullString
		)
		err := rows.Scan(
			&info.ID,
			&info.Name,
			&info.Description,
			&info.Status,
			&deadline,
			&pmID,
			&info.CreatedAt,
			&info.UpdatedAt,
			&mgrID,
			&mgrName,
			&mgrEm,
			&info.TaskCount,
			&info.MemberCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if deadline.Valid {
			info.Deadline = &deadline.Time
		}
		info.PMID = nullableString(pmID)
		if mgrID.Valid {
			info.PM = &domain.UserRef{ID: mgrID.String, Name: mgrName.String, Email: mgrEm.String}
		}
		projects = append(projects, info)
		byID[info.ID] = info
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachMembers(ctx, byID); err != nil {
		return nil, err
	}
	return projects, nil
}

// attachMembers loads membership rows for all listed projects in one query.
func (r *PostgresProjectRepository) attachMembers(ctx context.Context, byID map[string]*domain.ProjectInfo) error {
	if len(byID) == 0 {
		return nil
	}

	query := `
		SELECT m.project_id, m.user_id, m.role, m.created_at, u.name, u.email
		FROM project_members m
		JOIN users u ON u.id = m.user_id
		ORDER BY m.created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		member := &domain.ProjectMember{}
		var name, email string
		if err := rows.Scan(&member.ProjectID, &member.UserID, &member.Role, &member.CreatedAt, &name, &email); err != nil {
			return fmt.Errorf("failed to scan project member: %w", err)
		}
		member.User = &domain.UserRef{ID: member.UserID, Name: name, Email: email}
		if info, ok := byID[member.ProjectID]; ok {
			info.Members = append(info.Members, member)
		}
	}
	return rows.Err()
}

// ListManagedIDs returns the ids of projects managed by the given user.
func (r *PostgresProjectRepository) ListManagedIDs(ctx context.Context, pmID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM projects WHERE pm_id = $1`, pmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list managed projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

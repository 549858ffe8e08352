package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/yourorg/orchestrate/internal/domain"
)

// PostgresTaskRepository implements domain.TaskRepository using PostgreSQL
type PostgresTaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTaskRepository creates a new task repository
func NewPostgresTaskRepository(db *sql.DB, logger *slog.Logger) *PostgresTaskRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskRepository{
		db:     db,
		logger: logger,
	}
}

const taskColumns = `
	t.id, t.title, t.description, t.status, t.priority,
	t.estimated_hours, t.actual_hours, t.logged_hours, t.due_date,
	t.project_id, t.assigned_to_id, t.created_by_id, t.created_at, t.updated_at,
	p.id, p.name, p.pm_id,
	a.id, a.name, a.email,
	c.id, c.name, c.email
`

const taskJoins = `
	FROM tasks t
	JOIN projects p ON p.id = t.project_id
	LEFT JOIN users a ON a.id = t.assigned_to_id
	LEFT JOIN users c ON c.id = t.created_by_id
`

// Create creates a new task
func (r *PostgresTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, status, priority,
			estimated_hours, actual_hours, logged_hours, due_date,
			project_id, assigned_to_id, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.EstimatedHours,
		task.ActualHours,
		task.LoggedHours,
		task.DueDate,
		task.ProjectID,
		task.AssignedToID,
		task.CreatedByID,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Validationf("project or assignee does not exist")
		}
		r.logger.Error("failed to create task",
			slog.String("title", task.Title),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task with its relations.
func (r *PostgresTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + taskJoins + ` WHERE t.id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("task not found")
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// Update rewrites every mutable column of the task. Field-level write
// rules are resolved by the service before the row reaches this method.
func (r *PostgresTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
			estimated_hours = $5, actual_hours = $6, logged_hours = $7,
			due_date = $8, project_id = $9, assigned_to_id = $10, updated_at = now()
		WHERE id = $11
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.EstimatedHours,
		task.ActualHours,
		task.LoggedHours,
		task.DueDate,
		task.ProjectID,
		task.AssignedToID,
		task.ID,
	).Scan(&task.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundf("task not found")
		}
		if isForeignKeyViolation(err) {
			return domain.Validationf("project or assignee does not exist")
		}
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// Delete removes a task.
func (r *PostgresTaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundf("task not found")
	}
	return nil
}

// List returns tasks inside the role scope, narrowed by caller filters.
// Scope and filters are ANDed; a filter can never widen the scope.
func (r *PostgresTaskRepository) List(ctx context.Context, scope domain.TaskScope, filter domain.TaskFilter) ([]*domain.Task, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if !scope.All {
		var scopeConds []string
		if scope.AssigneeID != "" {
			scopeConds = append(scopeConds, "t.assigned_to_id = "+arg(scope.AssigneeID))
		}
		if len(scope.ProjectIDs) > 0 {
			scopeConds = append(scopeConds, "t.project_id = ANY("+arg(pq.Array(scope.ProjectIDs))+")")
		}
		if len(scopeConds) == 0 {
			// Empty scope matches nothing.
			return nil, nil
		}
		where = append(where, "("+strings.Join(scopeConds, " OR ")+")")
	}

	if filter.ProjectID != "" {
		where = append(where, "t.project_id = "+arg(filter.ProjectID))
	}
	if filter.AssigneeID != "" {
		where = append(where, "t.assigned_to_id = "+arg(filter.AssigneeID))
	}
	if filter.Status != "" {
		where = append(where, "t.status = "+arg(filter.Status))
	}
	if filter.Priority != "" {
		where = append(where, "t.priority = "+arg(filter.Priority))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, "(t.title ILIKE "+arg(pattern)+" OR t.description ILIKE "+arg(pattern)+")")
	}

	query := `SELECT ` + taskColumns + taskJoins
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListActiveByAssignees returns non-DONE tasks assigned to any given user.
func (r *PostgresTaskRepository) ListActiveByAssignees(ctx context.Context, assigneeIDs []string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + taskJoins + `
		WHERE t.assigned_to_id = ANY($1) AND t.status <> $2
		ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(assigneeIDs), domain.TaskDone)
	if err != nil {
		r.logger.Error("failed to list active tasks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*domain.Task, error) {
	task := &domain.Task{}
	var (
		description                    sql.NullString
		estimated, actual, logged      sql.NullFloat64
		dueDate                        sql.NullTime
		assignedToID                   sql.NullString
		projID, projName               sql.NullString
		projPMID                       sql.NullString
		assgID, assgName, assgEmail    sql.NullString
		crtrID, crtrName, crtrEmail    sql.NullString
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&task.Status,
		&task.Priority,
		&estimated,
		&actual,
		&logged,
		&dueDate,
		&task.ProjectID,
		&assignedToID,
		&task.CreatedByID,
		&task.CreatedAt,
		&task.UpdatedAt,
		&projID,
		&projName,
		&projPMID,
		&assgID,
		&assgName,
		&assgEmail,
		&crtrID,
		&crtrName,
		&crtrEmail,
	)
	if err != nil {
		return nil, err
	}

	task.Description = nullableString(description)
	task.AssignedToID = nullableString(assignedToID)
	if estimated.Valid {
		task.EstimatedHours = &estimated.Float64
	}
	if actual.Valid {
		task.ActualHours = &actual.Float64
	}
	if logged.Valid {
		task.LoggedHours = &logged.Float64
	}
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if projID.Valid {
		task.Project = &domain.ProjectRef{ID: projID.String, Name: projName.String, PMID: nullableString(projPMID)}
	}
	if assgID.Valid {
		task.AssignedTo = &domain.UserRef{ID: assgID.String, Name: assgName.String, Email: assgEmail.String}
	}
	if crtrID.Valid {
		task.CreatedBy = &domain.UserRef{ID: crtrID.String, Name: crtrName.String, Email: crtrEmail.String}
	}
	return task, nil
}

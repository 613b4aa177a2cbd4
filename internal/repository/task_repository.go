package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

const taskColumns = "t.id, t.list_id, t.title, t.description, t.assigned_to, t.priority, t.status, t.due_date, t.created_at, t.updated_at"

// TaskPatch lists the task columns a caller wants to change.
// ClearDueDate removes the due date and wins over DueDate.
type TaskPatch struct {
	Title        *string
	Description  *string
	Priority     *domain.TaskPriority
	Status       *domain.TaskStatus
	AssignedTo   *string
	DueDate      *time.Time
	ClearDueDate bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.AssignedTo == nil && p.DueDate == nil && !p.ClearDueDate
}

// TaskRepository encapsulates task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.TaskWithContext, error)
	ListAssigned(ctx context.Context, userID string) ([]domain.TaskWithContext, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Task, error)
	Update(ctx context.Context, id string, patch TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (list_id, title, description, assigned_to, priority, status, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		task.ListID,
		task.Title,
		task.Description,
		task.AssignedTo,
		string(task.Priority),
		string(task.Status),
		task.DueDate,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.TaskWithContext, error) {
	query, args, err := r.withContext().Where(squirrel.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanTaskWithContext(r.pool.QueryRow(ctx, query, args...))
}

func (r *taskRepository) ListAssigned(ctx context.Context, userID string) ([]domain.TaskWithContext, error) {
	query, args, err := r.withContext().
		Where(squirrel.Eq{"t.assigned_to": userID}).
		OrderBy("t.created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.TaskWithContext
	for rows.Next() {
		task, err := scanTaskWithContext(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	query := `
        SELECT ` + taskColumns + `
        FROM tasks t
        JOIN task_lists l ON l.id = t.list_id
        WHERE l.project_id = $1
        ORDER BY t.created_at ASC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, id string, patch TaskPatch) (*domain.Task, error) {
	query, args, err := buildTaskUpdate(id, patch)
	if err != nil {
		return nil, err
	}
	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) withContext() squirrel.SelectBuilder {
	return psql.
		Select(taskColumns, "l.name", "p.id", "p.name", "p.created_by").
		From("tasks t").
		Join("task_lists l ON l.id = t.list_id").
		Join("projects p ON p.id = l.project_id")
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t                domain.Task
		priority, status string
	)
	if err := row.Scan(
		&t.ID,
		&t.ListID,
		&t.Title,
		&t.Description,
		&t.AssignedTo,
		&priority,
		&status,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Priority = domain.TaskPriority(priority)
	t.Status = domain.TaskStatus(status)
	return &t, nil
}

func scanTaskWithContext(row pgx.Row) (*domain.TaskWithContext, error) {
	var (
		t                domain.TaskWithContext
		priority, status string
	)
	if err := row.Scan(
		&t.ID,
		&t.ListID,
		&t.Title,
		&t.Description,
		&t.AssignedTo,
		&priority,
		&status,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ListName,
		&t.ProjectID,
		&t.ProjectName,
		&t.ProjectOwnerID,
	); err != nil {
		return nil, err
	}
	t.Priority = domain.TaskPriority(priority)
	t.Status = domain.TaskStatus(status)
	return &t, nil
}

func buildTaskUpdate(id string, patch TaskPatch) (string, []interface{}, error) {
	builder := psql.Update("tasks t").Set("updated_at", squirrel.Expr("NOW()"))
	if patch.Title != nil {
		builder = builder.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		builder = builder.Set("description", *patch.Description)
	}
	if patch.Priority != nil {
		builder = builder.Set("priority", string(*patch.Priority))
	}
	if patch.Status != nil {
		builder = builder.Set("status", string(*patch.Status))
	}
	if patch.AssignedTo != nil {
		builder = builder.Set("assigned_to", *patch.AssignedTo)
	}
	switch {
	case patch.ClearDueDate:
		builder = builder.Set("due_date", nil)
	case patch.DueDate != nil:
		builder = builder.Set("due_date", *patch.DueDate)
	}

	return builder.
		Where(squirrel.Eq{"t.id": id}).
		Suffix("RETURNING " + taskColumns).
		ToSql()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// TaskListRepository persists the columns of a project board.
type TaskListRepository interface {
	Create(ctx context.Context, list *domain.TaskList) error
	GetByID(ctx context.Context, id string) (*domain.TaskList, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.TaskList, error)
}

type taskListRepository struct {
	pool *pgxpool.Pool
}

// NewTaskListRepository instantiates repository.
func NewTaskListRepository(pool *pgxpool.Pool) TaskListRepository {
	return &taskListRepository{pool: pool}
}

func (r *taskListRepository) Create(ctx context.Context, list *domain.TaskList) error {
	const query = `
        INSERT INTO task_lists (project_id, name)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, list.ProjectID, list.Name).Scan(&list.ID, &list.CreatedAt)
}

func (r *taskListRepository) GetByID(ctx context.Context, id string) (*domain.TaskList, error) {
	const query = `SELECT id, project_id, name, created_at FROM task_lists WHERE id=$1`
	var l domain.TaskList
	if err := r.pool.QueryRow(ctx, query, id).Scan(&l.ID, &l.ProjectID, &l.Name, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *taskListRepository) ListByProject(ctx context.Context, projectID string) ([]domain.TaskList, error) {
	const query = `
        SELECT id, project_id, name, created_at
        FROM task_lists WHERE project_id=$1
        ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []domain.TaskList
	for rows.Next() {
		var l domain.TaskList
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// HistoryRepository stores the task audit trail.
type HistoryRepository interface {
	Record(ctx context.Context, entry *domain.TaskHistory) error
	ListByTask(ctx context.Context, taskID string) ([]domain.TaskHistory, error)
	ListRecentForAssignee(ctx context.Context, userID string, limit int) ([]domain.Activity, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Record(ctx context.Context, entry *domain.TaskHistory) error {
	const query = `
        INSERT INTO task_history (task_id, changed_by, change_type)
        VALUES ($1,$2,$3)
        RETURNING id, changed_at`
	return r.pool.QueryRow(ctx, query, entry.TaskID, entry.ChangedBy, string(entry.ChangeType)).
		Scan(&entry.ID, &entry.ChangedAt)
}

func (r *historyRepository) ListByTask(ctx context.Context, taskID string) ([]domain.TaskHistory, error) {
	const query = `
        SELECT h.id, h.task_id, h.changed_by, u.name, h.change_type, h.changed_at
        FROM task_history h
        JOIN users u ON u.id = h.changed_by
        WHERE h.task_id=$1
        ORDER BY h.changed_at DESC`

	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.TaskHistory
	for rows.Next() {
		var (
			h          domain.TaskHistory
			changeType string
		)
		if err := rows.Scan(&h.ID, &h.TaskID, &h.ChangedBy, &h.ChangedByName, &changeType, &h.ChangedAt); err != nil {
			return nil, err
		}
		h.ChangeType = domain.TaskChangeType(changeType)
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

// ListRecentForAssignee returns the newest history entries of tasks assigned to userID.
func (r *historyRepository) ListRecentForAssignee(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	const query = `
        SELECT h.change_type, t.title, u.name, h.changed_at
        FROM task_history h
        JOIN tasks t ON t.id = h.task_id
        JOIN users u ON u.id = h.changed_by
        WHERE t.assigned_to=$1
        ORDER BY h.changed_at DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.Action, &a.TaskTitle, &a.UserName, &a.At); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

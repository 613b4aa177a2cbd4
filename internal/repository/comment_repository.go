package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// CommentRepository persists task comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.TaskComment) error
	ListByTask(ctx context.Context, taskID string) ([]domain.TaskComment, error)
	ListRecentForAssignee(ctx context.Context, userID string, limit int) ([]domain.Activity, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

// Create inserts the comment and fills in the author's name and email.
func (r *commentRepository) Create(ctx context.Context, comment *domain.TaskComment) error {
	const query = `
        WITH inserted AS (
            INSERT INTO task_comments (task_id, user_id, body)
            VALUES ($1, $2, $3)
            RETURNING id, user_id, created_at
        )
        SELECT i.id, i.created_at, u.name, u.email
        FROM inserted i JOIN users u ON u.id = i.user_id`

	return r.pool.QueryRow(ctx, query, comment.TaskID, comment.UserID, comment.Body).
		Scan(&comment.ID, &comment.CreatedAt, &comment.UserName, &comment.UserEmail)
}

func (r *commentRepository) ListByTask(ctx context.Context, taskID string) ([]domain.TaskComment, error) {
	const query = `
        SELECT c.id, c.task_id, c.user_id, u.name, u.email, c.body, c.created_at
        FROM task_comments c
        JOIN users u ON u.id = c.user_id
        WHERE c.task_id=$1
        ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.TaskComment
	for rows.Next() {
		var c domain.TaskComment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.UserName, &c.UserEmail, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ListRecentForAssignee returns the newest comments left on tasks assigned to userID.
func (r *commentRepository) ListRecentForAssignee(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	const query = `
        SELECT t.title, u.name, c.created_at
        FROM task_comments c
        JOIN tasks t ON t.id = c.task_id
        JOIN users u ON u.id = c.user_id
        WHERE t.assigned_to=$1
        ORDER BY c.created_at DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		a := domain.Activity{Action: domain.ActivityCommented}
		if err := rows.Scan(&a.TaskTitle, &a.UserName, &a.At); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

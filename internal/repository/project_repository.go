package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// ProjectPatch lists the project columns a caller wants to change.
type ProjectPatch struct {
	Name        *string
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool {
	return p.Name == nil && p.Description == nil
}

// ProjectRepository encapsulates project persistence.
type ProjectRepository interface {
	CreateWithDefaultList(ctx context.Context, project *domain.Project, listName string) (*domain.TaskList, error)
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListSummariesByOwner(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error)
	Update(ctx context.Context, id string, patch ProjectPatch) (*domain.Project, error)
	Delete(ctx context.Context, id string) error
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) CreateWithDefaultList(ctx context.Context, project *domain.Project, listName string) (*domain.TaskList, error) {
	const insertProject = `
        INSERT INTO projects (name, description, created_by)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	const insertList = `
        INSERT INTO task_lists (project_id, name)
        VALUES ($1, $2)
        RETURNING id, created_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, insertProject,
		project.Name,
		project.Description,
		project.CreatedBy,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	list := &domain.TaskList{ProjectID: project.ID, Name: listName}
	if err := tx.QueryRow(ctx, insertList, list.ProjectID, list.Name).Scan(&list.ID, &list.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert default list: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	const query = `
        SELECT id, name, description, created_by, created_at, updated_at
        FROM projects WHERE id=$1`

	var p domain.Project
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) ListSummariesByOwner(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	query, args, err := psql.
		Select(
			"p.id", "p.name", "p.description", "p.created_by", "p.created_at", "p.updated_at",
			"COUNT(t.id)",
			"COUNT(t.id) FILTER (WHERE t.status = 'Completed')",
		).
		From("projects p").
		LeftJoin("task_lists l ON l.project_id = p.id").
		LeftJoin("tasks t ON t.list_id = l.id").
		Where(squirrel.Eq{"p.created_by": ownerID}).
		GroupBy("p.id").
		OrderBy("p.created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.ProjectSummary
	for rows.Next() {
		var p domain.ProjectSummary
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.CreatedBy,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.TaskCount,
			&p.CompletedCount,
		); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectRepository) Update(ctx context.Context, id string, patch ProjectPatch) (*domain.Project, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	query, args, err := buildProjectUpdate(id, patch)
	if err != nil {
		return nil, err
	}

	var p domain.Project
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM projects WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func buildProjectUpdate(id string, patch ProjectPatch) (string, []interface{}, error) {
	builder := psql.Update("projects").Set("updated_at", squirrel.Expr("NOW()"))
	if patch.Name != nil {
		builder = builder.Set("name", *patch.Name)
	}
	if patch.Description != nil {
		builder = builder.Set("description", *patch.Description)
	}
	return builder.
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, name, description, created_by, created_at, updated_at").
		ToSql()
}

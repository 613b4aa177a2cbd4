package service

import (
	"context"
	"strings"

	"github.com/spec-kit/taskflow-service/internal/domain"
	"github.com/spec-kit/taskflow-service/internal/repository"
	apperrors "github.com/spec-kit/taskflow-service/pkg/util/errorutil"
)

// ProjectBoard is a project with its lists and their tasks.
type ProjectBoard struct {
	Project *domain.Project
	Lists   []BoardList
}

// BoardList is one column of a board.
type BoardList struct {
	domain.TaskList
	Tasks []domain.Task
}

// ProjectService coordinates projects and their task lists.
type ProjectService struct {
	projects repository.ProjectRepository
	lists    repository.TaskListRepository
	tasks    repository.TaskRepository
}

// ProjectDependencies bundles repositories for the project service.
type ProjectDependencies struct {
	ProjectRepo  repository.ProjectRepository
	TaskListRepo repository.TaskListRepository
	TaskRepo     repository.TaskRepository
}

// NewProjectService constructs the service.
func NewProjectService(deps ProjectDependencies) *ProjectService {
	return &ProjectService{
		projects: deps.ProjectRepo,
		lists:    deps.TaskListRepo,
		tasks:    deps.TaskRepo,
	}
}

// ListProjects returns the caller's own projects with task counters.
func (s *ProjectService) ListProjects(ctx context.Context, actor *domain.Identity) ([]domain.ProjectSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.projects.ListSummariesByOwner(ctx, actor.SubjectID)
}

// CreateProject creates a project owned by the caller together with its
// default list.
func (s *ProjectService) CreateProject(ctx context.Context, actor *domain.Identity, name, description string) (*domain.ProjectSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("project name is required", map[string]any{"name": "required"})
	}

	project := &domain.Project{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   actor.SubjectID,
	}
	if _, err := s.projects.CreateWithDefaultList(ctx, project, domain.DefaultTaskListName); err != nil {
		return nil, err
	}
	return &domain.ProjectSummary{Project: *project}, nil
}

// GetBoard returns a project with every list and task.
func (s *ProjectService) GetBoard(ctx context.Context, actor *domain.Identity, projectID string) (*ProjectBoard, error) {
	project, err := s.accessibleProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	lists, err := s.lists.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	byList := make(map[string][]domain.Task, len(lists))
	for _, task := range tasks {
		byList[task.ListID] = append(byList[task.ListID], task)
	}

	board := &ProjectBoard{Project: project, Lists: make([]BoardList, 0, len(lists))}
	for _, list := range lists {
		board.Lists = append(board.Lists, BoardList{TaskList: list, Tasks: byList[list.ID]})
	}
	return board, nil
}

// UpdateProject applies a partial update. An explicit empty name is rejected.
func (s *ProjectService) UpdateProject(ctx context.Context, actor *domain.Identity, projectID string, patch repository.ProjectPatch) (*domain.Project, error) {
	if _, err := s.accessibleProject(ctx, actor, projectID); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("project name cannot be empty", map[string]any{"name": "required"})
		}
		patch.Name = &name
	}
	project, err := s.projects.Update(ctx, projectID, patch)
	if err != nil {
		return nil, notFoundOr(err, "project")
	}
	return project, nil
}

// DeleteProject removes a project and, by cascade, its lists and tasks.
func (s *ProjectService) DeleteProject(ctx context.Context, actor *domain.Identity, projectID string) error {
	if _, err := s.accessibleProject(ctx, actor, projectID); err != nil {
		return err
	}
	return notFoundOr(s.projects.Delete(ctx, projectID), "project")
}

// ListTaskLists returns the lists of a project the caller can access.
func (s *ProjectService) ListTaskLists(ctx context.Context, actor *domain.Identity, projectID string) ([]BoardList, error) {
	board, err := s.GetBoard(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	return board.Lists, nil
}

// CreateTaskList adds a list to a project the caller can access.
func (s *ProjectService) CreateTaskList(ctx context.Context, actor *domain.Identity, projectID, name string) (*domain.TaskList, error) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(projectID) == "" || name == "" {
		return nil, apperrors.NewValidationError("project id and list name are required", nil)
	}
	if _, err := s.accessibleProject(ctx, actor, projectID); err != nil {
		return nil, err
	}
	list := &domain.TaskList{ProjectID: projectID, Name: name}
	if err := s.lists.Create(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// accessibleProject loads a project and hides it from callers without access.
func (s *ProjectService) accessibleProject(ctx context.Context, actor *domain.Identity, projectID string) (*domain.Project, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, notFoundOr(err, "project")
	}
	if !canAccessProject(actor, project) {
		return nil, apperrors.NewNotFound("project", nil)
	}
	return project, nil
}

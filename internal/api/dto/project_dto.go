package dto

import (
	"time"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// Project board states.
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
)

// CreateProjectRequest payload.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProjectRequest carries only the fields to change.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ProjectResponse is a project card.
type ProjectResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Color          string    `json:"color"`
	Status         string    `json:"status"`
	TaskCount      int       `json:"taskCount"`
	CompletedCount int       `json:"completedCount"`
	Members        int       `json:"members"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CreateTaskListRequest payload.
type CreateTaskListRequest struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
}

// TaskListResponse is a board column.
type TaskListResponse struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"projectId"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	Tasks     []TaskResponse `json:"tasks"`
}

// BoardResponse is a project with its columns.
type BoardResponse struct {
	ProjectResponse
	Lists []TaskListResponse `json:"lists"`
}

// NewProjectResponse maps a project summary. Members is always one: a
// project is visible to its owner only.
func NewProjectResponse(p domain.ProjectSummary) ProjectResponse {
	status := ProjectStatusActive
	if p.TaskCount > 0 && p.CompletedCount == p.TaskCount {
		status = ProjectStatusCompleted
	}
	return ProjectResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Color:          ColorForName(p.Name),
		Status:         status,
		TaskCount:      p.TaskCount,
		CompletedCount: p.CompletedCount,
		Members:        1,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// NewProjectResponses maps a slice of summaries.
func NewProjectResponses(in []domain.ProjectSummary) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(in))
	for _, p := range in {
		out = append(out, NewProjectResponse(p))
	}
	return out
}

// NewTaskListResponse maps a list and its tasks.
func NewTaskListResponse(list domain.TaskList, tasks []domain.Task) TaskListResponse {
	out := TaskListResponse{
		ID:        list.ID,
		ProjectID: list.ProjectID,
		Name:      list.Name,
		CreatedAt: list.CreatedAt,
		Tasks:     make([]TaskResponse, 0, len(tasks)),
	}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, NewTaskResponse(t))
	}
	return out
}

// NewBoardResponse builds the board view. Counters are derived from the
// loaded tasks.
func NewBoardResponse(project *domain.Project, lists []TaskListResponse) BoardResponse {
	summary := domain.ProjectSummary{Project: *project}
	for _, l := range lists {
		for _, t := range l.Tasks {
			summary.TaskCount++
			if t.Status == domain.TaskStatusCompleted {
				summary.CompletedCount++
			}
		}
	}
	return BoardResponse{ProjectResponse: NewProjectResponse(summary), Lists: lists}
}

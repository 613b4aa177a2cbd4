package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// CreateTaskRequest payload. DueDate is a calendar date or RFC 3339 timestamp.
type CreateTaskRequest struct {
	ListID      string `json:"listId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
}

// UpdateTaskRequest carries only the fields to change. An empty DueDate
// clears the due date.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assignedTo"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	DueDate     *string `json:"dueDate"`
}

// UpdateTaskStatusRequest payload for status-only changes.
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// TaskResponse is a task as stored.
type TaskResponse struct {
	ID          string              `json:"id"`
	ListID      string              `json:"listId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	AssignedTo  string              `json:"assignedTo"`
	Priority    domain.TaskPriority `json:"priority"`
	Status      domain.TaskStatus   `json:"status"`
	DueDate     *string             `json:"dueDate"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// MyTaskResponse is a row of the caller's task list, with lowercase
// priority and status as the task views expect.
type MyTaskResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	DueDate     *string `json:"dueDate"`
	Overdue     bool    `json:"overdue"`
	ListID      string  `json:"listId"`
	ListName    string  `json:"listName"`
	ProjectID   string  `json:"projectId"`
	ProjectName string  `json:"projectName"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	TaskID string `json:"taskId"`
	Body   string `json:"body"`
}

// CommentResponse is a task comment with its author.
type CommentResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserEmail string    `json:"userEmail"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID            string    `json:"id"`
	ChangeType    string    `json:"changeType"`
	ChangedBy     string    `json:"changedBy"`
	ChangedByName string    `json:"changedByName"`
	ChangedAt     time.Time `json:"changedAt"`
}

// TaskDetailResponse is a task with its context, comments and history.
type TaskDetailResponse struct {
	TaskResponse
	ListName    string            `json:"listName"`
	ProjectID   string            `json:"projectId"`
	ProjectName string            `json:"projectName"`
	Comments    []CommentResponse `json:"comments"`
	History     []HistoryResponse `json:"history"`
}

// NewTaskResponse maps a domain task.
func NewTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ListID:      t.ListID,
		Title:       t.Title,
		Description: t.Description,
		AssignedTo:  t.AssignedTo,
		Priority:    t.Priority,
		Status:      t.Status,
		DueDate:     formatDueDate(t.DueDate),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTaskResponses maps tasks with context to plain task views.
func NewTaskResponses(in []domain.TaskWithContext) []TaskResponse {
	out := make([]TaskResponse, 0, len(in))
	for _, t := range in {
		out = append(out, NewTaskResponse(t.Task))
	}
	return out
}

// NewMyTaskResponses maps the caller's tasks.
func NewMyTaskResponses(in []domain.TaskWithContext, now time.Time) []MyTaskResponse {
	out := make([]MyTaskResponse, 0, len(in))
	for _, t := range in {
		out = append(out, MyTaskResponse{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Priority:    strings.ToLower(string(t.Priority)),
			Status:      strings.ToLower(string(t.Status)),
			DueDate:     formatDueDate(t.DueDate),
			Overdue:     t.Overdue(now),
			ListID:      t.ListID,
			ListName:    t.ListName,
			ProjectID:   t.ProjectID,
			ProjectName: t.ProjectName,
		})
	}
	return out
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c domain.TaskComment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TaskID:    c.TaskID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		UserEmail: c.UserEmail,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

// NewCommentResponses maps comments.
func NewCommentResponses(in []domain.TaskComment) []CommentResponse {
	out := make([]CommentResponse, 0, len(in))
	for _, c := range in {
		out = append(out, NewCommentResponse(c))
	}
	return out
}

// NewTaskDetailResponse maps a task with its discussion and audit trail.
func NewTaskDetailResponse(task *domain.TaskWithContext, comments []domain.TaskComment, history []domain.TaskHistory) TaskDetailResponse {
	out := TaskDetailResponse{
		TaskResponse: NewTaskResponse(task.Task),
		ListName:     task.ListName,
		ProjectID:    task.ProjectID,
		ProjectName:  task.ProjectName,
		Comments:     NewCommentResponses(comments),
		History:      make([]HistoryResponse, 0, len(history)),
	}
	for _, h := range history {
		out.History = append(out.History, HistoryResponse{
			ID:            h.ID,
			ChangeType:    string(h.ChangeType),
			ChangedBy:     h.ChangedBy,
			ChangedByName: h.ChangedByName,
			ChangedAt:     h.ChangedAt,
		})
	}
	return out
}

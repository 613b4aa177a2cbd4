package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/taskflow-service/internal/domain"
	"github.com/spec-kit/taskflow-service/internal/events"
	"github.com/spec-kit/taskflow-service/internal/repository"
	apperrors "github.com/spec-kit/taskflow-service/pkg/util/errorutil"
)

const commentPreviewLength = 80

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	ListID      string
	Title       string
	Description string
	AssignedTo  string
	Priority    domain.TaskPriority
	Status      domain.TaskStatus
	DueDate     *time.Time
}

// TaskDetail is a task with its discussion and audit trail.
type TaskDetail struct {
	Task     *domain.TaskWithContext
	Comments []domain.TaskComment
	History  []domain.TaskHistory
}

// TaskService coordinates task workflows, comments and history.
type TaskService struct {
	tasks      repository.TaskRepository
	lists      repository.TaskListRepository
	projects   repository.ProjectRepository
	comments   repository.CommentRepository
	history    repository.HistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TaskDependencies bundles repositories for the task service.
type TaskDependencies struct {
	TaskRepo     repository.TaskRepository
	TaskListRepo repository.TaskListRepository
	ProjectRepo  repository.ProjectRepository
	CommentRepo  repository.CommentRepository
	HistoryRepo  repository.HistoryRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		tasks:      deps.TaskRepo,
		lists:      deps.TaskListRepo,
		projects:   deps.ProjectRepo,
		comments:   deps.CommentRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ListMyTasks returns tasks assigned to the caller, newest first.
func (s *TaskService) ListMyTasks(ctx context.Context, actor *domain.Identity) ([]domain.TaskWithContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.tasks.ListAssigned(ctx, actor.SubjectID)
}

// CreateTask adds a task to a list in a project the caller can access.
func (s *TaskService) CreateTask(ctx context.Context, actor *domain.Identity, input TaskCreateInput) (*domain.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	task := &domain.Task{
		ListID:      strings.TrimSpace(input.ListID),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		AssignedTo:  strings.TrimSpace(input.AssignedTo),
		Priority:    input.Priority,
		Status:      input.Status,
		DueDate:     input.DueDate,
	}
	if task.Priority == "" {
		task.Priority = domain.TaskPriorityLow
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}

	fields := map[string]string{}
	if task.Title == "" {
		fields["title"] = "title is required"
	}
	if task.ListID == "" {
		fields["listId"] = "list id is required"
	}
	if task.AssignedTo == "" {
		fields["assignedTo"] = "assignee is required"
	}
	if !task.Priority.Valid() {
		fields["priority"] = "priority must be Low, Medium or High"
	}
	if !task.Status.Valid() {
		fields["status"] = "status must be Pending, InProgress or Completed"
	}
	if err := validationFailed(fields); err != nil {
		return nil, err
	}

	list, err := s.lists.GetByID(ctx, task.ListID)
	if err != nil {
		return nil, notFoundOr(err, "task list")
	}
	project, err := s.projects.GetByID(ctx, list.ProjectID)
	if err != nil {
		return nil, notFoundOr(err, "project")
	}
	if !canAccessProject(actor, project) {
		return nil, apperrors.NewNotFound("task list", nil)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.record(ctx, task.ID, actor.SubjectID, domain.ChangeTypeCreated)
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventTaskCreated,
		SubjectID: task.ID,
		ActorID:   actor.SubjectID,
		Payload: events.TaskCreatedPayload{
			ListID:     task.ListID,
			AssignedTo: task.AssignedTo,
			Title:      task.Title,
			Priority:   task.Priority,
		},
	})
	return task, nil
}

// GetTask returns a task with comments and history, newest first.
func (s *TaskService) GetTask(ctx context.Context, actor *domain.Identity, taskID string) (*TaskDetail, error) {
	task, err := s.accessibleTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	history, err := s.history.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return &TaskDetail{Task: task, Comments: comments, History: history}, nil
}

// UpdateTask applies a partial update and records an "updated" entry.
func (s *TaskService) UpdateTask(ctx context.Context, actor *domain.Identity, taskID string, patch repository.TaskPatch) (*domain.Task, error) {
	if _, err := s.accessibleTask(ctx, actor, taskID); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			fields["title"] = "title cannot be empty"
		}
		patch.Title = &title
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		fields["priority"] = "priority must be Low, Medium or High"
	}
	if patch.Status != nil && !patch.Status.Valid() {
		fields["status"] = "status must be Pending, InProgress or Completed"
	}
	if patch.AssignedTo != nil && strings.TrimSpace(*patch.AssignedTo) == "" {
		fields["assignedTo"] = "assignee cannot be empty"
	}
	if err := validationFailed(fields); err != nil {
		return nil, err
	}

	updated, err := s.tasks.Update(ctx, taskID, patch)
	if err != nil {
		return nil, notFoundOr(err, "task")
	}
	s.record(ctx, updated.ID, actor.SubjectID, domain.ChangeTypeUpdated)
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventTaskUpdated,
		SubjectID: updated.ID,
		ActorID:   actor.SubjectID,
		Payload: events.TaskUpdatedPayload{
			AssignedTo: updated.AssignedTo,
			Status:     updated.Status,
			Fields:     patchedFields(patch),
		},
	})
	return updated, nil
}

// UpdateStatus changes only the status. Completing a task records
// "completed", any other status records "updated".
func (s *TaskService) UpdateStatus(ctx context.Context, actor *domain.Identity, taskID string, status domain.TaskStatus) (*domain.Task, error) {
	if status == "" {
		return nil, apperrors.NewValidationError("status is required", map[string]any{"status": "required"})
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": "must be Pending, InProgress or Completed"})
	}
	if _, err := s.accessibleTask(ctx, actor, taskID); err != nil {
		return nil, err
	}

	updated, err := s.tasks.Update(ctx, taskID, repository.TaskPatch{Status: &status})
	if err != nil {
		return nil, notFoundOr(err, "task")
	}

	change := domain.ChangeTypeUpdated
	event := events.Event{
		Type:      events.EventTaskUpdated,
		SubjectID: updated.ID,
		ActorID:   actor.SubjectID,
		Payload:   events.TaskUpdatedPayload{AssignedTo: updated.AssignedTo, Status: status, Fields: []string{"status"}},
	}
	if status == domain.TaskStatusCompleted {
		change = domain.ChangeTypeCompleted
		event.Type = events.EventTaskCompleted
		event.Payload = events.TaskCompletedPayload{AssignedTo: updated.AssignedTo, Title: updated.Title}
	}
	s.record(ctx, updated.ID, actor.SubjectID, change)
	publish(ctx, s.dispatcher, event)
	return updated, nil
}

// DeleteTask removes a task with its comments and history.
func (s *TaskService) DeleteTask(ctx context.Context, actor *domain.Identity, taskID string) error {
	if _, err := s.accessibleTask(ctx, actor, taskID); err != nil {
		return err
	}
	return notFoundOr(s.tasks.Delete(ctx, taskID), "task")
}

// ListComments returns the comments of a task, newest first.
func (s *TaskService) ListComments(ctx context.Context, actor *domain.Identity, taskID string) ([]domain.TaskComment, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, apperrors.NewValidationError("task id is required", map[string]any{"taskId": "required"})
	}
	if _, err := s.accessibleTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	return s.comments.ListByTask(ctx, taskID)
}

// AddComment attaches a comment by the caller to a task.
func (s *TaskService) AddComment(ctx context.Context, actor *domain.Identity, taskID, body string) (*domain.TaskComment, error) {
	body = strings.TrimSpace(body)
	if strings.TrimSpace(taskID) == "" || body == "" {
		return nil, apperrors.NewValidationError("task id and comment text are required", nil)
	}
	if _, err := s.accessibleTask(ctx, actor, taskID); err != nil {
		return nil, err
	}

	comment := &domain.TaskComment{TaskID: taskID, UserID: actor.SubjectID, Body: body}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventCommentAdded,
		SubjectID: taskID,
		ActorID:   actor.SubjectID,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			TaskID:      taskID,
			BodyPreview: preview(body, commentPreviewLength),
		},
	})
	return comment, nil
}

func (s *TaskService) accessibleTask(ctx context.Context, actor *domain.Identity, taskID string) (*domain.TaskWithContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, notFoundOr(err, "task")
	}
	if !canAccessTask(actor, task) {
		return nil, apperrors.NewNotFound("task", nil)
	}
	return task, nil
}

// record writes a history entry. The task change already happened, so a
// failure here is logged rather than returned.
func (s *TaskService) record(ctx context.Context, taskID, actorID string, change domain.TaskChangeType) {
	entry := &domain.TaskHistory{TaskID: taskID, ChangedBy: actorID, ChangeType: change}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Error("record task history",
			zap.String("task_id", taskID),
			zap.String("change_type", string(change)),
			zap.Error(err))
	}
}

func patchedFields(patch repository.TaskPatch) []string {
	var fields []string
	if patch.Title != nil {
		fields = append(fields, "title")
	}
	if patch.Description != nil {
		fields = append(fields, "description")
	}
	if patch.Priority != nil {
		fields = append(fields, "priority")
	}
	if patch.Status != nil {
		fields = append(fields, "status")
	}
	if patch.AssignedTo != nil {
		fields = append(fields, "assignedTo")
	}
	if patch.DueDate != nil || patch.ClearDueDate {
		fields = append(fields, "dueDate")
	}
	return fields
}

func preview(body string, limit int) string {
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit]) + "..."
}

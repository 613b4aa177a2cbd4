package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskflow-service/internal/api/dto"
	"github.com/spec-kit/taskflow-service/internal/repository"
	"github.com/spec-kit/taskflow-service/internal/service"
	apperrors "github.com/spec-kit/taskflow-service/pkg/util/errorutil"
)

// TasksHandler manages tasks and their comments.
type TasksHandler struct {
	service *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{service: taskService}
}

// ListTasks GET /api/tasks.
func (h *TasksHandler) ListTasks(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	tasks, err := h.service.ListMyTasks(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewMyTaskResponses(tasks, time.Now()))
}

// CreateTask POST /api/tasks.
func (h *TasksHandler) CreateTask(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	// Missing fields are reported together by the service.
	listID := strings.TrimSpace(req.ListID)
	if listID != "" {
		if listID, err = requiredID(listID, "listId"); err != nil {
			return err
		}
	}
	input := service.TaskCreateInput{
		ListID:      listID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  strings.TrimSpace(req.AssignedTo),
	}
	if req.Priority != "" {
		input.Priority = dto.ParsePriority(req.Priority)
	}
	if req.Status != "" {
		input.Status = dto.ParseStatus(req.Status)
	}
	if strings.TrimSpace(req.DueDate) != "" {
		due, err := dueDate(req.DueDate)
		if err != nil {
			return err
		}
		input.DueDate = &due
	}
	task, err := h.service.CreateTask(c.UserContext(), identity, input)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewTaskResponse(*task))
}

// GetTask GET /api/tasks/:id.
func (h *TasksHandler) GetTask(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c.Params("id"), "task")
	if err != nil {
		return err
	}
	detail, err := h.service.GetTask(c.UserContext(), identity, id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewTaskDetailResponse(detail.Task, detail.Comments, detail.History))
}

// UpdateTask PUT /api/tasks/:id applies a partial update.
func (h *TasksHandler) UpdateTask(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c.Params("id"), "task")
	if err != nil {
		return err
	}
	var req dto.UpdateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch, err := taskPatch(req)
	if err != nil {
		return err
	}
	task, err := h.service.UpdateTask(c.UserContext(), identity, id, patch)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewTaskResponse(*task))
}

// UpdateTaskStatus PATCH /api/tasks/:id changes only the status.
func (h *TasksHandler) UpdateTaskStatus(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c.Params("id"), "task")
	if err != nil {
		return err
	}
	var req dto.UpdateTaskStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Status) == "" {
		return apperrors.NewValidationError("status is required", map[string]any{"status": "required"})
	}
	task, err := h.service.UpdateStatus(c.UserContext(), identity, id, dto.ParseStatus(req.Status))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewTaskResponse(*task))
}

// DeleteTask DELETE /api/tasks/:id.
func (h *TasksHandler) DeleteTask(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c.Params("id"), "task")
	if err != nil {
		return err
	}
	if err := h.service.DeleteTask(c.UserContext(), identity, id); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"success": true})
}

// ListComments GET /api/comments?taskId=.
func (h *TasksHandler) ListComments(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	taskID, err := requiredID(c.Query("taskId"), "taskId")
	if err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.UserContext(), identity, taskID)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewCommentResponses(comments))
}

// AddComment POST /api/comments.
func (h *TasksHandler) AddComment(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	taskID, err := requiredID(req.TaskID, "taskId")
	if err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), identity, taskID, req.Body)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewCommentResponse(*comment))
}

func taskPatch(req dto.UpdateTaskRequest) (repository.TaskPatch, error) {
	patch := repository.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	}
	if req.Priority != nil {
		p := dto.ParsePriority(*req.Priority)
		patch.Priority = &p
	}
	if req.Status != nil {
		s := dto.ParseStatus(*req.Status)
		patch.Status = &s
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			patch.ClearDueDate = true
		} else {
			due, err := dueDate(*req.DueDate)
			if err != nil {
				return repository.TaskPatch{}, err
			}
			patch.DueDate = &due
		}
	}
	return patch, nil
}

func dueDate(raw string) (time.Time, error) {
	due, err := dto.ParseDueDate(raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("invalid dueDate", map[string]any{"dueDate": "expected YYYY-MM-DD"})
	}
	return due, nil
}


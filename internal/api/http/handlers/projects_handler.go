package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskflow-service/internal/api/dto"
	"github.com/spec-kit/taskflow-service/internal/repository"
	"github.com/spec-kit/taskflow-service/internal/service"
)

// ProjectsHandler manages projects and their task lists.
type ProjectsHandler struct {
	service *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projectService *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{service: projectService}
}

// ListProjects GET /api/projects.
func (h *ProjectsHandler) ListProjects(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	projects, err := h.service.ListProjects(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewProjectResponses(projects))
}

// CreateProject POST /api/projects.
func (h *ProjectsHandler) CreateProject(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateProjectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	project, err := h.service.CreateProject(c.UserContext(), identity, req.Name, req.Description)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewProjectResponse(*project))
}

// GetProject GET /api/projects/:id, returning the board.
func (h *ProjectsHandler) GetProject(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c.Params("id"), "project")
	if err != nil {
		return err
	}
	board, err := h.service.GetBoard(c.UserContext(), identity, id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, boardResponse(board))
}

// UpdateProject PATCH /api/projects/:id.
func (h *ProjectsHandler) UpdateProject(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c.Params("id"), "project")
	if err != nil {
		return err
	}
	var req dto.UpdateProjectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	project, err := h.service.UpdateProject(c.UserContext(), identity, id, repository.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	board, err := h.service.GetBoard(c.UserContext(), identity, project.ID)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, boardResponse(board).ProjectResponse)
}

// DeleteProject DELETE /api/projects/:id.
func (h *ProjectsHandler) DeleteProject(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c.Params("id"), "project")
	if err != nil {
		return err
	}
	if err := h.service.DeleteProject(c.UserContext(), identity, id); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"success": true})
}

// ListTaskLists GET /api/tasklists?projectId=.
func (h *ProjectsHandler) ListTaskLists(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	projectID, err := requiredID(c.Query("projectId"), "projectId")
	if err != nil {
		return err
	}
	lists, err := h.service.ListTaskLists(c.UserContext(), identity, projectID)
	if err != nil {
		return err
	}
	out := make([]dto.TaskListResponse, 0, len(lists))
	for _, l := range lists {
		out = append(out, dto.NewTaskListResponse(l.TaskList, l.Tasks))
	}
	return data(c, http.StatusOK, out)
}

// CreateTaskList POST /api/tasklists.
func (h *ProjectsHandler) CreateTaskList(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateTaskListRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	projectID, err := requiredID(req.ProjectID, "projectId")
	if err != nil {
		return err
	}
	list, err := h.service.CreateTaskList(c.UserContext(), identity, projectID, req.Name)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewTaskListResponse(*list, nil))
}

func boardResponse(board *service.ProjectBoard) dto.BoardResponse {
	lists := make([]dto.TaskListResponse, 0, len(board.Lists))
	for _, l := range board.Lists {
		lists = append(lists, dto.NewTaskListResponse(l.TaskList, l.Tasks))
	}
	return dto.NewBoardResponse(board.Project, lists)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskflow-service/internal/api/dto"
	"github.com/spec-kit/taskflow-service/internal/domain"
	"github.com/spec-kit/taskflow-service/internal/service"
)

// UsersHandler manages team accounts.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// ListUsers GET /api/users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListUsers(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserListItems(users, time.Now()))
}

// GetUser GET /api/users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c.Params("id"), "user")
	if err != nil {
		return err
	}
	detail, err := h.service.GetUser(c.UserContext(), identity, id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.UserDetailResponse{
		UserResponse: dto.NewUserResponse(detail.User),
		Initials:     dto.Initials(detail.User.Name),
		Tasks:        dto.NewTaskResponses(detail.Tasks),
		Projects:     dto.NewProjectResponses(detail.Projects),
	})
}

// CreateUser POST /api/users.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.service.CreateUser(c.UserContext(), identity, service.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewUserResponse(user))
}

// UpdateUser PATCH /api/users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c.Params("id"), "user")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch := service.UserPatch{Name: req.Name, Email: req.Email, Password: req.Password}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}
	user, err := h.service.UpdateUser(c.UserContext(), identity, id, patch)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(user))
}

// DeleteUser DELETE /api/users/:id.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c.Params("id"), "user")
	if err != nil {
		return err
	}
	if err := h.service.DeleteUser(c.UserContext(), identity, id); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"success": true})
}

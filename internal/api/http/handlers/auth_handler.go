package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskflow-service/internal/api/dto"
	"github.com/spec-kit/taskflow-service/internal/auth"
	"github.com/spec-kit/taskflow-service/internal/service"
)

// AuthHandler exposes sign-in, sign-up, logout and the caller's account.
type AuthHandler struct {
	auth   *service.AuthService
	cookie auth.CookieConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookie auth.CookieConfig) *AuthHandler {
	return &AuthHandler{auth: authService, cookie: cookie}
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.session(c, http.StatusOK, result)
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.auth.SignUp(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.session(c, http.StatusCreated, result)
}

// Logout handles POST /api/auth/logout. The token stays valid until it
// expires; the browser simply stops sending it.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	auth.ClearSessionCookie(c, h.cookie)
	return data(c, http.StatusOK, fiber.Map{"success": true})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"user": dto.NewUserResponse(user)})
}

func (h *AuthHandler) session(c *fiber.Ctx, status int, result *service.AuthResult) error {
	auth.SetSessionCookie(c, h.cookie, result.Token)
	return data(c, status, dto.SessionResponse{
		User: dto.NewUserResponse(result.User),
		Auth: dto.AuthResponse{Token: result.Token.Value, ExpiresAt: result.Token.ExpiresAt},
	})
}

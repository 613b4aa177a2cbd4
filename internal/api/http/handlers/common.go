package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/taskflow-service/internal/auth"
	"github.com/spec-kit/taskflow-service/internal/domain"
	apperrors "github.com/spec-kit/taskflow-service/pkg/util/errorutil"
)

// caller returns the identity the gate attached to the request.
func caller(c *fiber.Ctx) (*domain.Identity, error) {
	return auth.RequireIdentity(c)
}

// resourceID reads a UUID path or query value. Malformed ids cannot name an
// existing row and are reported as missing.
func resourceID(raw, resource string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperrors.NewNotFound(resource, nil)
	}
	return id.String(), nil
}

// requiredID reads a UUID that the client must supply, such as a body or
// query reference.
func requiredID(raw, field string) (string, error) {
	if raw == "" {
		return "", apperrors.NewValidationError(field+" is required", map[string]any{field: "required"})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperrors.NewValidationError("invalid "+field, map[string]any{field: "must be a UUID"})
	}
	return id.String(), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}

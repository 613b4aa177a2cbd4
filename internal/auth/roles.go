package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskflow-service/internal/domain"
	apperrors "github.com/spec-kit/taskflow-service/pkg/util/errorutil"
)

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, err := RequireIdentity(c)
		if err != nil {
			return err
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// HasRole reports whether identity holds any of roles.
func HasRole(identity *domain.Identity, roles ...domain.Role) bool {
	if identity == nil {
		return false
	}
	for _, role := range roles {
		if identity.Role == role {
			return true
		}
	}
	return false
}

package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskflow-service/internal/domain"
	apperrors "github.com/spec-kit/taskflow-service/pkg/util/errorutil"
)

const identityKey = "auth_identity"

type ctxKey struct{}

// WithIdentity returns a context carrying the verified caller.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

// IdentityFrom retrieves the verified caller from a context.
func IdentityFrom(ctx context.Context) (*domain.Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(ctxKey{}).(*domain.Identity)
	return identity, ok && identity != nil
}

// IdentityFromContext retrieves the verified caller stored by the gate.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok && identity != nil && identity.SubjectID != ""
}

// RequireIdentity is the handler-side check that a caller was verified.
func RequireIdentity(c *fiber.Ctx) (*domain.Identity, error) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("unauthorized")
	}
	return identity, nil
}

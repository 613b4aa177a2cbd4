package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SetSessionCookie stores token in an HttpOnly, SameSite=Lax cookie that
// lives exactly as long as the token.
func SetSessionCookie(c *fiber.Ctx, cfg CookieConfig, token Token) {
	maxAge := int(token.ExpiresAt.Sub(token.IssuedAt) / time.Second)
	c.Cookie(&fiber.Cookie{
		Name:     cookieName(cfg),
		Value:    token.Value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie reissues the cookie empty and already expired.
// fasthttp never writes Max-Age=0, so expiry is expressed as an epoch Expires.
func ClearSessionCookie(c *fiber.Ctx, cfg CookieConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     cookieName(cfg),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func cookieName(cfg CookieConfig) string {
	if cfg.Name == "" {
		return DefaultCookieName
	}
	return cfg.Name
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func setCookieHeader(t *testing.T, handler fiber.Handler) string {
	t.Helper()
	app := fiber.New()
	app.Get("/", handler)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return strings.ToLower(resp.Header.Get("Set-Cookie"))
}

func TestSetSessionCookie(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token := Token{Value: "abc.def.ghi", IssuedAt: issued, ExpiresAt: issued.Add(time.Hour)}

	header := setCookieHeader(t, func(c *fiber.Ctx) error {
		SetSessionCookie(c, CookieConfig{Secure: true}, token)
		return nil
	})

	for _, want := range []string{"token=abc.def.ghi", "max-age=3600", "path=/", "httponly", "samesite=lax", "secure"} {
		if !strings.Contains(header, want) {
			t.Errorf("Set-Cookie %q missing %q", header, want)
		}
	}
}

func TestSetSessionCookieNotSecureInDevelopment(t *testing.T) {
	issued := time.Now()
	token := Token{Value: "v", IssuedAt: issued, ExpiresAt: issued.Add(time.Hour)}

	header := setCookieHeader(t, func(c *fiber.Ctx) error {
		SetSessionCookie(c, CookieConfig{}, token)
		return nil
	})
	if strings.Contains(header, "secure") {
		t.Fatalf("Set-Cookie %q must not be Secure", header)
	}
}

func TestClearSessionCookie(t *testing.T) {
	header := setCookieHeader(t, func(c *fiber.Ctx) error {
		ClearSessionCookie(c, CookieConfig{Name: "token"})
		return nil
	})

	if !strings.HasPrefix(header, "token=;") {
		t.Fatalf("Set-Cookie %q must carry an empty value", header)
	}
	for _, want := range []string{"expires=thu, 01 jan 1970 00:00:00 gmt", "path=/", "httponly", "samesite=lax"} {
		if !strings.Contains(header, want) {
			t.Errorf("Set-Cookie %q missing %q", header, want)
		}
	}
}

package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/taskflow-service/internal/api/http/handlers"
	"github.com/spec-kit/taskflow-service/internal/auth"
	"github.com/spec-kit/taskflow-service/internal/config"
	"github.com/spec-kit/taskflow-service/internal/domain"
	"github.com/spec-kit/taskflow-service/internal/observability"
	"github.com/spec-kit/taskflow-service/internal/service"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryUsers) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUsers) List(context.Context) ([]domain.UserSummary, error) { return nil, nil }

func (m *memoryUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

type testServer struct {
	app     *fiber.App
	users   *memoryUsers
	tokens  *auth.TokenManager
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, rateBurst int) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	users := &memoryUsers{users: map[string]*domain.User{}}
	authService := service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, service.AuthDependencies{
		UserRepo: users,
		Tokens:   tokens,
		Logger:   logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	gate := auth.NewGate(tokens, auth.GateConfig{
		Routes:   auth.NewRouteClassifier(auth.DefaultPublicRoutes()...),
		Recorder: metrics,
	}, logger)

	rate := 0.0
	if rateBurst > 0 {
		rate = 0.001
	}
	RegisterRoutes(app, RouteConfig{
		Gate:              gate,
		Health:            handlers.NewHealthHandler("taskflow", "test", nil, logger),
		Auth:              handlers.NewAuthHandler(authService, auth.CookieConfig{}),
		Projects:          handlers.NewProjectsHandler(nil),
		Tasks:             handlers.NewTasksHandler(nil),
		Users:             handlers.NewUsersHandler(nil),
		Dashboard:         handlers.NewDashboardHandler(nil),
		Metrics:           handlers.NewMetricsHandler(metrics),
		Pages:             handlers.NewPagesHandler("Taskflow"),
		AuthRatePerSecond: rate,
		AuthRateBurst:     rateBurst,
	})
	return &testServer{app: app, users: users, tokens: tokens, metrics: metrics}
}

func (s *testServer) seed(t *testing.T, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &domain.User{Name: "Seeded User", Email: email, PasswordHash: hash, Role: role}
	if err := s.users.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return u
}

func (s *testServer) bearer(t *testing.T, u *domain.User) string {
	t.Helper()
	token, err := s.tokens.Issue(auth.IdentityInput{SubjectID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return "Bearer " + token.Value
}

func (s *testServer) do(t *testing.T, req *nethttp.Request) (*nethttp.Response, string) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func jsonRequest(method, path, body string) *nethttp.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func sessionCookie(resp *nethttp.Response) *nethttp.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == auth.DefaultCookieName {
			return c
		}
	}
	return nil
}

func TestSignInSetsCookieAndOpensSession(t *testing.T) {
	s := newTestServer(t, 0)
	user := s.seed(t, "ada@example.com", "correct-horse", domain.RoleManager)

	resp, body := s.do(t, jsonRequest(nethttp.MethodPost, "/api/auth/signin", `{"email":" ADA@example.com ","password":"correct-horse"}`))
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var payload struct {
		Data struct {
			User struct {
				ID   string `json:"id"`
				Role string `json:"role"`
			} `json:"user"`
			Auth struct {
				Token     string    `json:"token"`
				ExpiresAt time.Time `json:"expires_at"`
			} `json:"auth"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.User.ID != user.ID || payload.Data.User.Role != "MANAGER" || payload.Data.Auth.Token == "" {
		t.Fatalf("payload = %+v", payload)
	}
	if strings.Contains(body, "password") {
		t.Fatalf("response leaks password material: %s", body)
	}

	cookie := sessionCookie(resp)
	if cookie == nil || cookie.Value != payload.Data.Auth.Token || !cookie.HttpOnly || cookie.MaxAge != 3600 {
		t.Fatalf("cookie = %+v", cookie)
	}

	me := httptest.NewRequest(nethttp.MethodGet, "/api/auth/me", nil)
	me.AddCookie(&nethttp.Cookie{Name: cookie.Name, Value: cookie.Value})
	resp, body = s.do(t, me)
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(body, user.ID) {
		t.Fatalf("me status = %d, body = %s", resp.StatusCode, body)
	}
}

func TestSignInFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t, 0)
	s.seed(t, "ada@example.com", "correct-horse", domain.RoleStaff)

	wrong, wrongBody := s.do(t, jsonRequest(nethttp.MethodPost, "/api/auth/signin", `{"email":"ada@example.com","password":"nope"}`))
	unknown, unknownBody := s.do(t, jsonRequest(nethttp.MethodPost, "/api/auth/signin", `{"email":"ghost@example.com","password":"nope"}`))

	if wrong.StatusCode != nethttp.StatusUnauthorized || unknown.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d", wrong.StatusCode, unknown.StatusCode)
	}
	if wrongBody != unknownBody {
		t.Fatalf("bodies differ:\n%s\n%s", wrongBody, unknownBody)
	}
	if !strings.Contains(wrongBody, `"INVALID_CREDENTIALS"`) {
		t.Fatalf("body = %s", wrongBody)
	}
	if sessionCookie(wrong) != nil || sessionCookie(unknown) != nil {
		t.Fatal("failed sign-in must not set a session cookie")
	}
}

func TestSignInValidation(t *testing.T) {
	s := newTestServer(t, 0)
	resp, body := s.do(t, jsonRequest(nethttp.MethodPost, "/api/auth/signin", `{"email":"","password":""}`))
	if resp.StatusCode != nethttp.StatusBadRequest || !strings.Contains(body, "VALIDATION_FAILED") {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	resp, _ = s.do(t, jsonRequest(nethttp.MethodPost, "/api/auth/signin", `{not json`))
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("malformed payload status = %d", resp.StatusCode)
	}
}

func TestSignUpCreatesStaffSession(t *testing.T) {
	s := newTestServer(t, 0)
	resp, body := s.do(t, jsonRequest(nethttp.MethodPost, "/api/auth/signup", `{"name":"Grace Hopper","email":"grace@example.com","password":"cobol123"}`))
	if resp.StatusCode != nethttp.StatusCreated || !strings.Contains(body, `"role":"STAFF"`) {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if sessionCookie(resp) == nil {
		t.Fatal("sign-up must set the session cookie")
	}

	resp, body = s.do(t, jsonRequest(nethttp.MethodPost, "/api/auth/signup", `{"name":"Grace Again","email":"GRACE@example.com","password":"cobol123"}`))
	if resp.StatusCode != nethttp.StatusConflict {
		t.Fatalf("duplicate status = %d, body = %s", resp.StatusCode, body)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t, 0)
	user := s.seed(t, "ada@example.com", "pw-123456", domain.RoleStaff)

	req := httptest.NewRequest(nethttp.MethodPost, "/api/auth/logout", nil)
	req.Header.Set(fiber.HeaderAuthorization, s.bearer(t, user))
	resp, _ := s.do(t, req)
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	header := strings.ToLower(resp.Header.Get(fiber.HeaderSetCookie))
	if !strings.HasPrefix(header, "token=;") || !strings.Contains(header, "expires=thu, 01 jan 1970") {
		t.Fatalf("Set-Cookie = %q", header)
	}

	resp, _ = s.do(t, httptest.NewRequest(nethttp.MethodPost, "/api/auth/logout", nil))
	if resp.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("anonymous logout status = %d", resp.StatusCode)
	}
}

func TestGateProtectsAPIAndPages(t *testing.T) {
	s := newTestServer(t, 0)
	const want = `{"error":{"code":"UNAUTHORIZED","message":"unauthorized"}}`

	for _, header := range []string{"", "Bearer garbage"} {
		req := httptest.NewRequest(nethttp.MethodGet, "/api/projects", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, body := s.do(t, req)
		if resp.StatusCode != nethttp.StatusUnauthorized || body != want {
			t.Fatalf("auth %q: status = %d, body = %s", header, resp.StatusCode, body)
		}
	}

	resp, _ := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/dashboard", nil))
	if resp.StatusCode != nethttp.StatusTemporaryRedirect || resp.Header.Get(fiber.HeaderLocation) != "/signin" {
		t.Fatalf("page status = %d, location = %q", resp.StatusCode, resp.Header.Get(fiber.HeaderLocation))
	}

	resp, body := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/signin", nil))
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(body, `data-page="/signin"`) {
		t.Fatalf("signin page status = %d, body = %s", resp.StatusCode, body)
	}

	resp, _ = s.do(t, httptest.NewRequest(nethttp.MethodGet, "/health/live", nil))
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}

func TestProtectedRoutesWithSession(t *testing.T) {
	s := newTestServer(t, 0)
	staff := s.seed(t, "staff@example.com", "pw-123456", domain.RoleStaff)
	admin := s.seed(t, "admin@example.com", "pw-123456", domain.RoleAdmin)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/projects/not-a-uuid", nil)
	req.Header.Set(fiber.HeaderAuthorization, s.bearer(t, staff))
	resp, body := s.do(t, req)
	if resp.StatusCode != nethttp.StatusNotFound || !strings.Contains(body, "NOT_FOUND") {
		t.Fatalf("bad id status = %d, body = %s", resp.StatusCode, body)
	}

	req = httptest.NewRequest(nethttp.MethodGet, "/api/metrics", nil)
	req.Header.Set(fiber.HeaderAuthorization, s.bearer(t, staff))
	if resp, _ = s.do(t, req); resp.StatusCode != nethttp.StatusForbidden {
		t.Fatalf("staff metrics status = %d", resp.StatusCode)
	}

	req = httptest.NewRequest(nethttp.MethodGet, "/api/metrics", nil)
	req.Header.Set(fiber.HeaderAuthorization, s.bearer(t, admin))
	resp, body = s.do(t, req)
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(body, "gateDecisions") {
		t.Fatalf("admin metrics status = %d, body = %s", resp.StatusCode, body)
	}

	req = httptest.NewRequest(nethttp.MethodDelete, "/api/users/"+admin.ID, nil)
	req.Header.Set(fiber.HeaderAuthorization, s.bearer(t, staff))
	if resp, _ = s.do(t, req); resp.StatusCode != nethttp.StatusForbidden {
		t.Fatalf("staff delete status = %d", resp.StatusCode)
	}

	req = httptest.NewRequest(nethttp.MethodGet, "/api/nowhere", nil)
	req.Header.Set(fiber.HeaderAuthorization, s.bearer(t, staff))
	if resp, _ = s.do(t, req); resp.StatusCode != nethttp.StatusNotFound {
		t.Fatalf("unknown route status = %d", resp.StatusCode)
	}
}

func TestAuthEndpointsAreRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		resp, _ := s.do(t, jsonRequest(nethttp.MethodPost, "/api/auth/signin", `{"email":"x@example.com","password":"nope"}`))
		if resp.StatusCode != nethttp.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d", i, resp.StatusCode)
		}
	}
	resp, body := s.do(t, jsonRequest(nethttp.MethodPost, "/api/auth/signin", `{"email":"x@example.com","password":"nope"}`))
	if resp.StatusCode != nethttp.StatusTooManyRequests || !strings.Contains(body, "TOO_MANY_REQUESTS") {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
}

func TestErrorMetricsKeyedByRoute(t *testing.T) {
	s := newTestServer(t, 0)

	for i := 0; i < 200; i++ {
		req := httptest.NewRequest(nethttp.MethodGet, "/api/x"+uuid.NewString(), nil)
		if resp, _ := s.do(t, req); resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", resp.StatusCode)
		}
	}

	admin := s.seed(t, "root@example.com", "Password123!", domain.RoleAdmin)
	header := s.bearer(t, admin)
	for i := 0; i < 200; i++ {
		req := httptest.NewRequest(nethttp.MethodGet, "/api/unknown/"+uuid.NewString(), nil)
		req.Header.Set(fiber.HeaderAuthorization, header)
		if resp, _ := s.do(t, req); resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	}

	snap := s.metrics.Snapshot()
	if len(snap.Errors) > 4 {
		t.Fatalf("error keys = %d, want a handful: %v", len(snap.Errors), snap.Errors)
	}
	if len(snap.Requests) > 4 {
		t.Fatalf("request keys = %d, want a handful: %v", len(snap.Requests), snap.Requests)
	}
	for key := range snap.Errors {
		if strings.Contains(key, "/api/x") || strings.Contains(key, "/api/unknown/") {
			t.Fatalf("error key %q carries the raw path", key)
		}
	}
}

func TestResponsesCarryRequestID(t *testing.T) {
	s := newTestServer(t, 0)

	first, _ := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/health/live", nil))
	second, _ := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/projects", nil))

	a := first.Header.Get(fiber.HeaderXRequestID)
	b := second.Header.Get(fiber.HeaderXRequestID)
	if a == "" || b == "" {
		t.Fatalf("X-Request-ID missing: %q, %q", a, b)
	}
	if a == b {
		t.Fatalf("request ids repeat: %q", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("request id %q is not a uuid: %v", a, err)
	}

	req := httptest.NewRequest(nethttp.MethodGet, "/health/live", nil)
	req.Header.Set(fiber.HeaderXRequestID, "upstream-id")
	resp, _ := s.do(t, req)
	if got := resp.Header.Get(fiber.HeaderXRequestID); got != "upstream-id" {
		t.Fatalf("X-Request-ID = %q, want the caller's id", got)
	}
}

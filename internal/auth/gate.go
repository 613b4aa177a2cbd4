package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/taskflow-service/internal/domain"
	apperrors "github.com/spec-kit/taskflow-service/pkg/util/errorutil"
)

const (
	// DefaultCookieName carries the session token.
	DefaultCookieName = "token"
	// DefaultSignInPath is where denied page navigations are redirected.
	DefaultSignInPath = "/signin"

	apiPrefix = "/api/"
)

// Gate decisions reported to a DecisionRecorder.
const (
	DecisionPublic  = "public"
	DecisionAllowed = "allowed"
	DecisionMissing = "denied_missing"
	DecisionInvalid = "denied_invalid"
)

// DefaultPublicRoutes lists the path prefixes reachable without a token.
func DefaultPublicRoutes() []string {
	return []string{
		"/signin",
		"/signup",
		"/api/auth/signin",
		"/api/auth/signup",
		"/health/",
	}
}

// RouteClassifier partitions request paths into public and protected.
// A path is public when it starts with one of the allow-listed prefixes;
// every other path is protected.
type RouteClassifier struct {
	public []string
}

// NewRouteClassifier builds a classifier over the given public prefixes.
func NewRouteClassifier(public ...string) RouteClassifier {
	prefixes := make([]string, 0, len(public))
	for _, p := range public {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return RouteClassifier{public: prefixes}
}

// IsPublic reports whether path needs no identity.
func (rc RouteClassifier) IsPublic(path string) bool {
	for _, prefix := range rc.public {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IsAPI reports whether path is a machine-facing endpoint. Everything else
// is treated as browser navigation.
func (rc RouteClassifier) IsAPI(path string) bool {
	return strings.HasPrefix(path, apiPrefix)
}

// TokenVerifier verifies session tokens.
type TokenVerifier interface {
	Verify(token string) (*domain.IdentityClaim, error)
}

// DecisionRecorder receives one decision per gated request.
type DecisionRecorder interface {
	RecordGateDecision(decision string)
}

// GateConfig configures the request gate.
type GateConfig struct {
	CookieName string
	SignInPath string
	Routes     RouteClassifier
	Recorder   DecisionRecorder
}

// Gate authenticates every inbound request before it reaches a handler.
type Gate struct {
	tokens     TokenVerifier
	routes     RouteClassifier
	cookieName string
	signInPath string
	recorder   DecisionRecorder
	logger     *zap.Logger
}

// NewGate constructs the gate middleware.
func NewGate(tokens TokenVerifier, cfg GateConfig, logger *zap.Logger) *Gate {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.SignInPath == "" {
		cfg.SignInPath = DefaultSignInPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		tokens:     tokens,
		routes:     cfg.Routes,
		cookieName: cfg.CookieName,
		signInPath: cfg.SignInPath,
		recorder:   cfg.Recorder,
		logger:     logger,
	}
}

// Handle classifies, extracts, verifies, then forwards or denies.
func (g *Gate) Handle(c *fiber.Ctx) error {
	path := c.Path()
	if g.routes.IsPublic(path) {
		g.record(DecisionPublic)
		return c.Next()
	}

	identity, decision := g.authenticate(c)
	if identity == nil {
		g.record(decision)
		g.logger.Debug("request denied",
			zap.String("path", path),
			zap.String("method", c.Method()),
			zap.String("reason", decision))
		return g.deny(c, path)
	}

	g.record(DecisionAllowed)
	if g.routes.IsAPI(path) {
		c.Locals(identityKey, identity)
		c.SetUserContext(WithIdentity(c.UserContext(), identity))
	}
	return c.Next()
}

func (g *Gate) authenticate(c *fiber.Ctx) (identity *domain.Identity, decision string) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("token verification panicked", zap.Any("panic", r))
			identity, decision = nil, DecisionInvalid
		}
	}()

	token := g.extract(c)
	if token == "" {
		return nil, DecisionMissing
	}
	if g.tokens == nil {
		return nil, DecisionInvalid
	}
	claim, err := g.tokens.Verify(token)
	if err != nil || claim == nil {
		return nil, DecisionInvalid
	}
	return &domain.Identity{
		SubjectID: claim.SubjectID,
		Email:     claim.Email,
		Role:      claim.Role,
	}, DecisionAllowed
}

// extract prefers the session cookie and falls back to a bearer header.
func (g *Gate) extract(c *fiber.Ctx) string {
	if token := strings.TrimSpace(c.Cookies(g.cookieName)); token != "" {
		return token
	}
	return BearerToken(c.Get(fiber.HeaderAuthorization))
}

func (g *Gate) deny(c *fiber.Ctx, path string) error {
	if g.routes.IsAPI(path) {
		return apperrors.NewUnauthorized("unauthorized")
	}
	return c.Redirect(g.signInPath, fiber.StatusTemporaryRedirect)
}

func (g *Gate) record(decision string) {
	if g.recorder != nil {
		g.recorder.RecordGateDecision(decision)
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

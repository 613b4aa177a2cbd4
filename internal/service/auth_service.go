package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/taskflow-service/internal/auth"
	"github.com/spec-kit/taskflow-service/internal/config"
	"github.com/spec-kit/taskflow-service/internal/domain"
	"github.com/spec-kit/taskflow-service/internal/events"
	"github.com/spec-kit/taskflow-service/internal/repository"
	apperrors "github.com/spec-kit/taskflow-service/pkg/util/errorutil"
)

const (
	minNameLength     = 2
	minPasswordLength = 6
)

// AuthResult is a signed-in account and its fresh session token.
type AuthResult struct {
	User  *domain.User
	Token auth.Token
}

// AuthService coordinates sign-up and sign-in flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	throttle   LoginThrottle
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Throttle   LoginThrottle
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		throttle:   deps.Throttle,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// SignIn authenticates by email and password. Unknown accounts and wrong
// passwords produce the same error.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "email is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if err := validationFailed(fields); err != nil {
		return nil, err
	}

	if s.throttled(ctx, email) {
		s.logger.Info("sign-in throttled")
		return nil, apperrors.NewTooManyRequests("too many failed sign-in attempts, try again later")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}
	if user == nil {
		auth.BurnPasswordCheck(password)
		s.signInFailed(ctx, email)
		return nil, apperrors.NewInvalidCredentials()
	}
	if !auth.PasswordMatches(user.PasswordHash, password) {
		s.signInFailed(ctx, email)
		return nil, apperrors.NewInvalidCredentials()
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.logger.Warn("reset sign-in throttle", zap.Error(err))
		}
	}
	return s.issue(user)
}

// SignUp registers a STAFF account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*AuthResult, error) {
	user, err := s.createAccount(ctx, name, email, password, domain.RoleStaff)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventUserSignedUp,
		SubjectID: user.ID,
		ActorID:   user.ID,
		Payload:   events.UserSignedUpPayload{Email: user.Email, Role: user.Role},
	})
	return s.issue(user)
}

// Me loads the account behind a verified identity.
func (s *AuthService) Me(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	if identity == nil {
		return nil, apperrors.NewUnauthorized("unauthorized")
	}
	user, err := s.users.GetByID(ctx, identity.SubjectID)
	if errors.Is(err, pgx.ErrNoRows) {
		// The account was deleted after the token was issued.
		return nil, apperrors.NewUnauthorized("unauthorized")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Provision creates an account with any role without a calling identity.
// It backs operator tooling such as the seed command.
func (s *AuthService) Provision(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	return s.createAccount(ctx, name, email, password, domain.Role(strings.ToUpper(string(role))))
}

func (s *AuthService) createAccount(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateAccount(name, email, password, role); err != nil {
		return nil, err
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(auth.IdentityInput{
		SubjectID: user.ID,
		Email:     user.Email,
		Role:      user.Role,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// throttled fails open: the throttle is a brute-force brake, not the gate.
func (s *AuthService) throttled(ctx context.Context, email string) bool {
	if s.throttle == nil {
		return false
	}
	blocked, err := s.throttle.Blocked(ctx, email)
	if err != nil {
		s.logger.Warn("sign-in throttle unavailable", zap.Error(err))
		return false
	}
	return blocked
}

func (s *AuthService) signInFailed(ctx context.Context, email string) {
	s.logger.Info("sign-in failed")
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.logger.Warn("record sign-in failure", zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateAccount(name, email, password string, role domain.Role) error {
	fields := accountFieldErrors(name, email, role)
	if len(password) < minPasswordLength {
		fields["password"] = "password must be at least 6 characters"
	}
	return validationFailed(fields)
}

func accountFieldErrors(name, email string, role domain.Role) map[string]string {
	fields := map[string]string{}
	if len([]rune(name)) < minNameLength {
		fields["name"] = "name must be at least 2 characters"
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		fields["email"] = "a valid email is required"
	}
	if !role.Valid() {
		fields["role"] = "role must be ADMIN, MANAGER or STAFF"
	}
	return fields
}

func validationFailed(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return apperrors.NewValidationError("validation failed", details)
}

package service

import (
	"context"
	"strings"

	"github.com/spec-kit/taskflow-service/internal/auth"
	"github.com/spec-kit/taskflow-service/internal/config"
	"github.com/spec-kit/taskflow-service/internal/domain"
	"github.com/spec-kit/taskflow-service/internal/repository"
	apperrors "github.com/spec-kit/taskflow-service/pkg/util/errorutil"
)

// UserCreateInput describes an account created by user management.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UserPatch lists account fields to change. Role changes need an elevated caller.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UserDetail is an account with its assigned tasks and owned projects.
type UserDetail struct {
	User     *domain.User
	Tasks    []domain.TaskWithContext
	Projects []domain.ProjectSummary
}

// UserService manages accounts.
type UserService struct {
	users      repository.UserRepository
	tasks      repository.TaskRepository
	projects   repository.ProjectRepository
	accounts   *AuthService
	bcryptCost int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo    repository.UserRepository
	TaskRepo    repository.TaskRepository
	ProjectRepo repository.ProjectRepository
	AuthService *AuthService
}

// NewUserService constructs the service.
func NewUserService(cfg config.AuthConfig, deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		tasks:      deps.TaskRepo,
		projects:   deps.ProjectRepo,
		accounts:   deps.AuthService,
		bcryptCost: cfg.BcryptCost,
	}
}

// ListUsers returns every account with its task count, newest first.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.Identity) ([]domain.UserSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// GetUser returns an account with its tasks and projects.
func (s *UserService) GetUser(ctx context.Context, actor *domain.Identity, userID string) (*UserDetail, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	tasks, err := s.tasks.ListAssigned(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	projects, err := s.projects.ListSummariesByOwner(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: user, Tasks: tasks, Projects: projects}, nil
}

// CreateUser lets ADMIN and MANAGER callers add accounts. Only an ADMIN may
// create another ADMIN.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.Identity, input UserCreateInput) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !isElevated(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	role := input.Role
	if role == "" {
		role = domain.RoleStaff
	}
	role = domain.Role(strings.ToUpper(string(role)))
	if role == domain.RoleAdmin && !isAdmin(actor) {
		return nil, apperrors.NewForbidden("only administrators can create administrators")
	}
	return s.accounts.createAccount(ctx, input.Name, input.Email, input.Password, role)
}

// UpdateUser applies a partial update. Callers may edit their own name,
// email and password; editing others or any role needs ADMIN or MANAGER.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.Identity, userID string, patch UserPatch) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	self := actor.SubjectID == userID
	if !self && !isElevated(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	if patch.Role != nil && !isElevated(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	if user.Role == domain.RoleAdmin && !isAdmin(actor) && !self {
		return nil, apperrors.NewForbidden("only administrators can edit administrators")
	}

	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		user.Email = normalizeEmail(*patch.Email)
	}
	if patch.Role != nil {
		role := domain.Role(strings.ToUpper(string(*patch.Role)))
		if role == domain.RoleAdmin && !isAdmin(actor) {
			return nil, apperrors.NewForbidden("only administrators can grant ADMIN")
		}
		user.Role = role
	}

	fields := accountFieldErrors(user.Name, user.Email, user.Role)
	if patch.Password != nil && len(*patch.Password) < minPasswordLength {
		fields["password"] = "password must be at least 6 characters"
	}
	if err := validationFailed(fields); err != nil {
		return nil, err
	}

	if patch.Password != nil {
		hash, err := auth.HashPassword(*patch.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, notFoundOr(err, "user")
	}
	return user, nil
}

// DeleteUser lets an ADMIN remove any account except their own.
func (s *UserService) DeleteUser(ctx context.Context, actor *domain.Identity, userID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !isAdmin(actor) {
		return apperrors.NewForbidden("insufficient role")
	}
	if actor.SubjectID == userID {
		return apperrors.NewValidationError("you cannot delete your own account", nil)
	}
	return notFoundOr(s.users.Delete(ctx, userID), "user")
}

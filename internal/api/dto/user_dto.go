package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// SignUpRequest payload for new accounts.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest payload for sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// SessionResponse wraps the account and token returned on sign-in and sign-up.
type SessionResponse struct {
	User UserResponse `json:"user"`
	Auth AuthResponse `json:"auth"`
}

// IdentityResponse is the verified caller as seen by the gate.
type IdentityResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// CreateUserRequest payload for administrator-created accounts.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserRequest carries only the fields to change.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// UserListItem is one row of the team page.
type UserListItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Initials   string    `json:"initials"`
	TaskCount  int       `json:"taskCount"`
	LastActive string    `json:"lastActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserDetailResponse is an account with its assigned tasks and projects.
type UserDetailResponse struct {
	UserResponse
	Initials string            `json:"initials"`
	Tasks    []TaskResponse    `json:"tasks"`
	Projects []ProjectResponse `json:"projects"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

// NewUserListItems maps user summaries. Last activity is the latest account
// update.
func NewUserListItems(users []domain.UserSummary, now time.Time) []UserListItem {
	out := make([]UserListItem, 0, len(users))
	for _, u := range users {
		out = append(out, UserListItem{
			ID:         u.ID,
			Name:       u.Name,
			Email:      u.Email,
			Role:       strings.ToLower(string(u.Role)),
			Initials:   Initials(u.Name),
			TaskCount:  u.TaskCount,
			LastActive: RelativeTime(lastActive(u.User), now),
			CreatedAt:  u.CreatedAt,
		})
	}
	return out
}

func lastActive(u domain.User) time.Time {
	if u.UpdatedAt.After(u.CreatedAt) {
		return u.UpdatedAt
	}
	return u.CreatedAt
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/taskflow-service/internal/domain"
	"github.com/spec-kit/taskflow-service/internal/events"
	apperrors "github.com/spec-kit/taskflow-service/pkg/util/errorutil"
)

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func requireActor(actor *domain.Identity) error {
	if actor == nil || actor.SubjectID == "" {
		return apperrors.NewUnauthorized("unauthorized")
	}
	return nil
}

func isAdmin(actor *domain.Identity) bool {
	return actor != nil && actor.Role == domain.RoleAdmin
}

func isElevated(actor *domain.Identity) bool {
	return actor != nil && (actor.Role == domain.RoleAdmin || actor.Role == domain.RoleManager)
}

// canAccessProject allows the owner and administrators.
func canAccessProject(actor *domain.Identity, project *domain.Project) bool {
	return actor != nil && (isAdmin(actor) || project.CreatedBy == actor.SubjectID)
}

// canAccessTask allows the assignee, the project owner and administrators.
func canAccessTask(actor *domain.Identity, task *domain.TaskWithContext) bool {
	if actor == nil {
		return false
	}
	return isAdmin(actor) || task.AssignedTo == actor.SubjectID || task.ProjectOwnerID == actor.SubjectID
}

// notFoundOr maps a missing row to a NOT_FOUND error for resource and wraps
// anything else.
func notFoundOr(err error, resource string) error {
	if err == nil {
		return nil
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Code == "NOT_FOUND" {
		return apperrors.NewNotFound(resource, nil)
	}
	return domainErr
}

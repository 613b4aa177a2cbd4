package events

import (
	"time"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTaskCreated   EventType = "task_created"
	EventTaskUpdated   EventType = "task_updated"
	EventTaskCompleted EventType = "task_completed"
	EventCommentAdded  EventType = "comment_added"
	EventUserSignedUp  EventType = "user_signed_up"
)

// Event represents a domain event emitted by services.
// SubjectID is the task or user the event is about.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TaskCreatedPayload payload.
type TaskCreatedPayload struct {
	ListID     string              `json:"list_id"`
	AssignedTo string              `json:"assigned_to"`
	Title      string              `json:"title"`
	Priority   domain.TaskPriority `json:"priority"`
}

// TaskUpdatedPayload payload.
type TaskUpdatedPayload struct {
	AssignedTo string            `json:"assigned_to"`
	Status     domain.TaskStatus `json:"status"`
	Fields     []string          `json:"fields"`
}

// TaskCompletedPayload payload.
type TaskCompletedPayload struct {
	AssignedTo string `json:"assigned_to"`
	Title      string `json:"title"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	TaskID      string `json:"task_id"`
	BodyPreview string `json:"body_preview"`
}

// UserSignedUpPayload payload.
type UserSignedUpPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

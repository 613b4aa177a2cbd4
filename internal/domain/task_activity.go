package domain

import "time"

// TaskChangeType captures what a history entry records.
type TaskChangeType string

const (
	ChangeTypeCreated   TaskChangeType = "created"
	ChangeTypeUpdated   TaskChangeType = "updated"
	ChangeTypeCompleted TaskChangeType = "completed"
)

// TaskHistory is an immutable audit trail entry.
type TaskHistory struct {
	ID            string
	TaskID        string
	ChangedBy     string
	ChangedByName string
	ChangeType    TaskChangeType
	ChangedAt     time.Time
}

// TaskComment is a note left on a task.
type TaskComment struct {
	ID        string
	TaskID    string
	UserID    string
	UserName  string
	UserEmail string
	Body      string
	CreatedAt time.Time
}

// Activity is one dashboard feed row, built from history or comments.
type Activity struct {
	Action    string
	TaskTitle string
	UserName  string
	At        time.Time
}

// ActivityCommented is the feed action for a new comment.
const ActivityCommented = "commented"

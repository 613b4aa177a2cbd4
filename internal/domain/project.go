package domain

import "time"

// Project groups task lists and is owned by its creator.
type Project struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectSummary is a project with its task counters.
type ProjectSummary struct {
	Project
	TaskCount      int
	CompletedCount int
}

// TaskList is a column of tasks inside a project.
type TaskList struct {
	ID        string
	ProjectID string
	Name      string
	CreatedAt time.Time
}

// DefaultTaskListName is the list created alongside every new project.
const DefaultTaskListName = "To Do"

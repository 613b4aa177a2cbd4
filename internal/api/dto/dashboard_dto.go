package dto

import (
	"time"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// DashboardStatsResponse summarizes the caller's workload.
type DashboardStatsResponse struct {
	TotalTasks     int              `json:"totalTasks"`
	CompletedToday int              `json:"completedToday"`
	InProgress     int              `json:"inProgress"`
	Overdue        int              `json:"overdue"`
	Tasks          []MyTaskResponse `json:"tasks"`
}

// ActivityResponse is one dashboard feed row.
type ActivityResponse struct {
	Action    string    `json:"action"`
	TaskTitle string    `json:"taskTitle"`
	UserName  string    `json:"userName"`
	Time      string    `json:"time"`
	At        time.Time `json:"at"`
}

// NewActivityResponses maps feed rows, rendering relative times against now.
func NewActivityResponses(in []domain.Activity, now time.Time) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(in))
	for _, a := range in {
		out = append(out, ActivityResponse{
			Action:    a.Action,
			TaskTitle: a.TaskTitle,
			UserName:  a.UserName,
			Time:      RelativeTime(a.At, now),
			At:        a.At,
		})
	}
	return out
}

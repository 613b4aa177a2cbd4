package service

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/taskflow-service/internal/domain"
	"github.com/spec-kit/taskflow-service/internal/repository"
)

const (
	dashboardOpenTasks = 4
	activityFeedSize   = 10
)

// DashboardStats summarises the caller's assigned tasks.
type DashboardStats struct {
	TotalTasks     int
	CompletedToday int
	InProgress     int
	Overdue        int
	OpenTasks      []domain.TaskWithContext
}

// DashboardService computes the personal dashboard.
type DashboardService struct {
	tasks    repository.TaskRepository
	comments repository.CommentRepository
	history  repository.HistoryRepository
	now      func() time.Time
}

// DashboardDependencies bundles repositories for the dashboard.
type DashboardDependencies struct {
	TaskRepo    repository.TaskRepository
	CommentRepo repository.CommentRepository
	HistoryRepo repository.HistoryRepository
	Now         func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		tasks:    deps.TaskRepo,
		comments: deps.CommentRepo,
		history:  deps.HistoryRepo,
		now:      now,
	}
}

// Stats counts the caller's tasks and picks the newest open ones.
// CompletedToday counts tasks completed since local midnight, using the
// last update as the completion time.
func (s *DashboardService) Stats(ctx context.Context, actor *domain.Identity) (*DashboardStats, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListAssigned(ctx, actor.SubjectID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats := &DashboardStats{TotalTasks: len(tasks), OpenTasks: []domain.TaskWithContext{}}
	for _, task := range tasks {
		switch task.Status {
		case domain.TaskStatusCompleted:
			if !task.UpdatedAt.Before(midnight) {
				stats.CompletedToday++
			}
		case domain.TaskStatusInProgress:
			stats.InProgress++
		}
		if task.Overdue(now) {
			stats.Overdue++
		}
		if task.Status != domain.TaskStatusCompleted && len(stats.OpenTasks) < dashboardOpenTasks {
			stats.OpenTasks = append(stats.OpenTasks, task)
		}
	}
	return stats, nil
}

// Activity merges recent history and comments on the caller's tasks,
// newest first.
func (s *DashboardService) Activity(ctx context.Context, actor *domain.Identity) ([]domain.Activity, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	changes, err := s.history.ListRecentForAssignee(ctx, actor.SubjectID, activityFeedSize)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListRecentForAssignee(ctx, actor.SubjectID, activityFeedSize)
	if err != nil {
		return nil, err
	}
	return mergeActivity(changes, comments, activityFeedSize), nil
}

func mergeActivity(a, b []domain.Activity, limit int) []domain.Activity {
	merged := make([]domain.Activity, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].At.After(merged[j].At)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

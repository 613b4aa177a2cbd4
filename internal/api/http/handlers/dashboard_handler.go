package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskflow-service/internal/api/dto"
	"github.com/spec-kit/taskflow-service/internal/service"
)

// DashboardHandler serves the caller's overview.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Stats GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.DashboardStatsResponse{
		TotalTasks:     stats.TotalTasks,
		CompletedToday: stats.CompletedToday,
		InProgress:     stats.InProgress,
		Overdue:        stats.Overdue,
		Tasks:          dto.NewMyTaskResponses(stats.OpenTasks, time.Now()),
	})
}

// Activity GET /api/dashboard/activity.
func (h *DashboardHandler) Activity(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	feed, err := h.service.Activity(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewActivityResponses(feed, time.Now()))
}

package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/spec-kit/taskflow-service/internal/api/http/handlers"
	"github.com/spec-kit/taskflow-service/internal/auth"
	"github.com/spec-kit/taskflow-service/internal/domain"
)

const limiterIdleTTL = 10 * time.Minute

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Gate      *auth.Gate
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Projects  *handlers.ProjectsHandler
	Tasks     *handlers.TasksHandler
	Users     *handlers.UsersHandler
	Dashboard *handlers.DashboardHandler
	Metrics   *handlers.MetricsHandler
	Pages     *handlers.PagesHandler

	// AuthRatePerSecond and AuthRateBurst bound sign-in and sign-up calls
	// per client IP. A zero rate disables the limiter.
	AuthRatePerSecond float64
	AuthRateBurst     int
}

// RegisterRoutes wires HTTP routes. Every route sits behind the gate; the
// gate's public allow-list decides which ones need no session.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	credentials := []fiber.Handler{}
	if cfg.AuthRatePerSecond > 0 {
		limiter := newIPLimiter(rate.Limit(cfg.AuthRatePerSecond), cfg.AuthRateBurst, limiterIdleTTL)
		credentials = append(credentials, rateLimitMiddleware(limiter))
	}
	authGroup.Post("/signin", append(credentials, cfg.Auth.SignIn)...)
	authGroup.Post("/signup", append(credentials, cfg.Auth.SignUp)...)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", cfg.Auth.Me)

	api.Get("/projects", cfg.Projects.ListProjects)
	api.Post("/projects", cfg.Projects.CreateProject)
	api.Get("/projects/:id", cfg.Projects.GetProject)
	api.Patch("/projects/:id", cfg.Projects.UpdateProject)
	api.Delete("/projects/:id", cfg.Projects.DeleteProject)

	api.Get("/tasklists", cfg.Projects.ListTaskLists)
	api.Post("/tasklists", cfg.Projects.CreateTaskList)

	api.Get("/tasks", cfg.Tasks.ListTasks)
	api.Post("/tasks", cfg.Tasks.CreateTask)
	api.Get("/tasks/:id", cfg.Tasks.GetTask)
	api.Put("/tasks/:id", cfg.Tasks.UpdateTask)
	api.Patch("/tasks/:id", cfg.Tasks.UpdateTaskStatus)
	api.Delete("/tasks/:id", cfg.Tasks.DeleteTask)

	api.Get("/comments", cfg.Tasks.ListComments)
	api.Post("/comments", cfg.Tasks.AddComment)

	elevated := auth.RequireRole(domain.RoleAdmin, domain.RoleManager)
	api.Get("/users", cfg.Users.ListUsers)
	api.Post("/users", elevated, cfg.Users.CreateUser)
	api.Get("/users/:id", cfg.Users.GetUser)
	api.Patch("/users/:id", cfg.Users.UpdateUser)
	api.Delete("/users/:id", auth.RequireRole(domain.RoleAdmin), cfg.Users.DeleteUser)

	api.Get("/dashboard/stats", cfg.Dashboard.Stats)
	api.Get("/dashboard/activity", cfg.Dashboard.Activity)

	api.Get("/metrics", auth.RequireRole(domain.RoleAdmin), cfg.Metrics.Snapshot)

	for _, path := range handlers.PagePaths {
		app.Get(path, cfg.Pages.Render)
	}
}

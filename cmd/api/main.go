package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/taskflow-service/internal/api/http"
	"github.com/spec-kit/taskflow-service/internal/api/http/handlers"
	"github.com/spec-kit/taskflow-service/internal/auth"
	"github.com/spec-kit/taskflow-service/internal/config"
	"github.com/spec-kit/taskflow-service/internal/events"
	"github.com/spec-kit/taskflow-service/internal/observability"
	"github.com/spec-kit/taskflow-service/internal/persistence"
	"github.com/spec-kit/taskflow-service/internal/repository"
	"github.com/spec-kit/taskflow-service/internal/service"
	"github.com/spec-kit/taskflow-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	listRepo := repository.NewTaskListRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger, metrics)
	notifier := worker.NewNotificationWorker(service.NewNotificationService(logger, cfg.Notification), logger, 0)
	notifier.Register(dispatcher)
	notifier.Start(ctx)

	authDeps := service.AuthDependencies{
		UserRepo:   userRepo,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	if client := redis.Cmdable(); client != nil {
		authDeps.Throttle = service.NewRedisLoginThrottle(client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow())
	}
	authService := service.NewAuthService(cfg.Auth, authDeps)

	projectService := service.NewProjectService(service.ProjectDependencies{
		ProjectRepo:  projectRepo,
		TaskListRepo: listRepo,
		TaskRepo:     taskRepo,
	})
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:     taskRepo,
		TaskListRepo: listRepo,
		ProjectRepo:  projectRepo,
		CommentRepo:  commentRepo,
		HistoryRepo:  historyRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	userService := service.NewUserService(cfg.Auth, service.UserDependencies{
		UserRepo:    userRepo,
		TaskRepo:    taskRepo,
		ProjectRepo: projectRepo,
		AuthService: authService,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		TaskRepo:    taskRepo,
		CommentRepo: commentRepo,
		HistoryRepo: historyRepo,
	})

	gate := auth.NewGate(tokens, auth.GateConfig{
		CookieName: cfg.Auth.CookieName,
		SignInPath: cfg.Auth.SignInPath,
		Routes:     auth.NewRouteClassifier(auth.DefaultPublicRoutes()...),
		Recorder:   metrics,
	}, logger)
	cookie := auth.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure()}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Gate: gate,
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, logger),
		Auth:              handlers.NewAuthHandler(authService, cookie),
		Projects:          handlers.NewProjectsHandler(projectService),
		Tasks:             handlers.NewTasksHandler(taskService),
		Users:             handlers.NewUsersHandler(userService),
		Dashboard:         handlers.NewDashboardHandler(dashboardService),
		Metrics:           handlers.NewMetricsHandler(metrics),
		Pages:             handlers.NewPagesHandler(cfg.App.Name),
		AuthRatePerSecond: cfg.Auth.RatePerSecond,
		AuthRateBurst:     cfg.Auth.RateBurst,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	notifier.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

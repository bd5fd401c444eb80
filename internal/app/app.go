package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"focusTracker/internal/alarm"
	"focusTracker/internal/auth"
	"focusTracker/internal/config"
	"focusTracker/internal/handlers"
	"focusTracker/internal/logger"
	appmw "focusTracker/internal/middleware"
	focusinmemory "focusTracker/internal/repository/focus/inmemory"
	focuspostgres "focusTracker/internal/repository/focus/postgres"
	taskinmemory "focusTracker/internal/repository/task/inmemory"
	taskpostgres "focusTracker/internal/repository/task/postgres"
	userinmemory "focusTracker/internal/repository/user/inmemory"
	userpostgres "focusTracker/internal/repository/user/postgres"
	"focusTracker/internal/service"
	"focusTracker/internal/worker"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type App struct {
	config         *config.Config
	server         *http.Server
	router         *chi.Mux
	taskService    *service.TaskService
	focusService   *service.FocusService
	authService    *auth.Service
	timerWorker    *worker.TimerWorker
	rolloverWorker *worker.RolloverWorker
	shutdowns      []func()
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Shutting down logging...")
		logger.Sync()
	})

	taskRepo, focusRepo, userRepo, err := a.initRepositories(ctx)
	if err != nil {
		return err
	}

	a.focusService = service.NewFocusService(focusRepo, a.config.Timer.FocusFlushEvery)
	a.taskService = service.NewTaskService(taskRepo, a.focusService, alarm.NewLogAlarm(), service.Policy{
		CompleteOnExhaust:          a.config.Timer.CompleteOnExhaust,
		ResetRemainingOnUncomplete: a.config.Timer.ResetRemainingOnUncomplete,
	})
	a.authService = auth.NewService(userRepo, a.config.Auth.JWTSecret, a.config.Auth.TokenTTL)

	a.timerWorker = worker.NewTimerWorker(a.taskService, a.config.Timer.TickInterval)
	a.rolloverWorker = worker.NewRolloverWorker(a.taskService, a.config.Timer.RolloverInterval)

	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return nil
}

func (a *App) initRepositories(ctx context.Context) (service.TaskRepository, service.FocusRepository, auth.UserRepository, error) {
	switch a.config.Repository.Type {
	case "postgres":
		taskRepo, err := taskpostgres.New(ctx, a.config.Database.URL, taskpostgres.PoolSettings{
			MaxConns:    int32(a.config.Database.MaxConnections),
			MinConns:    int32(a.config.Database.MinConnections),
			IdleTimeout: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Closing database pool...")
			taskRepo.Close()
		})

		// the three repositories share one pool
		focusRepo := focuspostgres.NewWithPool(taskRepo.Pool())
		userRepo := userpostgres.NewWithPool(taskRepo.Pool())

		logger.Info("Repository: using postgres storage")
		return taskRepo, focusRepo, userRepo, nil

	case "", "inmemory":
		logger.Info("Repository: using in-memory storage")
		return taskinmemory.NewTaskStorage(), focusinmemory.NewFocusStorage(), userinmemory.NewUserStorage(), nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown repository type %q", a.config.Repository.Type)
	}
}

func (a *App) initRouter() {
	taskHandler := handlers.NewTaskHandler(a.taskService)
	focusHandler := handlers.NewFocusHandler(a.focusService)
	authHandler := handlers.NewAuthHandler(a.authService)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(appmw.RequestID)
	r.Use(appmw.Logging)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(appmw.RateLimit(300))

	r.Get("/health", taskHandler.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(appmw.Auth(a.authService))

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.GetTasks)
				r.Post("/", taskHandler.PostTask)
				r.Put("/reorder", taskHandler.Reorder)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.GetTaskByID)
					r.Put("/", taskHandler.UpdateTaskByID)
					r.Delete("/", taskHandler.DeleteTaskByID)

					r.Post("/start", taskHandler.StartTask)
					r.Post("/pause", taskHandler.PauseTask)
					r.Post("/stop", taskHandler.StopTask)
					r.Post("/toggle", taskHandler.ToggleTask)
					r.Put("/timer", taskHandler.UpdateTimer)

					r.Route("/subtasks", func(r chi.Router) {
						r.Post("/", taskHandler.AddSubtask)
						r.Post("/{subtaskId}/toggle", taskHandler.ToggleSubtask)
						r.Delete("/{subtaskId}", taskHandler.DeleteSubtask)
					})
				})
			})

			r.Route("/focus", func(r chi.Router) {
				r.Get("/", focusHandler.GetHistory)
				r.Get("/weekly", focusHandler.GetWeekly)
				r.Put("/", focusHandler.SetFocus)
			})
		})
	})

	a.router = r
}

// Run starts the workers and the HTTP server and blocks until ctx is
// cancelled, then drains everything in reverse init order.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorkers := context.WithCancel(ctx)
	go a.timerWorker.Start(workerCtx)
	go a.rolloverWorker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.Error("Server failed", runErr)
	}

	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown", err)
	}

	// unflushed focus seconds would be lost otherwise
	a.focusService.Flush(shutdownCtx)

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}

	return runErr
}

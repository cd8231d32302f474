package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskmind/internal/agent"
	"taskmind/internal/config"
	"taskmind/internal/handlers"
	"taskmind/internal/logger"
	"taskmind/internal/middleware"
	"taskmind/internal/notify"
	rep "taskmind/internal/repository"
	"taskmind/internal/repository/task/inmemory"
	"taskmind/internal/repository/task/jsonfile"
	"taskmind/internal/repository/task/postgres"
	"taskmind/internal/service"
	"taskmind/internal/worker"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository rep.TaskRepository
	service    service.TaskService
	agent      *agent.Agent
	worker     *worker.ReminderWorker
	shutdowns  []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {

	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		return err
	}

	history, sinks, err := a.initNotifications(ctx)
	if err != nil {
		return err
	}

	events := notify.NewFanout(sinks...)
	a.service = service.NewTaskService(a.repository, service.WithEvents(events))

	a.initAgent(events)

	interval := a.config.WorkerInterval()
	a.worker = worker.NewReminderWorker(a.repository, events, &interval)

	a.initRouter(history)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case "postgres":
		storage, err := postgres.New(ctx, a.config.Database.URL)
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}
		if err := storage.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("миграция схемы: %w", err)
		}
		a.repository = storage
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула соединений с БД...")
			storage.Close()
		})
	case "jsonfile":
		storage, err := jsonfile.New(a.config.Repository.Path)
		if err != nil {
			return fmt.Errorf("открытие файлового хранилища: %w", err)
		}
		a.repository = storage
	default:
		a.repository = inmemory.NewTaskStorage()
	}

	logger.Info("Хранилище инициализировано", zap.String("type", a.config.Repository.Type))
	return nil
}

func (a *App) initNotifications(ctx context.Context) (notify.History, []notify.Sink, error) {
	limit := a.config.Notifications.Limit
	if limit <= 0 {
		limit = notify.DefaultHistoryLimit
	}

	var history notify.History
	switch a.config.Notifications.Backend {
	case "redis":
		redisHistory, err := notify.NewRedisHistory(ctx, a.config.Notifications.Redis, limit)
		if err != nil {
			return nil, nil, fmt.Errorf("подключение к redis: %w", err)
		}
		history = redisHistory
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие соединения с Redis...")
			redisHistory.Close()
		})
	default:
		history = notify.NewFileHistory(a.config.Notifications.Path, limit)
	}

	sinks := []notify.Sink{history}

	if a.config.Email.Token != "" {
		client := notify.NewMailtrapClient(a.config.Email.Token)
		sinks = append(sinks, notify.NewEmailSink(client, a.config.Email.FromEmail, a.config.Email.To))
		logger.Info("Почтовая доставка уведомлений включена")
	} else {
		logger.Info("MAILTRAP_API_TOKEN не задан, почтовая доставка выключена")
	}

	logger.Info("История уведомлений инициализирована",
		zap.String("backend", a.config.Notifications.Backend),
		zap.Int("limit", limit))
	return history, sinks, nil
}

func (a *App) initAgent(events notify.Sink) {
	if a.config.Agent.APIKey == "" {
		logger.Warn("GROQ_API_KEY не задан, чат-агент выключен")
		return
	}

	opts := []agent.GroqOption{}
	if a.config.Agent.Model != "" {
		opts = append(opts, agent.WithModel(a.config.Agent.Model))
	}
	llm := agent.NewGroqClient(a.config.Agent.APIKey, opts...)
	a.agent = agent.New(llm, &a.service, agent.WithNotifications(events))
}

func (a *App) initRouter(history notify.History) {
	taskHandler := handlers.NewTaskHandler(&a.service, history)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(100))

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", taskHandler.GetTasks) // GET /tasks
		r.Post("/", taskHandler.PostTask) // POST /tasks

		r.Get("/summary", taskHandler.GetSummary)   // GET /tasks/summary
		r.Get("/by-date", taskHandler.GetTasksByDate) // GET /tasks/by-date?date=
		r.Get("/range", taskHandler.GetTasksByRange)  // GET /tasks/range?start=&end=

		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", taskHandler.DeleteTaskByID)       // DELETE /tasks/{id}
			r.Post("/complete", taskHandler.CompleteTaskByID) // POST /tasks/{id}/complete
		})
	})

	r.Get("/notifications", taskHandler.GetNotifications)
	r.Get("/health", taskHandler.HealthCheck)

	if a.agent != nil {
		chatHandler := handlers.NewChatHandler(a.agent)
		r.Post("/api/chat", chatHandler.PostChat)
		r.Get("/ws", chatHandler.ChatSocket)
	}

	a.router = r
}

// Run запускает HTTP-сервер и фоновый воркер; по отмене контекста
// гасит сервер и прогоняет накопленные shutdown-функции в обратном
// порядке.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Info("Остановка сервера...")
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	return err
}

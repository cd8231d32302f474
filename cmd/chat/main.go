// Консольный клиент ассистента: тот же агент, что и за /api/chat,
// но без HTTP-слоя. Команды: quit — выход, reset — очистить диалог.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"taskmind/internal/agent"
	"taskmind/internal/config"
	"taskmind/internal/logger"
	"taskmind/internal/notify"
	rep "taskmind/internal/repository"
	"taskmind/internal/repository/task/inmemory"
	"taskmind/internal/repository/task/jsonfile"
	"taskmind/internal/repository/task/postgres"
	"taskmind/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ошибка конфигурации:", err)
		os.Exit(1)
	}

	if cfg.Agent.APIKey == "" {
		fmt.Fprintln(os.Stderr, "переменная GROQ_API_KEY не задана")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		fmt.Fprintln(os.Stderr, "ошибка логгера:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := buildRepository(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ошибка хранилища:", err)
		os.Exit(1)
	}

	limit := cfg.Notifications.Limit
	if limit <= 0 {
		limit = notify.DefaultHistoryLimit
	}
	events := notify.NewFanout(notify.NewFileHistory(cfg.Notifications.Path, limit))

	svc := service.NewTaskService(repo, service.WithEvents(events))

	var opts []agent.GroqOption
	if cfg.Agent.Model != "" {
		opts = append(opts, agent.WithModel(cfg.Agent.Model))
	}
	llm := agent.NewGroqClient(cfg.Agent.APIKey, opts...)
	assistant := agent.New(llm, &svc, agent.WithNotifications(events))

	fmt.Println("Task assistant ready. Type 'quit' to exit, 'reset' to clear the conversation.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return
		case line == "reset":
			assistant.Reset()
			fmt.Println("Conversation cleared.")
			continue
		}

		answer, err := assistant.Run(ctx, line)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(answer)
	}
}

func buildRepository(ctx context.Context, cfg *config.Config) (rep.TaskRepository, error) {
	switch cfg.Repository.Type {
	case "postgres":
		storage, err := postgres.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return storage, nil
	case "jsonfile":
		return jsonfile.New(cfg.Repository.Path)
	default:
		return inmemory.NewTaskStorage(), nil
	}
}

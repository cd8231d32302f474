package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskmind/internal/app"
	"taskmind/internal/config"
	"taskmind/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ошибка конфигурации:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg)
	if err := application.Init(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ошибка инициализации:", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Сервер завершился с ошибкой", err)
		os.Exit(1)
	}
}

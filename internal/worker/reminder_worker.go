package worker

import (
	"context"
	"fmt"
	"time"

	"taskmind/internal/logger"
	"taskmind/internal/models/notification"
	"taskmind/internal/models/task"
	rep "taskmind/internal/repository"
	"taskmind/internal/service"

	"go.uber.org/zap"
)

// ReminderWorker периодически сканирует хранилище и публикует
// предупреждение по каждой просроченной невыполненной задаче.
// Повторные напоминания по одной и той же задаче не шлются,
// пока процесс жив.
type ReminderWorker struct {
	repo     rep.TaskRepository
	events   service.Publisher
	interval time.Duration
	notified map[int]bool
}

func NewReminderWorker(repo rep.TaskRepository, events service.Publisher, interval *time.Duration) *ReminderWorker {
	var intervalToSet time.Duration
	if interval == nil {
		intervalToSet = 5 * time.Minute
	} else {
		intervalToSet = *interval
	}
	return &ReminderWorker{
		repo:     repo,
		events:   events,
		interval: intervalToSet,
		notified: make(map[int]bool),
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая проверка задач на просроченность", zap.Time("started_at", time.Now()))
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

func (w *ReminderWorker) Check(ctx context.Context) {
	start := time.Now()

	tasks, err := w.repo.List(ctx)
	if err != nil {
		logger.Warn("Worker: ошибка получения задач", zap.Error(err))
		return
	}

	today := time.Now().Format(task.DateLayout)
	remindedCount := 0

	for _, t := range tasks {
		if !t.IsOverdue(today) {
			continue
		}
		if w.notified[t.ID] {
			continue
		}

		if err := w.remind(ctx, t); err != nil {
			logger.Warn("Worker: Ошибка публикации напоминания", zap.Error(err))
			continue
		}
		w.notified[t.ID] = true
		remindedCount++
	}

	logger.Info(
		"Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(tasks)),
		zap.Int("reminded", remindedCount),
	)
}

func (w *ReminderWorker) remind(ctx context.Context, t *task.Task) error {
	n := notification.New(
		notification.TypeWarning,
		"Task overdue",
		fmt.Sprintf("'%s' (ID: %d) was due %s and is still pending.", t.Title, t.ID, *t.DueDate),
	)
	if err := w.events.Publish(ctx, n); err != nil {
		return fmt.Errorf("публикация напоминания: %w", err)
	}
	return nil
}

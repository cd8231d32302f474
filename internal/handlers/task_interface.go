package handlers

import (
	"context"

	"taskmind/internal/models/notification"
	"taskmind/internal/models/task"
	"taskmind/internal/service"
)

type TaskService interface {
	HealthCheck(context.Context) error
	AddTask(context.Context, string, string) (*task.Task, error)
	DeleteTask(context.Context, int) (*task.Task, error)
	ListTasks(context.Context) ([]*task.Task, error)
	CompleteTask(context.Context, int) (*task.Task, error)
	Summarize(context.Context) (*service.Summary, error)
	TasksByDate(context.Context, string) (string, []*task.Task, error)
	TasksByRange(context.Context, string, string) (*service.RangeResult, error)
}

// ChatAgent — диалоговый слой поверх сервиса задач.
type ChatAgent interface {
	Run(ctx context.Context, userMessage string) (string, error)
	Reset()
}

type NotificationHistory interface {
	Recent(ctx context.Context, limit int) ([]notification.Notification, error)
}

package repository

import (
	"context"

	"taskmind/internal/models/task"
)

// TaskRepository — контракт хранилища задач. Каждая операция атомарна
// относительно бэкенда: частично записанных задач снаружи не видно.
type TaskRepository interface {
	HealthCheck(ctx context.Context) error

	// Create назначает задаче следующий id (максимальный существующий + 1,
	// 1 для пустого хранилища) и сохраняет её.
	Create(ctx context.Context, t *task.Task) error

	GetByID(ctx context.Context, id int) (*task.Task, error)

	// List возвращает все задачи, упорядоченные по id по возрастанию.
	List(ctx context.Context) ([]*task.Task, error)

	Update(ctx context.Context, t *task.Task) error

	// Delete удаляет задачу и возвращает снимок удалённой записи.
	Delete(ctx context.Context, id int) (*task.Task, error)
}

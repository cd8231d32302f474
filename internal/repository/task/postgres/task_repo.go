package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskmind/internal/logger"
	"taskmind/internal/models/task"
	repo "taskmind/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) EnsureSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS tasks (
		id           BIGINT PRIMARY KEY,
		title        TEXT NOT NULL,
		due_date     TEXT,
		done         BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("создание схемы: %w", err)
	}
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

// id выделяется внутри самого INSERT (максимальный существующий + 1),
// поэтому выделение и вставка — один атомарный оператор.
func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks (id, title, due_date, done, created_at, completed_at)
			VALUES (
				(SELECT COALESCE(MAX(id), 0) + 1 FROM tasks),
				$1, $2, $3, $4, $5
			)
			RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.Title,
		taskToCreate.DueDate,
		taskToCreate.Done,
		taskToCreate.CreatedAt,
		taskToCreate.CompletedAt,
	).Scan(&taskToCreate.ID)

	if err != nil {
		logger.Error("Repository: Создание задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("создание задачи: %w", err)
	}

	s.warnIfSlow(start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int) (*task.Task, error) {
	query := `SELECT id, title, due_date, done, created_at, completed_at
			FROM tasks WHERE id = $1`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id).
		Scan(&t.ID, &t.Title, &t.DueDate, &t.Done, &t.CreatedAt, &t.CompletedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Получение задачи", err, zap.Int("task_id", id))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *Storage) List(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT id, title, due_date, done, created_at, completed_at
			FROM tasks ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Получение списка задач", err)
		return nil, fmt.Errorf("получение списка задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t := &task.Task{}
		if err := rows.Scan(&t.ID, &t.Title, &t.DueDate, &t.Done, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, fmt.Errorf("чтение строки: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("обход строк: %w", err)
	}

	s.warnIfSlow(start)
	return tasks, nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1, due_date = $2, done = $3, completed_at = $4
			WHERE id = $5`

	tag, err := s.pool.Exec(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.DueDate,
		taskToUpdate.Done,
		taskToUpdate.CompletedAt,
		taskToUpdate.ID,
	)
	if err != nil {
		logger.Error("Repository: Обновление задачи", err, zap.Int("task_id", taskToUpdate.ID))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	s.warnIfSlow(start)
	return nil
}

func (s *Storage) Delete(ctx context.Context, id int) (*task.Task, error) {
	start := time.Now()

	query := `DELETE FROM tasks WHERE id = $1
			RETURNING id, title, due_date, done, created_at, completed_at`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id).
		Scan(&t.ID, &t.Title, &t.DueDate, &t.Done, &t.CreatedAt, &t.CompletedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Удаление задачи", err, zap.Int("task_id", id))
		return nil, fmt.Errorf("удаление задачи: %w", err)
	}

	s.warnIfSlow(start)
	return t, nil
}

func (s *Storage) warnIfSlow(start time.Time) {
	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
}

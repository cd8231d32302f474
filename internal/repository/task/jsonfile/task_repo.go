// Package jsonfile — файловое хранилище: один JSON-массив задач,
// целиком переписываемый при каждой мутации. Подходит для одного
// пользователя; сериализация записей обеспечивается мьютексом.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"taskmind/internal/logger"
	"taskmind/internal/models/task"
	repo "taskmind/internal/repository"

	"go.uber.org/zap"
)

type TaskStorage struct {
	mtx    sync.Mutex
	path   string
	lastID int
}

func New(path string) (*TaskStorage, error) {
	s := &TaskStorage{path: path}

	tasks, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("чтение файла задач: %w", err)
	}
	for _, t := range tasks {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}

	logger.Info("Repository: Файловое хранилище готово",
		zap.String("path", path),
		zap.Int("tasks", len(tasks)))
	return s, nil
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	_, err := s.load()
	return err
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}

	next := s.lastID
	for _, t := range tasks {
		if t.ID > next {
			next = t.ID
		}
	}
	next++
	s.lastID = next
	taskToCreate.ID = next

	tasks = append(tasks, taskToCreate)
	return s.save(tasks)
}

func (s *TaskStorage) GetByID(ctx context.Context, id int) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tasks, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *TaskStorage) List(ctx context.Context) ([]*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.load()
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}
	for i, t := range tasks {
		if t.ID == taskToUpdate.ID {
			tasks[i] = taskToUpdate
			return s.save(tasks)
		}
	}
	return repo.ErrNotFound
}

func (s *TaskStorage) Delete(ctx context.Context, id int) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tasks, err := s.load()
	if err != nil {
		return nil, err
	}
	for i, t := range tasks {
		if t.ID == id {
			tasks = append(tasks[:i], tasks[i+1:]...)
			if err := s.save(tasks); err != nil {
				return nil, err
			}
			return t, nil
		}
	}
	return nil, repo.ErrNotFound
}

// Задачи в файле хранятся упорядоченными по id: сортировка не нужна,
// порядок вставки её гарантирует.
func (s *TaskStorage) load() ([]*task.Task, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*task.Task{}, nil
		}
		return nil, fmt.Errorf("чтение %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []*task.Task{}, nil
	}

	var tasks []*task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("разбор %s: %w", s.path, err)
	}
	return tasks, nil
}

func (s *TaskStorage) save(tasks []*task.Task) error {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("сериализация задач: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("запись %s: %w", s.path, err)
	}
	return nil
}

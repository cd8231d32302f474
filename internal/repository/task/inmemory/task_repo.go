package inmemory

import (
	"context"
	"sort"
	"sync"

	"taskmind/internal/logger"
	"taskmind/internal/models/task"
	repo "taskmind/internal/repository"
)

type TaskStorage struct {
	mtx     sync.RWMutex
	storage map[int]*task.Task
	lastID  int
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int]*task.Task),
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// lastID — верхняя отметка за время жизни процесса: после удаления
	// задачи с максимальным id её номер заново не выдаётся.
	for id := range s.storage {
		if id > s.lastID {
			s.lastID = id
		}
	}
	s.lastID++
	taskToCreate.ID = s.lastID

	s.storage[taskToCreate.ID] = taskToCreate.Clone()
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id int) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

func (s *TaskStorage) List(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.storage))
	for _, t := range s.storage {
		res = append(res, t.Clone())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToUpdate.ID]; !ok {
		return repo.ErrNotFound
	}
	s.storage[taskToUpdate.ID] = taskToUpdate.Clone()
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, id int) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskExisted, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	delete(s.storage, id)
	return taskExisted, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskmind/internal/dates"
	"taskmind/internal/logger"
	"taskmind/internal/models/notification"
	"taskmind/internal/models/task"
	rep "taskmind/internal/repository"

	"go.uber.org/zap"
)

// Publisher — необязательный канал уведомлений. Хранилище публикует событие
// явно после успешной мутации; без живого бэкенда уведомлений сервис
// полностью тестируем.
type Publisher interface {
	Publish(ctx context.Context, n notification.Notification) error
}

type TaskService struct {
	repo   rep.TaskRepository
	events Publisher
	now    func() time.Time
}

type Option func(*TaskService)

func WithEvents(p Publisher) Option {
	return func(s *TaskService) {
		s.events = p
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

func NewTaskService(repo rep.TaskRepository, opts ...Option) TaskService {
	s := TaskService{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

// AddTask создаёт задачу. Текст даты сначала проходит через резолвер:
// при неудаче возвращается RESOLUTION_ERROR и задача НЕ создаётся.
func (s *TaskService) AddTask(ctx context.Context, title, dueDateText string) (*task.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, NewValidationError("title", "title must not be empty")
	}

	var dueDate *string
	if strings.TrimSpace(dueDateText) != "" {
		resolved, err := dates.Resolve(dueDateText, s.now())
		if err != nil {
			logger.Info("Service: Дата не распознана", zap.String("input", dueDateText))
			return nil, NewResolutionError("due date", dueDateText, err)
		}
		due := resolved.Format(task.DateLayout)
		dueDate = &due
	}

	t := &task.Task{
		Title:     title,
		DueDate:   dueDate,
		Done:      false,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	s.publish(ctx, notification.TypeInfo, "Task added", addedMessage(t))
	return t, nil
}

// DeleteTask удаляет задачу и возвращает снимок удалённой записи.
func (s *TaskService) DeleteTask(ctx context.Context, id int) (*task.Task, error) {
	if id <= 0 {
		return nil, NewValidationError("task_id", "task id must be a positive integer")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int("target_id", id))
			return nil, NewNotFound(id)
		}
		return nil, fmt.Errorf("удаление задачи: %w", err)
	}
	return deleted, nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

// CompleteTask помечает задачу выполненной. Переход done только в одну
// сторону; повторный вызов допустим и заново проставляет completed_at —
// это контрактное поведение, а не побочный эффект.
func (s *TaskService) CompleteTask(ctx context.Context, id int) (*task.Task, error) {
	if id <= 0 {
		return nil, NewValidationError("task_id", "task id must be a positive integer")
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int("target_id", id))
			return nil, NewNotFound(id)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	now := s.now()
	t.Done = true
	t.CompletedAt = &now
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	s.publish(ctx, notification.TypeSuccess, "Task completed",
		fmt.Sprintf("'%s' (ID: %d) marked as done.", t.Title, t.ID))
	return t, nil
}

type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

type Summary struct {
	Summary   string       `json:"summary"`
	Pending   []*task.Task `json:"pending"`
	Completed []*task.Task `json:"completed"`
	Overdue   []*task.Task `json:"overdue"`
	Stats     Stats        `json:"stats"`
}

// Summarize разбивает задачи по done; overdue — невыполненные с дедлайном
// строго раньше сегодняшней даты.
func (s *TaskService) Summarize(ctx context.Context) (*Summary, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	today := s.now().Format(task.DateLayout)
	summary := &Summary{
		Pending:   []*task.Task{},
		Completed: []*task.Task{},
		Overdue:   []*task.Task{},
	}
	for _, t := range tasks {
		if t.Done {
			summary.Completed = append(summary.Completed, t)
			continue
		}
		summary.Pending = append(summary.Pending, t)
		if t.IsOverdue(today) {
			summary.Overdue = append(summary.Overdue, t)
		}
	}

	summary.Stats = Stats{
		Total:     len(tasks),
		Pending:   len(summary.Pending),
		Completed: len(summary.Completed),
		Overdue:   len(summary.Overdue),
	}

	summary.Summary = fmt.Sprintf("You have %d pending and %d completed tasks.",
		summary.Stats.Pending, summary.Stats.Completed)
	if summary.Stats.Overdue > 0 {
		summary.Summary += fmt.Sprintf(" %d tasks are overdue.", summary.Stats.Overdue)
	}
	return summary, nil
}

// TasksByDate возвращает разрешённую дату и задачи с точно таким дедлайном.
func (s *TaskService) TasksByDate(ctx context.Context, dateText string) (string, []*task.Task, error) {
	resolved, err := dates.Resolve(dateText, s.now())
	if err != nil {
		logger.Info("Service: Дата не распознана", zap.String("input", dateText))
		return "", nil, NewResolutionError("date", dateText, err)
	}
	date := resolved.Format(task.DateLayout)

	tasks, err := s.repo.List(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("получение задач: %w", err)
	}

	matched := []*task.Task{}
	for _, t := range tasks {
		if t.DueDate != nil && *t.DueDate == date {
			matched = append(matched, t)
		}
	}
	return date, matched, nil
}

type RangeResult struct {
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Tasks     []*task.Task `json:"tasks"`
	Count     int          `json:"count"`
	Days      int          `json:"date_range_days"`
}

// TasksByRange возвращает задачи с дедлайном внутри [start, end]
// включительно; задачи без дедлайна в диапазон не попадают.
func (s *TaskService) TasksByRange(ctx context.Context, startText, endText string) (*RangeResult, error) {
	start, end, err := dates.ResolveRange(startText, endText, s.now())
	if err != nil {
		var resErr *dates.ResolutionError
		if errors.As(err, &resErr) {
			logger.Info("Service: Дата не распознана", zap.String("input", resErr.Input))
			return nil, NewResolutionError("date", resErr.Input, err)
		}
		return nil, fmt.Errorf("разрешение диапазона: %w", err)
	}

	startDate := start.Format(task.DateLayout)
	endDate := end.Format(task.DateLayout)

	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	matched := []*task.Task{}
	for _, t := range tasks {
		if t.DueDate != nil && *t.DueDate >= startDate && *t.DueDate <= endDate {
			matched = append(matched, t)
		}
	}

	return &RangeResult{
		StartDate: startDate,
		EndDate:   endDate,
		Tasks:     matched,
		Count:     len(matched),
		Days:      dates.RangeDays(start, end),
	}, nil
}

// Уведомления — побочный канал: ошибка доставки логируется
// и никогда не роняет саму мутацию.
func (s *TaskService) publish(ctx context.Context, typ notification.Type, title, message string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, notification.New(typ, title, message)); err != nil {
		logger.Warn("Service: Ошибка публикации уведомления", zap.Error(err))
	}
}

func addedMessage(t *task.Task) string {
	if t.DueDate == nil {
		return fmt.Sprintf("'%s' (ID: %d) added with no due date.", t.Title, t.ID)
	}
	return fmt.Sprintf("'%s' (ID: %d) added, due %s.", t.Title, t.ID, *t.DueDate)
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskmind/internal/handlers"
	"taskmind/internal/models/notification"
	"taskmind/internal/models/task"
	"taskmind/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) AddTask(ctx context.Context, title, dueDateText string) (*task.Task, error) {
	args := m.Called(ctx, title, dueDateText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id int) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) CompleteTask(ctx context.Context, id int) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Summarize(ctx context.Context) (*service.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Summary), args.Error(1)
}

func (m *MockTaskService) TasksByDate(ctx context.Context, dateText string) (string, []*task.Task, error) {
	args := m.Called(ctx, dateText)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).([]*task.Task), args.Error(2)
}

func (m *MockTaskService) TasksByRange(ctx context.Context, startText, endText string) (*service.RangeResult, error) {
	args := m.Called(ctx, startText, endText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RangeResult), args.Error(1)
}

var _ handlers.TaskService = (*MockTaskService)(nil)

// stubHistory отдаёт фиксированный список уведомлений.
type stubHistory struct {
	notifications []notification.Notification
}

func (s *stubHistory) Recent(context.Context, int) ([]notification.Notification, error) {
	return s.notifications, nil
}

func newRouter(h handlers.TaskHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/tasks", h.GetTasks)
	r.Post("/tasks", h.PostTask)
	r.Get("/tasks/summary", h.GetSummary)
	r.Get("/tasks/by-date", h.GetTasksByDate)
	r.Get("/tasks/range", h.GetTasksByRange)
	r.Delete("/tasks/{id}", h.DeleteTaskByID)
	r.Post("/tasks/{id}/complete", h.CompleteTaskByID)
	r.Get("/notifications", h.GetNotifications)
	r.Get("/health", h.HealthCheck)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func strPtr(s string) *string { return &s }

func TestPostTask(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		due := "2025-10-20"
		created := &task.Task{ID: 1, Title: "Buy milk", DueDate: &due, CreatedAt: time.Now()}
		mockSvc.On("AddTask", mock.Anything, "Buy milk", "next monday").Return(created, nil)

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		payload := bytes.NewBufferString(`{"title": "Buy milk", "due_date": "next monday"}`)
		req := httptest.NewRequest(http.MethodPost, "/tasks", payload)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Task 'Buy milk' added with ID 1.", body["message"])
		assert.Equal(t, "2025-10-20", body["parsed_date"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("resolution error maps to 400", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("AddTask", mock.Anything, "Pay rent", "blorpday").
			Return(nil, service.NewResolutionError("due date", "blorpday", errors.New("no match")))

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		payload := bytes.NewBufferString(`{"title": "Pay rent", "due_date": "blorpday"}`)
		req := httptest.NewRequest(http.MethodPost, "/tasks", payload)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, service.CodeResolution, body["error"])
		details := body["details"].(map[string]any)
		assert.Equal(t, "blorpday", details["received_date"])
	})

	t.Run("wrong content type", func(t *testing.T) {
		mockSvc := new(MockTaskService)

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString("title=x"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		mockSvc.AssertNotCalled(t, "AddTask", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetTasks(t *testing.T) {
	mockSvc := new(MockTaskService)
	tasks := []*task.Task{
		{ID: 1, Title: "first"},
		{ID: 2, Title: "second"},
	}
	mockSvc.On("ListTasks", mock.Anything).Return(tasks, nil)

	handler := handlers.NewTaskHandler(mockSvc, nil)
	router := newRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])
}

func TestDeleteTaskByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		deleted := &task.Task{ID: 5, Title: "old"}
		mockSvc.On("DeleteTask", mock.Anything, 5).Return(deleted, nil)

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodDelete, "/tasks/5", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Task 'old' (ID: 5) deleted.", body["message"])
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("DeleteTask", mock.Anything, 99).Return(nil, service.NewNotFound(99))

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodDelete, "/tasks/99", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, service.CodeNotFound, body["error"])
	})

	t.Run("bad id", func(t *testing.T) {
		mockSvc := new(MockTaskService)

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodDelete, "/tasks/abc", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		mockSvc.AssertNotCalled(t, "DeleteTask", mock.Anything, mock.Anything)
	})
}

func TestCompleteTaskByID(t *testing.T) {
	mockSvc := new(MockTaskService)
	now := time.Now()
	completed := &task.Task{ID: 2, Title: "done task", Done: true, CompletedAt: &now}
	mockSvc.On("CompleteTask", mock.Anything, 2).Return(completed, nil)

	handler := handlers.NewTaskHandler(mockSvc, nil)
	router := newRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/tasks/2/complete", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Task 'done task' (ID: 2) marked as done.", body["message"])
}

func TestGetSummary(t *testing.T) {
	mockSvc := new(MockTaskService)
	summary := &service.Summary{
		Summary:   "You have 1 pending and 1 completed tasks.",
		Pending:   []*task.Task{{ID: 1, Title: "pending"}},
		Completed: []*task.Task{{ID: 2, Title: "done", Done: true}},
		Overdue:   []*task.Task{},
		Stats:     service.Stats{Total: 2, Pending: 1, Completed: 1},
	}
	mockSvc.On("Summarize", mock.Anything).Return(summary, nil)

	handler := handlers.NewTaskHandler(mockSvc, nil)
	router := newRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/tasks/summary", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "You have 1 pending and 1 completed tasks.", body["summary"])
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["total"])
}

func TestGetTasksByDate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		matched := []*task.Task{{ID: 1, Title: "due then", DueDate: strPtr("2025-10-20")}}
		mockSvc.On("TasksByDate", mock.Anything, "next monday").Return("2025-10-20", matched, nil)

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/tasks/by-date?date=next+monday", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "2025-10-20", body["date"])
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("missing parameter", func(t *testing.T) {
		mockSvc := new(MockTaskService)

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/tasks/by-date", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		mockSvc.AssertNotCalled(t, "TasksByDate", mock.Anything, mock.Anything)
	})
}

func TestGetTasksByRange(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		result := &service.RangeResult{
			StartDate: "2025-10-17",
			EndDate:   "2025-10-20",
			Tasks:     []*task.Task{{ID: 1, Title: "in range", DueDate: strPtr("2025-10-18")}},
			Count:     1,
			Days:      4,
		}
		mockSvc.On("TasksByRange", mock.Anything, "friday", "next monday").Return(result, nil)

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/tasks/range?start=friday&end=next+monday", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "2025-10-17", body["start_date"])
		assert.Equal(t, float64(4), body["date_range_days"])
	})

	t.Run("missing end collapses to single day", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		result := &service.RangeResult{
			StartDate: "2025-10-17",
			EndDate:   "2025-10-17",
			Tasks:     []*task.Task{},
			Count:     0,
			Days:      1,
		}
		mockSvc.On("TasksByRange", mock.Anything, "friday", "").Return(result, nil)

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/tasks/range?start=friday", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "2025-10-17", body["end_date"])
		assert.Equal(t, float64(1), body["date_range_days"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing start", func(t *testing.T) {
		mockSvc := new(MockTaskService)

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/tasks/range?end=next+monday", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		mockSvc.AssertNotCalled(t, "TasksByRange", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetNotifications(t *testing.T) {
	mockSvc := new(MockTaskService)
	history := &stubHistory{notifications: []notification.Notification{
		notification.New(notification.TypeInfo, "Task added", "details"),
	}}

	handler := handlers.NewTaskHandler(mockSvc, history)
	router := newRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("HealthCheck", mock.Anything).Return(nil)

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("storage down", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))

		handler := handlers.NewTaskHandler(mockSvc, nil)
		router := newRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

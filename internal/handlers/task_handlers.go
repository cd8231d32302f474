package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskmind/internal/handlers/dto"
	"taskmind/internal/logger"
	"taskmind/internal/notify"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
	History     NotificationHistory
}

func NewTaskHandler(taskService TaskService, history NotificationHistory) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
		History:     history,
	}
}

func (s *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	logger.Info("HTTP: Вызов сервиса для получения задач")

	tasks, err := s.TaskService.ListTasks(r.Context())
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", tasks),
		toPayload("count", len(tasks)),
	)
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {

		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {

		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задач")

	task, err := s.TaskService.AddTask(r.Context(), request.Title, request.DueDate)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "add_task"),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int("task_id", task.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	parsedDate := ""
	if task.DueDate != nil {
		parsedDate = *task.DueDate
	}
	responseWithJSON(w, http.StatusCreated,
		toPayload("message", fmt.Sprintf("Task '%s' added with ID %d.", task.Title, task.ID)),
		toPayload("task", task),
		toPayload("parsed_date", parsedDate),
	)
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseTaskID(chi.URLParam(r, "id"))
	if !ok {

		logger.Warn("HTTP: Неверное значение id",
			zap.String("received", chi.URLParam(r, "id")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "id должен быть положительным числом")
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления задачи")

	task, err := s.TaskService.DeleteTask(r.Context(), id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_task"),
			zap.String("client_addr", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.Int("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("message", fmt.Sprintf("Task '%s' (ID: %d) deleted.", task.Title, task.ID)),
		toPayload("task", task),
	)
}

func (s *TaskHandler) CompleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseTaskID(chi.URLParam(r, "id"))
	if !ok {

		logger.Warn("HTTP: Неверное значение id",
			zap.String("received", chi.URLParam(r, "id")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "id должен быть положительным числом")
		return
	}

	logger.Info("HTTP: Вызов сервиса завершения задачи")

	task, err := s.TaskService.CompleteTask(r.Context(), id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "complete_task"),
			zap.String("client_addr", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача завершена",
		zap.Int("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("message", fmt.Sprintf("Task '%s' (ID: %d) marked as done.", task.Title, task.ID)),
		toPayload("task", task),
	)
}

func (s *TaskHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	logger.Info("HTTP: Вызов сервиса для сводки задач")

	summary, err := s.TaskService.Summarize(r.Context())
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Сводка получена",
		zap.Int("total", summary.Stats.Total),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("summary", summary.Summary),
		toPayload("pending", summary.Pending),
		toPayload("completed", summary.Completed),
		toPayload("overdue", summary.Overdue),
		toPayload("stats", summary.Stats),
	)
}

func (s *TaskHandler) GetTasksByDate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	dateText := r.URL.Query().Get("date")
	if dateText == "" {

		logger.Warn("HTTP: Ошибка получения параметра",
			zap.String("query", "date"),
			zap.String("error", "empty_value"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "параметр date обязателен")
		return
	}

	logger.Info("HTTP: Вызов сервиса для задач на дату")

	date, tasks, err := s.TaskService.TasksByDate(r.Context(), dateText)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задачи на дату получены",
		zap.String("date", date),
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("date", date),
		toPayload("tasks", tasks),
		toPayload("count", len(tasks)),
	)
}

func (s *TaskHandler) GetTasksByRange(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	// end не обязателен: пустой конец схлопывает диапазон в один день
	startText := r.URL.Query().Get("start")
	endText := r.URL.Query().Get("end")
	if startText == "" {

		logger.Warn("HTTP: Ошибка получения параметра",
			zap.String("query", "start"),
			zap.String("error", "empty_value"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "параметр start обязателен")
		return
	}

	logger.Info("HTTP: Вызов сервиса для задач в диапазоне")

	result, err := s.TaskService.TasksByRange(r.Context(), startText, endText)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задачи в диапазоне получены",
		zap.String("start", result.StartDate),
		zap.String("end", result.EndDate),
		zap.Int("count", result.Count),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("start_date", result.StartDate),
		toPayload("end_date", result.EndDate),
		toPayload("tasks", result.Tasks),
		toPayload("count", result.Count),
		toPayload("date_range_days", result.Days),
	)
}

func (s *TaskHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if s.History == nil {
		responseWithJSON(w, http.StatusOK,
			toPayload("notifications", []any{}),
			toPayload("count", 0),
		)
		return
	}

	notifications, err := s.History.Recent(r.Context(), notify.DefaultHistoryLimit)
	if err != nil {
		logger.Error("HTTP: Ошибка чтения истории уведомлений", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: История уведомлений получена",
		zap.Int("count", len(notifications)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("notifications", notifications),
		toPayload("count", len(notifications)),
	)
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {

	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	healthCheck(w)
}

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"taskmind/internal/logger"
	"taskmind/internal/models/notification"
	"taskmind/internal/service"

	"go.uber.org/zap"
)

// Описания инструментов уходят модели как есть, поэтому они на английском —
// на языке, на котором модель с пользователем и разговаривает.
var toolDefs = []Tool{
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "add_task",
			Description: "Add a new task with a title and optional due date. Use this when the user wants to create, add, or set a reminder for a task.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string", "description": "The title or description of the task"},
					"due_date": {"type": "string", "description": "Optional due date for the task (can be in any format like '2025-10-15', 'tomorrow', 'next Monday', etc.)"}
				},
				"required": ["title"]
			}`),
		},
	},
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "list_tasks",
			Description: "List all existing tasks. Use this when the user wants to see, view, or list their tasks.",
			Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
		},
	},
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "complete_task",
			Description: "Mark a task as completed by its ID. Use this when the user wants to complete, finish, or mark a task as done.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"task_id": {"type": "integer", "description": "The ID of the task to mark as completed"}
				},
				"required": ["task_id"]
			}`),
		},
	},
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "delete_task",
			Description: "Delete a task by its ID. Use this when the user wants to remove a task.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"task_id": {"type": "integer", "description": "The ID of the task to delete"}
				},
				"required": ["task_id"]
			}`),
		},
	},
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "summarize_tasks",
			Description: "Get a summary of pending and completed tasks. Use this when the user wants an overview, summary, or status of their tasks.",
			Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
		},
	},
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "tasks_by_date",
			Description: "List tasks for a specific date (supports natural language like 'tomorrow', 'next Monday').",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"date": {"type": "string", "description": "The date in YYYY-MM-DD format or natural language like 'tomorrow'"}
				},
				"required": ["date"]
			}`),
		},
	},
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "tasks_by_range",
			Description: "List tasks within a date range. Supports natural language like 'this week', or specific dates like '2025-10-20 to 2025-10-25'.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"start": {"type": "string", "description": "Start date (natural language or YYYY-MM-DD)"},
					"end": {"type": "string", "description": "End date (optional, defaults to same as start for single day)"}
				},
				"required": ["start"]
			}`),
		},
	},
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "send_notification",
			Description: "Send a notification with a title and message. Ideal for alerts, reminders, and status updates.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string", "description": "Notification title"},
					"message": {"type": "string", "description": "Notification message content"},
					"notification_type": {"type": "string", "description": "Type of notification - 'info', 'success', 'warning', 'error' (default: 'info')"}
				},
				"required": ["title", "message"]
			}`),
		},
	},
}

type addTaskArgs struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
}

type taskIDArgs struct {
	TaskID int `json:"task_id"`
}

type dateArgs struct {
	Date string `json:"date"`
}

type rangeArgs struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type notificationArgs struct {
	Title            string `json:"title"`
	Message          string `json:"message"`
	NotificationType string `json:"notification_type"`
}

// dispatch выполняет один вызов инструмента и возвращает JSON-результат
// для модели. Бизнес-ошибки уходят модели полем "error", а не обрывают чат.
func (a *Agent) dispatch(ctx context.Context, call ToolCall) string {
	logger.Info("Agent: Вызов инструмента",
		zap.String("tool", call.Function.Name),
		zap.String("arguments", call.Function.Arguments))

	result, err := a.execute(ctx, call.Function.Name, []byte(call.Function.Arguments))
	if err != nil {
		return marshalResult(errorPayload(err))
	}
	return marshalResult(result)
}

func (a *Agent) execute(ctx context.Context, name string, args []byte) (any, error) {
	switch name {
	case "add_task":
		var in addTaskArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("разбор аргументов: %w", err)
		}
		t, err := a.svc.AddTask(ctx, in.Title, in.DueDate)
		if err != nil {
			return nil, err
		}
		parsed := "No due date"
		if t.DueDate != nil {
			parsed = *t.DueDate
		}
		return map[string]any{
			"message":     fmt.Sprintf("Task added: %s", t.Title),
			"task":        t,
			"parsed_date": parsed,
		}, nil

	case "list_tasks":
		tasks, err := a.svc.ListTasks(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"tasks":       tasks,
			"total_count": len(tasks),
		}, nil

	case "complete_task":
		var in taskIDArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("разбор аргументов: %w", err)
		}
		t, err := a.svc.CompleteTask(ctx, in.TaskID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"message": fmt.Sprintf("Task '%s' (ID: %d) marked as done.", t.Title, t.ID),
			"task":    t,
		}, nil

	case "delete_task":
		var in taskIDArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("разбор аргументов: %w", err)
		}
		t, err := a.svc.DeleteTask(ctx, in.TaskID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"message":      fmt.Sprintf("Task '%s' (ID: %d) has been deleted.", t.Title, t.ID),
			"deleted_task": t,
		}, nil

	case "summarize_tasks":
		return a.svc.Summarize(ctx)

	case "tasks_by_date":
		var in dateArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("разбор аргументов: %w", err)
		}
		date, tasks, err := a.svc.TasksByDate(ctx, in.Date)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"date":       date,
			"date_input": in.Date,
			"tasks":      tasks,
			"count":      len(tasks),
		}, nil

	case "tasks_by_range":
		var in rangeArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("разбор аргументов: %w", err)
		}
		res, err := a.svc.TasksByRange(ctx, in.Start, in.End)
		if err != nil {
			return nil, err
		}
		endInput := in.End
		if endInput == "" {
			endInput = "same as start"
		}
		return map[string]any{
			"start_date":      res.StartDate,
			"end_date":        res.EndDate,
			"start_input":     in.Start,
			"end_input":       endInput,
			"tasks":           res.Tasks,
			"count":           res.Count,
			"date_range_days": res.Days,
		}, nil

	case "send_notification":
		var in notificationArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("разбор аргументов: %w", err)
		}
		if a.events == nil {
			return nil, fmt.Errorf("канал уведомлений не настроен")
		}
		typ := notification.Type(in.NotificationType)
		switch typ {
		case notification.TypeInfo, notification.TypeSuccess, notification.TypeWarning, notification.TypeError:
		default:
			typ = notification.TypeInfo
		}
		if err := a.events.Publish(ctx, notification.New(typ, in.Title, in.Message)); err != nil {
			return nil, err
		}
		return map[string]any{"message": "Notification sent."}, nil

	default:
		return nil, fmt.Errorf("неизвестный инструмент: %s", name)
	}
}

// errorPayload повторяет форму ошибок, которую ждёт модель:
// текст в "error" плюс детали бизнес-ошибки (received_date и т.п.).
func errorPayload(err error) map[string]any {
	var busErr *service.BusinessError
	if errors.As(err, &busErr) {
		payload := map[string]any{"error": busErr.Message}
		for k, v := range busErr.Details {
			payload[k] = v
		}
		return payload
	}
	return map[string]any{"error": err.Error()}
}

func marshalResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

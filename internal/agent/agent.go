// Package agent — чат-оркестрация: модель получает описания инструментов,
// решает, какие операции хранилища вызвать, и формулирует ответ пользователю
// по их результатам.
package agent

import (
	"context"
	"fmt"
	"sync"

	"taskmind/internal/models/task"
	"taskmind/internal/notify"
	"taskmind/internal/service"
)

const systemPrompt = `You are a helpful and friendly task management assistant. Your role is to help users manage their tasks efficiently and send notifications.

When the user asks to do something with their tasks, analyze their intent and call the appropriate function:
- add_task: When they want to create a new task or reminder
- list_tasks: When they want to see their tasks
- complete_task: When they want to mark a task as done (make sure you have the task ID)
- delete_task: When they want to remove a task
- summarize_tasks: When they want an overview or summary
- tasks_by_date / tasks_by_range: When they ask what is due on a date or in a period
- send_notification: When they want to send a notification or reminder

Be conversational and friendly. After executing a function, provide a natural response based on the results.
If you need more information (like a task ID or notification details), ask the user politely.

Keep your responses concise but helpful.`

// Сколько туров "модель -> инструменты" допускается на одно сообщение.
const maxToolRounds = 5

// LLM — то, что агенту нужно от модели.
type LLM interface {
	ChatCompletion(ctx context.Context, messages []Message, tools []Tool) (*Message, error)
}

// Service — операции хранилища, доступные инструментам.
type Service interface {
	AddTask(ctx context.Context, title, dueDateText string) (*task.Task, error)
	DeleteTask(ctx context.Context, id int) (*task.Task, error)
	ListTasks(ctx context.Context) ([]*task.Task, error)
	CompleteTask(ctx context.Context, id int) (*task.Task, error)
	Summarize(ctx context.Context) (*service.Summary, error)
	TasksByDate(ctx context.Context, dateText string) (string, []*task.Task, error)
	TasksByRange(ctx context.Context, startText, endText string) (*service.RangeResult, error)
}

type Agent struct {
	llm    LLM
	svc    Service
	events notify.Sink

	mtx     sync.Mutex
	history []Message
}

type AgentOption func(*Agent)

func WithNotifications(events notify.Sink) AgentOption {
	return func(a *Agent) {
		a.events = events
	}
}

func New(llm LLM, svc Service, opts ...AgentOption) *Agent {
	a := &Agent{
		llm: llm,
		svc: svc,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run обрабатывает одно сообщение пользователя: модель может сделать
// несколько туров вызова инструментов, финальный текстовый ответ
// возвращается вызывающей стороне. История диалога накапливается
// до явного Reset.
func (a *Agent) Run(ctx context.Context, userMessage string) (string, error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	a.history = append(a.history, Message{Role: "user", Content: userMessage})

	for round := 0; round < maxToolRounds; round++ {
		messages := make([]Message, 0, len(a.history)+1)
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
		messages = append(messages, a.history...)

		reply, err := a.llm.ChatCompletion(ctx, messages, toolDefs)
		if err != nil {
			return "", fmt.Errorf("запрос к модели: %w", err)
		}

		a.history = append(a.history, *reply)

		if len(reply.ToolCalls) == 0 {
			return reply.Content, nil
		}

		for _, call := range reply.ToolCalls {
			result := a.dispatch(ctx, call)
			a.history = append(a.history, Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	return "", fmt.Errorf("превышен лимит туров вызова инструментов (%d)", maxToolRounds)
}

// Reset очищает историю диалога.
func (a *Agent) Reset() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.history = nil
}

package agent_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskmind/internal/agent"
	"taskmind/internal/repository/task/inmemory"
	"taskmind/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGroq отдаёт заранее заготовленные ответы модели по очереди
// и записывает входящие запросы.
type fakeGroq struct {
	responses []string
	requests  []map[string]any
}

func (f *fakeGroq) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.requests = append(f.requests, body)

		if len(f.responses) == 0 {
			http.Error(w, `{"error": {"message": "no scripted response"}}`, http.StatusInternalServerError)
			return
		}
		next := f.responses[0]
		f.responses = f.responses[1:]

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(next))
	}
}

func toolCallResponse(name, arguments string) string {
	return `{
		"choices": [{
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "` + name + `", "arguments": ` + arguments + `}
				}]
			},
			"finish_reason": "tool_calls"
		}]
	}`
}

func textResponse(content string) string {
	return `{
		"choices": [{
			"message": {"role": "assistant", "content": "` + content + `"},
			"finish_reason": "stop"
		}]
	}`
}

func fixedClock() time.Time {
	return time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)
}

func newAgent(t *testing.T, fake *fakeGroq) (*agent.Agent, *inmemory.TaskStorage) {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	repo := inmemory.NewTaskStorage()
	svc := service.NewTaskService(repo, service.WithClock(fixedClock))

	llm := agent.NewGroqClient("test-key", agent.WithBaseURL(server.URL))
	return agent.New(llm, &svc), repo
}

func TestAgent_PlainAnswer(t *testing.T) {
	fake := &fakeGroq{responses: []string{
		textResponse("Hello! How can I help with your tasks?"),
	}}
	assistant, _ := newAgent(t, fake)

	answer, err := assistant.Run(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help with your tasks?", answer)
	require.Len(t, fake.requests, 1)

	// системная подсказка идёт первой
	messages := fake.requests[0]["messages"].([]any)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestAgent_ToolRound(t *testing.T) {
	fake := &fakeGroq{responses: []string{
		toolCallResponse("add_task", `"{\"title\": \"Buy milk\", \"due_date\": \"2025-10-20\"}"`),
		textResponse("Done, I added the task."),
	}}
	assistant, repo := newAgent(t, fake)

	answer, err := assistant.Run(context.Background(), "remind me to buy milk on october 20")

	require.NoError(t, err)
	assert.Equal(t, "Done, I added the task.", answer)

	// задача реально создана через сервис
	tasks, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	require.NotNil(t, tasks[0].DueDate)
	assert.Equal(t, "2025-10-20", *tasks[0].DueDate)

	// второй запрос к модели содержит результат инструмента
	require.Len(t, fake.requests, 2)
	messages := fake.requests[1]["messages"].([]any)
	last := messages[len(messages)-1].(map[string]any)
	assert.Equal(t, "tool", last["role"])
	assert.Contains(t, last["content"].(string), "parsed_date")
}

func TestAgent_BusinessErrorGoesBackToModel(t *testing.T) {
	fake := &fakeGroq{responses: []string{
		toolCallResponse("add_task", `"{\"title\": \"Pay rent\", \"due_date\": \"blorpday\"}"`),
		textResponse("I could not understand that date."),
	}}
	assistant, repo := newAgent(t, fake)

	answer, err := assistant.Run(context.Background(), "add pay rent due blorpday")

	require.NoError(t, err)
	assert.Equal(t, "I could not understand that date.", answer)

	// задача не создана, модель получила текст ошибки
	tasks, _ := repo.List(context.Background())
	assert.Empty(t, tasks)

	messages := fake.requests[1]["messages"].([]any)
	last := messages[len(messages)-1].(map[string]any)
	assert.Equal(t, "tool", last["role"])
	assert.Contains(t, last["content"].(string), "error")
	assert.Contains(t, last["content"].(string), "blorpday")
}

func TestAgent_HistoryAndReset(t *testing.T) {
	fake := &fakeGroq{responses: []string{
		textResponse("First answer."),
		textResponse("Second answer."),
		textResponse("Fresh answer."),
	}}
	assistant, _ := newAgent(t, fake)
	ctx := context.Background()

	_, err := assistant.Run(ctx, "first message")
	require.NoError(t, err)
	_, err = assistant.Run(ctx, "second message")
	require.NoError(t, err)

	// во втором запросе есть весь предыдущий диалог
	messages := fake.requests[1]["messages"].([]any)
	assert.Len(t, messages, 4) // system + user + assistant + user

	assistant.Reset()
	_, err = assistant.Run(ctx, "after reset")
	require.NoError(t, err)

	messages = fake.requests[2]["messages"].([]any)
	assert.Len(t, messages, 2) // system + user
}

func TestAgent_ToolRoundLimit(t *testing.T) {
	// модель зацикливается на вызовах инструментов
	loop := toolCallResponse("list_tasks", `"{}"`)
	fake := &fakeGroq{responses: []string{loop, loop, loop, loop, loop, loop}}
	assistant, _ := newAgent(t, fake)

	_, err := assistant.Run(context.Background(), "list forever")

	require.Error(t, err)
}

func TestGroqClient_RetriesOn500(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			http.Error(w, `{"error": {"message": "internal"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(textResponse("Recovered.")))
	}))
	defer server.Close()

	llm := agent.NewGroqClient("test-key", agent.WithBaseURL(server.URL))

	reply, err := llm.ChatCompletion(context.Background(), []agent.Message{
		{Role: "user", Content: "hello"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Recovered.", reply.Content)
	assert.Equal(t, 2, attempts)
}

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1/chat/completions"
	groqModel        = "llama-3.3-70b-versatile"
	groqMaxTokens    = 1000
	groqMaxRetries   = 3
	groqInitialDelay = 1 * time.Second
)

// GroqClient ходит в Groq chat completions API (схема совместима с OpenAI).
type GroqClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type GroqOption func(*GroqClient)

// WithBaseURL подменяет адрес API (для тестов).
func WithBaseURL(url string) GroqOption {
	return func(c *GroqClient) {
		c.baseURL = url
	}
}

func WithModel(model string) GroqOption {
	return func(c *GroqClient) {
		c.model = model
	}
}

func NewGroqClient(apiKey string, opts ...GroqOption) *GroqClient {
	c := &GroqClient{
		apiKey:  apiKey,
		baseURL: groqBaseURL,
		model:   groqModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatRequest struct {
	Model      string    `json:"model"`
	Messages   []Message `json:"messages"`
	Tools      []Tool    `json:"tools,omitempty"`
	ToolChoice string    `json:"tool_choice,omitempty"`
	MaxTokens  int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ChatCompletion выполняет один запрос к модели. 429 и 5xx
// повторяются с удвоением паузы.
func (c *GroqClient) ChatCompletion(ctx context.Context, messages []Message, tools []Tool) (*Message, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY не задан")
	}

	req := chatRequest{
		Model:     c.model,
		Messages:  messages,
		Tools:     tools,
		MaxTokens: groqMaxTokens,
	}
	if len(tools) > 0 {
		req.ToolChoice = "auto"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("сериализация запроса: %w", err)
	}

	delay := groqInitialDelay
	var lastErr error
	for attempt := 0; attempt < groqMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		msg, retryable, err := c.do(ctx, body)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("после %d попыток: %w", groqMaxRetries, lastErr)
}

func (c *GroqClient) do(ctx context.Context, body []byte) (*Message, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("создание запроса: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("запрос к groq: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("чтение ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500

		var aerr apiError
		if err := json.Unmarshal(respBody, &aerr); err == nil && aerr.Error.Message != "" {
			return nil, retryable, fmt.Errorf("groq: %s (статус %d)", aerr.Error.Message, resp.StatusCode)
		}
		return nil, retryable, fmt.Errorf("groq: статус %d: %s", resp.StatusCode, string(respBody))
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, false, fmt.Errorf("разбор ответа: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, false, fmt.Errorf("groq: пустой ответ без choices")
	}
	return &completion.Choices[0].Message, false, nil
}

package notify

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
	mailtrapBaseURL = "https://send.api.mailtrap.io/api/send"
	mailtrapTimeout = 30 * time.Second
)

// MailtrapClient — минимальный клиент Mailtrap Send API.
type MailtrapClient struct {
	token   string
	baseURL string
	client  *http.Client
}

type mailtrapAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailtrapRequest struct {
	From    mailtrapAddress   `json:"from"`
	To      []mailtrapAddress `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html,omitempty"`
	Text    string            `json:"text,omitempty"`
}

type mailtrapResponse struct {
	Success    bool     `json:"success"`
	MessageIDs []string `json:"message_ids"`
}

type mailtrapError struct {
	Errors []string `json:"errors"`
}

func NewMailtrapClient(token string) *MailtrapClient {
	return &MailtrapClient{
		token:   token,
		baseURL: mailtrapBaseURL,
		client:  &http.Client{Timeout: mailtrapTimeout},
	}
}

// Email — одно исходящее письмо.
type Email struct {
	FromEmail string
	FromName  string
	To        string
	Subject   string
	HTML      string
	Text      string
}

func (c *MailtrapClient) Send(ctx context.Context, email Email) error {
	if c.token == "" {
		return fmt.Errorf("MAILTRAP_API_TOKEN не задан")
	}

	payload := mailtrapRequest{
		From:    mailtrapAddress{Email: email.FromEmail, Name: email.FromName},
		To:      []mailtrapAddress{{Email: email.To}},
		Subject: email.Subject,
		HTML:    email.HTML,
		Text:    email.Text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("сериализация письма: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("отправка письма: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("чтение ответа: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var result mailtrapResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("разбор ответа: %w", err)
		}
		if !result.Success {
			return fmt.Errorf("mailtrap отклонил письмо")
		}
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("mailtrap: токен недействителен или истёк")
	case http.StatusUnprocessableEntity:
		var apiErr mailtrapError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && len(apiErr.Errors) > 0 {
			return fmt.Errorf("mailtrap: валидация не пройдена: %v", apiErr.Errors)
		}
		return fmt.Errorf("mailtrap: валидация не пройдена")
	default:
		return fmt.Errorf("mailtrap: статус %d: %s", resp.StatusCode, string(respBody))
	}
}

package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Notification — эфемерная запись истории уведомлений. Идентичности за
// пределами позиции в истории у неё нет, задачи на неё не ссылаются.
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Time      string    `json:"time"`
}

func New(typ Type, title, message string) Notification {
	now := time.Now()
	return Notification{
		ID:        uuid.New().String(),
		Type:      typ,
		Title:     title,
		Message:   message,
		Timestamp: now,
		Time:      now.Format("15:04:05"),
	}
}

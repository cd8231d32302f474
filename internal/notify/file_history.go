package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"taskmind/internal/models/notification"
)

// FileHistory — история уведомлений в одном JSON-массиве,
// переписываемом целиком при каждой публикации. Новые записи в начале.
type FileHistory struct {
	mtx   sync.Mutex
	path  string
	limit int
}

func NewFileHistory(path string, limit int) *FileHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &FileHistory{path: path, limit: limit}
}

func (h *FileHistory) Publish(ctx context.Context, n notification.Notification) error {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	history, err := h.load()
	if err != nil {
		return err
	}

	history = append([]notification.Notification{n}, history...)
	if len(history) > h.limit {
		history = history[:h.limit]
	}
	return h.save(history)
}

func (h *FileHistory) Recent(ctx context.Context, limit int) ([]notification.Notification, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	history, err := h.load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(history) {
		history = history[:limit]
	}
	return history, nil
}

func (h *FileHistory) load() ([]notification.Notification, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []notification.Notification{}, nil
		}
		return nil, fmt.Errorf("чтение %s: %w", h.path, err)
	}
	if len(data) == 0 {
		return []notification.Notification{}, nil
	}

	var history []notification.Notification
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("разбор %s: %w", h.path, err)
	}
	return history, nil
}

func (h *FileHistory) save(history []notification.Notification) error {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("сериализация истории: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0644); err != nil {
		return fmt.Errorf("запись %s: %w", h.path, err)
	}
	return nil
}

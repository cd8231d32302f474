package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"taskmind/internal/models/notification"

	"github.com/redis/go-redis/v9"
)

const historyKey = "taskmind:notifications"

// RedisHistory — история уведомлений в redis-списке:
// LPUSH новой записи и LTRIM до предела за одну публикацию.
type RedisHistory struct {
	client *redis.Client
	limit  int64
}

func NewRedisHistory(ctx context.Context, addr string, limit int) (*RedisHistory, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("подключение к redis: %w", err)
	}

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &RedisHistory{client: client, limit: int64(limit)}, nil
}

func (h *RedisHistory) Publish(ctx context.Context, n notification.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("сериализация уведомления: %w", err)
	}

	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, h.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("запись в redis: %w", err)
	}
	return nil
}

func (h *RedisHistory) Recent(ctx context.Context, limit int) ([]notification.Notification, error) {
	stop := h.limit - 1
	if limit > 0 && int64(limit) < h.limit {
		stop = int64(limit) - 1
	}

	raw, err := h.client.LRange(ctx, historyKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("чтение из redis: %w", err)
	}

	history := make([]notification.Notification, 0, len(raw))
	for _, item := range raw {
		var n notification.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return nil, fmt.Errorf("разбор записи истории: %w", err)
		}
		history = append(history, n)
	}
	return history, nil
}

func (h *RedisHistory) Close() error {
	return h.client.Close()
}

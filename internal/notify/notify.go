// Package notify — побочный канал уведомлений: ограниченная история
// (файл или Redis) и почтовая доставка. Бэкенды взаимозаменяемы,
// контракт один — принять структурированное событие.
package notify

import (
	"context"

	"taskmind/internal/logger"
	"taskmind/internal/models/notification"

	"go.uber.org/zap"
)

// DefaultHistoryLimit — предел длины истории: новые записи в начале,
// старые молча вытесняются.
const DefaultHistoryLimit = 50

type Sink interface {
	Publish(ctx context.Context, n notification.Notification) error
}

// History — бэкенд, умеющий отдавать последние уведомления.
type History interface {
	Sink
	Recent(ctx context.Context, limit int) ([]notification.Notification, error)
}

// Fanout рассылает событие во все приёмники. Отказ одного приёмника
// не мешает остальным и не считается отказом публикации.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Publish(ctx context.Context, n notification.Notification) error {
	for _, s := range f.sinks {
		if err := s.Publish(ctx, n); err != nil {
			logger.Warn("Notify: Приёмник отклонил уведомление", zap.Error(err))
		}
	}
	return nil
}

package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskmind/internal/logger"
	"taskmind/internal/models/notification"

	"go.uber.org/zap"
)

// Цвет шапки письма по типу уведомления.
var typeColors = map[notification.Type]string{
	notification.TypeInfo:    "#3b82f6",
	notification.TypeSuccess: "#10b981",
	notification.TypeWarning: "#f59e0b",
	notification.TypeError:   "#ef4444",
}

// EmailSink отправляет уведомление письмом. Доставка идёт в фоне:
// мутация задачи не ждёт и не зависит от исхода отправки.
type EmailSink struct {
	client    *MailtrapClient
	fromEmail string
	fromName  string
	to        string
}

func NewEmailSink(client *MailtrapClient, fromEmail, to string) *EmailSink {
	return &EmailSink{
		client:    client,
		fromEmail: fromEmail,
		fromName:  "Task Assistant",
		to:        to,
	}
}

func (s *EmailSink) Publish(ctx context.Context, n notification.Notification) error {
	email := Email{
		FromEmail: s.fromEmail,
		FromName:  s.fromName,
		To:        s.to,
		Subject:   fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Type)), n.Title),
		HTML:      renderHTML(n),
		Text:      fmt.Sprintf("%s\n\n%s", n.Title, n.Message),
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), mailtrapTimeout)
		defer cancel()

		if err := s.client.Send(sendCtx, email); err != nil {
			logger.Warn("Notify: Ошибка отправки письма",
				zap.Error(err),
				zap.String("notification_id", n.ID))
			return
		}
		logger.Info("Notify: Письмо отправлено",
			zap.String("notification_id", n.ID),
			zap.String("subject", email.Subject))
	}()

	return nil
}

func renderHTML(n notification.Notification) string {
	color, ok := typeColors[n.Type]
	if !ok {
		color = typeColors[notification.TypeInfo]
	}

	return fmt.Sprintf(`<html>
	<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
		<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
			<div style="background-color: %s; color: white; padding: 15px; border-radius: 5px 5px 0 0;">
				<h2 style="margin: 0;">%s</h2>
			</div>
			<div style="background-color: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 5px 5px;">
				<p style="margin: 0; white-space: pre-wrap;">%s</p>
				<hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
				<p style="font-size: 12px; color: #6b7280; margin: 0;">Sent at %s</p>
			</div>
		</div>
	</body>
</html>`, color, n.Title, n.Message, n.Timestamp.Format(time.DateTime))
}

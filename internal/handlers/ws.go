package handlers

import (
	"net/http"
	"time"

	"taskmind/internal/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Фронтенд обслуживается отдельно, поэтому origin не проверяем.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsFrame struct {
	Type      string `json:"type"`
	Status    string `json:"status,omitempty"`
	Response  string `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ChatSocket держит диалог в реальном времени: на каждое входящее
// сообщение клиент получает рамку "typing started", затем ответ
// или ошибку, затем "typing stopped".
func (s *ChatHandler) ChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WS: Не удалось установить соединение", err,
			zap.String("client_ip", r.RemoteAddr))
		return
	}
	defer conn.Close()

	logger.Info("WS: Клиент подключён", zap.String("client_ip", r.RemoteAddr))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WS: Соединение прервано", zap.Error(err))
			} else {
				logger.Info("WS: Клиент отключён", zap.String("client_ip", r.RemoteAddr))
			}
			return
		}

		message := string(data)
		logger.Info("WS: Сообщение получено", zap.Int("length", len(message)))

		if err := conn.WriteJSON(wsFrame{Type: "typing", Status: "started"}); err != nil {
			logger.Warn("WS: Ошибка отправки", zap.Error(err))
			return
		}

		answer, runErr := s.Agent.Run(r.Context(), message)
		if runErr != nil {
			logger.Error("WS: Ошибка агента", runErr)
			if err := conn.WriteJSON(wsFrame{Type: "error", Error: runErr.Error()}); err != nil {
				logger.Warn("WS: Ошибка отправки", zap.Error(err))
				return
			}
		} else {
			frame := wsFrame{
				Type:      "message",
				Response:  answer,
				Timestamp: time.Now().Format(time.RFC3339),
			}
			if err := conn.WriteJSON(frame); err != nil {
				logger.Warn("WS: Ошибка отправки", zap.Error(err))
				return
			}
		}

		if err := conn.WriteJSON(wsFrame{Type: "typing", Status: "stopped"}); err != nil {
			logger.Warn("WS: Ошибка отправки", zap.Error(err))
			return
		}
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskmind/internal/handlers/dto"
	"taskmind/internal/logger"

	"go.uber.org/zap"
)

type ChatHandler struct {
	Agent ChatAgent
}

func NewChatHandler(agent ChatAgent) ChatHandler {
	return ChatHandler{Agent: agent}
}

// PostChat — REST-вариант диалога: одно сообщение, один ответ ассистента.
func (s *ChatHandler) PostChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {

		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {

		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	if request.Message == "" {

		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "message"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "сообщение не может быть пустым")
		return
	}

	logger.Info("HTTP: Вызов агента")

	answer, err := s.Agent.Run(r.Context(), request.Message)
	if err != nil {

		logger.Error("HTTP: Ошибка агента", err,
			zap.String("operation", "chat"),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Ответ агента отправлен",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	response := dto.ChatResponse{
		Response:  answer,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

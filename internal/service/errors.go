package service

import "fmt"

// Коды бизнес-ошибок. Ядро никогда не роняет процесс: ошибки поднимаются
// наверх структурированным результатом, транспортный слой сам решает,
// как показать их пользователю.
const (
	CodeResolution = "RESOLUTION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

// Тексты сообщений пользовательские: их без изменений показывает чат-агент,
// поэтому они на языке пользователя, а не логов.

func NewResolutionError(kind, input string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeResolution,
		Message: fmt.Sprintf("Could not understand the %s: '%s'. Try formats like '2025-10-15', 'tomorrow', 'next Monday', etc.", kind, input),
		Details: map[string]any{
			"received_date": input,
		},
		Err: err,
	}
}

func NewNotFound(id int) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("Task with ID %d not found.", id),
		Details: map[string]any{
			"id": id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Invalid value for '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

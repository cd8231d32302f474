package task

import (
	"time"
)

const DateLayout = "2006-01-02"

// DueDate хранится строго в формате YYYY-MM-DD — в хранилище никогда
// не попадает "сырой" текст даты, только результат резолвера.
type Task struct {
	ID          int        `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	DueDate     *string    `json:"due_date" db:"due_date"`
	Done        bool       `json:"done" db:"done"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// IsOverdue: задача не выполнена и дедлайн строго раньше сегодняшней даты.
// ISO-даты сравниваются лексикографически, поэтому хватает сравнения строк.
func (t *Task) IsOverdue(today string) bool {
	return !t.Done && t.DueDate != nil && *t.DueDate < today
}

// Clone возвращает копию задачи, чтобы снаружи нельзя было
// мутировать запись в обход хранилища.
func (t *Task) Clone() *Task {
	cp := *t
	if t.DueDate != nil {
		due := *t.DueDate
		cp.DueDate = &due
	}
	if t.CompletedAt != nil {
		done := *t.CompletedAt
		cp.CompletedAt = &done
	}
	return &cp
}

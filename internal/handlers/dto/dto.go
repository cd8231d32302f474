package dto

type CreateTaskRequest struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

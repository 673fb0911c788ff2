package model

// ChatResponse 对话成功响应
type ChatResponse struct {
	Success             bool   `json:"success"`
	Response            string `json:"response"`
	ConversationHistory []Turn `json:"conversationHistory"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

package model

// ChatRequest 对话请求
type ChatRequest struct {
	Message             string `json:"message"`
	ConversationHistory []Turn `json:"conversationHistory,omitempty"`
}

package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"chatrelay/internal/config"
	"chatrelay/internal/model"
)

// Generator 文本生成能力
type Generator interface {
	Generate(ctx context.Context, prompt, authorization string) (string, error)
}

// ChatService 对话服务 - 业务逻辑层
// 职责: 追加对话历史，组装提示词，调用生成服务
type ChatService struct {
	generator  Generator
	promptMode string
}

// NewChatService 创建对话服务
func NewChatService(generator Generator, promptMode string) *ChatService {
	if promptMode == "" {
		promptMode = config.PromptModeMessage
	}
	return &ChatService{
		generator:  generator,
		promptMode: promptMode,
	}
}

// Chat 处理对话请求
// 业务流程: 1. 追加用户消息 -> 2. 调用生成服务 -> 3. 追加助手消息
// 调用方传入的历史不会被修改
func (s *ChatService) Chat(ctx context.Context, req *model.ChatRequest, authorization string) (*model.ChatResponse, error) {
	logger := log.Ctx(ctx)

	// 1. 追加用户消息
	history := model.AppendTurns(req.ConversationHistory, model.Turn{
		Role:    model.RoleUser,
		Content: req.Message,
	})

	// 2. 调用生成服务
	prompt := BuildPrompt(s.promptMode, req.ConversationHistory, req.Message)
	text, err := s.generator.Generate(ctx, prompt, authorization)
	if err != nil {
		return nil, err
	}

	// 3. 追加助手消息
	history = append(history, model.Turn{
		Role:    model.RoleAssistant,
		Content: text,
	})

	logger.Info().
		Int("history_len", len(history)).
		Int("response_chars", len([]rune(text))).
		Msg("chat completed")

	return &model.ChatResponse{
		Success:             true,
		Response:            text,
		ConversationHistory: history,
	}, nil
}

// BuildPrompt 按模式组装提示词
// message 模式下提示词就是最新消息原文；transcript 模式把历史逐行展开后接上最新消息
func BuildPrompt(mode string, history []model.Turn, message string) string {
	if mode != config.PromptModeTranscript {
		return message
	}

	var b strings.Builder
	for _, turn := range history {
		if turn.Role != model.RoleUser && turn.Role != model.RoleAssistant {
			continue
		}
		b.WriteString(turn.Role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString(model.RoleUser)
	b.WriteString(": ")
	b.WriteString(message)
	b.WriteString("\n")
	b.WriteString(model.RoleAssistant)
	b.WriteString(":")
	return b.String()
}

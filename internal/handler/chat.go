package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chatrelay/internal/metrics"
	"chatrelay/internal/model"
	"chatrelay/internal/pkg/ctxutil"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/id"
	"chatrelay/internal/pkg/jwt"
	"chatrelay/internal/service"
)

// 请求体大小上限 (1 MiB)
const maxBodyBytes = 1 << 20

// CORS 响应头
const (
	AllowHeaders = "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token"
	AllowMethods = "OPTIONS,POST"
)

// ChatHandler 对话转发处理器
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler 创建对话转发处理器
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// HandleEvent 处理一次 API Gateway 事件，总是返回一个 HTTP 响应
// 所有失败（包括 panic）都在这里统一翻译为 400/500
func (h *ChatHandler) HandleEvent(ctx context.Context, event events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse) {
	requestID := event.RequestContext.RequestID
	if requestID == "" {
		requestID = id.New()
	}
	caller := callerFromEvent(event)

	logger := log.With().Str("request_id", requestID).Logger()
	if caller != "" {
		logger = logger.With().Str("caller", caller).Logger()
	}
	ctx = ctxutil.WithRequestID(ctx, requestID)
	ctx = ctxutil.WithCaller(ctx, caller)
	ctx = logger.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			resp = h.fail(&logger, errs.New(errs.KindInternal, "panic"))
		}
	}()

	chatResp, err := h.handle(ctx, &logger, event)
	if err != nil {
		return h.fail(&logger, err)
	}

	metrics.RecordRequest(nil)
	return jsonResponse(http.StatusOK, chatResp)
}

// Lambda 适配 aws-lambda-go 的处理函数签名
func (h *ChatHandler) Lambda(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.HandleEvent(ctx, event), nil
}

func (h *ChatHandler) handle(ctx context.Context, logger *zerolog.Logger, event events.APIGatewayProxyRequest) (*model.ChatResponse, error) {
	req, err := parseChatRequest(event)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("message_chars", len([]rune(req.Message))).
		Int("history_len", len(req.ConversationHistory)).
		Msg("processing message")

	return h.chatService.Chat(ctx, req, lookupHeader(event, "Authorization"))
}

// fail 记录详细错误并生成调用方可见的错误响应
func (h *ChatHandler) fail(logger *zerolog.Logger, err error) events.APIGatewayProxyResponse {
	kind := errs.KindOf(err)
	metrics.RecordRequest(err)

	event := logger.Error()
	if kind == errs.KindBadRequest {
		event = logger.Warn()
	}
	var e *errs.Error
	if errors.As(err, &e) && e.StatusCode != 0 {
		event = event.Int("upstream_status", e.StatusCode).Str("upstream_body", e.Body)
	}
	event.Err(err).Str("kind", kind.String()).Msg("chat request failed")

	return jsonResponse(errs.Status(err), model.ErrorResponse{
		Success: false,
		Error:   errs.Public(err),
	})
}

// parseChatRequest 解析并校验请求体
func parseChatRequest(event events.APIGatewayProxyRequest) (*model.ChatRequest, error) {
	body := event.Body
	if event.IsBase64Encoded && body != "" {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, errs.BadRequest("failed to parse request body: invalid base64 encoding")
		}
		body = string(decoded)
	}
	if strings.TrimSpace(body) == "" {
		return nil, errs.BadRequest("request body is missing or empty")
	}

	var req model.ChatRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return nil, errs.BadRequest("failed to parse request body as JSON object")
	}
	if req.Message == "" {
		return nil, errs.BadRequest("'message' is required and must be a non-empty string")
	}
	return &req, nil
}

// lookupHeader 不区分大小写地查找请求头
func lookupHeader(event events.APIGatewayProxyRequest, name string) string {
	for k, v := range event.Headers {
		if strings.EqualFold(k, name) && v != "" {
			return v
		}
	}
	for k, vs := range event.MultiValueHeaders {
		if !strings.EqualFold(k, name) {
			continue
		}
		for _, v := range vs {
			if v != "" {
				return v
			}
		}
	}
	return ""
}

// callerFromEvent 从 authorizer claims 中提取调用方标识，仅用于日志
func callerFromEvent(event events.APIGatewayProxyRequest) string {
	claims, ok := event.RequestContext.Authorizer["claims"].(map[string]any)
	if !ok {
		return ""
	}
	return jwt.Caller(claims)
}

func jsonResponse(status int, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"success":false,"error":"internal server error: internal"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": AllowHeaders,
			"Access-Control-Allow-Methods": AllowMethods,
		},
		Body: string(body),
	}
}

// Chat 对话接口
// @Summary      转发对话消息
// @Description  将消息转发到文本生成服务，返回生成结果与追加后的对话历史
// @Tags         对话
// @Accept       json
// @Produce      json
// @Param        Authorization  header    string             false  "原样转发给生成服务"
// @Param        request        body      model.ChatRequest  true   "对话请求"
// @Success      200            {object}  model.ChatResponse
// @Failure      400            {object}  model.ErrorResponse
// @Failure      500            {object}  model.ErrorResponse
// @Router       /api/v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		logger := log.With().Str("request_id", c.GetString("request_id")).Logger()
		writeEventResponse(c, h.fail(&logger, errs.BadRequest("failed to read request body")))
		return
	}

	event := events.APIGatewayProxyRequest{
		HTTPMethod:        c.Request.Method,
		Path:              c.Request.URL.Path,
		Body:              string(body),
		MultiValueHeaders: c.Request.Header,
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID: c.GetString("request_id"),
		},
	}
	if claims, err := jwt.PeekClaims(c.GetHeader("Authorization")); err == nil {
		event.RequestContext.Authorizer = map[string]any{"claims": claims}
	}

	writeEventResponse(c, h.HandleEvent(c.Request.Context(), event))
}

func writeEventResponse(c *gin.Context, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"chatrelay/internal/pkg/ctxutil"
	"chatrelay/internal/pkg/id"
)

const (
	// RequestIDHeader 请求 ID 头
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey gin.Context 中的请求 ID 键
	RequestIDKey = "request_id"
)

// RequestID 请求 ID 中间件
// 复用调用方传入的 X-Request-ID，否则生成新的，并写回响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := id.FromHeader(c.GetHeader(RequestIDHeader))

		c.Set(RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

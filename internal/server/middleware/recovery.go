package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"chatrelay/internal/model"
	"chatrelay/internal/pkg/errs"
)

// Recovery 异常恢复中间件
// 转发处理器自己会捕获 panic，这里兜底其余路由
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Bytes("stack", debug.Stack()).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Str("request_id", c.GetString(RequestIDKey)).
					Msg("panic recovered")

				c.Header("Access-Control-Allow-Origin", "*")
				perr := errs.New(errs.KindInternal, "panic")
				c.AbortWithStatusJSON(errs.Status(perr), model.ErrorResponse{
					Success: false,
					Error:   errs.Public(perr),
				})
			}
		}()
		c.Next()
	}
}

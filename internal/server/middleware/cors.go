package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/handler"
)

// CORS 跨域中间件
// 所有响应都带 Access-Control-Allow-Origin: *，OPTIONS 预检直接返回 204
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Headers", handler.AllowHeaders)
			c.Header("Access-Control-Allow-Methods", handler.AllowMethods)
			c.Header("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

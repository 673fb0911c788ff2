package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/version"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	endpoint string
}

// NewHealthHandler 创建健康检查处理器，endpoint 为生成服务地址，只展示 host
func NewHealthHandler(endpoint string) *HealthHandler {
	if u, err := url.Parse(endpoint); err == nil {
		endpoint = u.Host
	}
	return &HealthHandler{endpoint: endpoint}
}

// Health 健康检查
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
	})
}

// Ready 就绪检查，不探测生成服务
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"upstream": h.endpoint,
	})
}

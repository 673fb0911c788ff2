package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "chatrelay/docs"
	"chatrelay/internal/ai"
	"chatrelay/internal/config"
	"chatrelay/internal/handler"
	"chatrelay/internal/metrics"
	"chatrelay/internal/server/middleware"
	"chatrelay/internal/service"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	chat   *handler.ChatHandler
	health *handler.HealthHandler
}

// NewChatHandler 按配置组装转发链路: ai.Client -> ChatService -> ChatHandler
// HTTP 与 lambda 两种入口共用
func NewChatHandler(cfg *config.GenerationConfig) (*handler.ChatHandler, *ai.Client, error) {
	client, err := ai.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create generation client: %w", err)
	}
	chatSvc := service.NewChatService(client, cfg.PromptMode)
	return handler.NewChatHandler(chatSvc), client, nil
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	chatHdl, client, err := NewChatHandler(&cfg.Generation)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("endpoint", client.Endpoint()).
		Dur("timeout", cfg.Generation.Timeout).
		Str("prompt_mode", cfg.Generation.PromptMode).
		Msg("initialized generation client")

	srv := &Server{
		cfg:    cfg,
		engine: gin.New(),
		chat:   chatHdl,
		health: handler.NewHealthHandler(client.Endpoint()),
	}

	// 设置路由
	srv.setupRoutes()

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	metricsPath := s.cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger("/health", "/ready", metricsPath))
	s.engine.Use(middleware.CORS())

	// 健康检查
	s.engine.GET("/health", s.health.Health)
	s.engine.GET("/ready", s.health.Ready)

	// Prometheus 指标
	if s.cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics.Register(registry)
		s.engine.GET(metricsPath, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// Swagger 文档，仅 debug 模式开放
	if s.cfg.Server.Mode == "debug" {
		s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 对话接口
	s.engine.POST("/chat", s.chat.Chat)

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/chat", s.chat.Chat)
	}
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

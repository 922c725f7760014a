package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/api/v1"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/config"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/logger"
	sessionstore "github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/store"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/store"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	v1     *v1.Handler
	http   *http.Server
	log    logger.Logger
}

// NewServer 创建服务器；store 由调用方打开和关闭
func NewServer(cfg *config.AppConfig, st *store.Store, log logger.Logger) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	s := &Server{
		router: gin.New(),
		store:  st,
		v1:     v1.NewHandler(st, sessionstore.NewMemoryStore(), cfg.PipelineOptions(), log),
		log:    log,
	}
	s.router.Use(gin.Recovery(), s.requestLog())
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setupRoutes()

	return s
}

// requestLog 访问日志
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debugw("http request", map[string]any{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Warning-Count")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api/v1")
	{
		s.v1.RegisterRoutes(api)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr 监听地址
func (s *Server) Addr() string {
	return s.http.Addr
}

// Run 启动服务器，阻塞直到 Shutdown 被调用
func (s *Server) Run() error {
	s.log.Infof("listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}

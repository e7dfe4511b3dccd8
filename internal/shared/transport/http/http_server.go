package http

import (
	"context"
	nethttp "net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"Paddlers/internal/shared/transport/http/middleware"
	"Paddlers/modules/kit/logx"
)

type Server struct {
	engine *gin.Engine
	api    *gin.RouterGroup
	srv    *nethttp.Server
	ready  atomic.Bool
}

// NewHttpServer 挂好 recovery、跨域、访问日志和探针，业务路由挂在 /api/v1 下。
// /healthz 进程存活即 200；/readyz 在 SetReady(true) 之后才是 200。
func NewHttpServer(addr string, engine *gin.Engine, logger logx.Logger) *Server {
	if engine == nil {
		engine = gin.New()
	}
	if logger == nil {
		logger = logx.Nop()
	}
	engine.Use(gin.Recovery(), middleware.Cors(), middleware.AccessLog(logger))

	s := &Server{
		engine: engine,
		api:    engine.Group("/api/v1"),
		srv: &nethttp.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/readyz", s.readyz)
	return s
}

// SetReady 模拟运行时就绪后置 true，开始关闭时置 false 让负载均衡摘流量。
func (s *Server) SetReady(ok bool) {
	s.ready.Store(ok)
}

func (s *Server) readyz(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(nethttp.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"status": "ready"})
}

// Start 阻塞，关闭后返回 net/http.ErrServerClosed。
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) API() *gin.RouterGroup {
	return s.api
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Handler() nethttp.Handler {
	return s.engine
}

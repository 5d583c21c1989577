package api

import (
	"github.com/gin-gonic/gin"

	"github.com/MANImax123/NetworkDashboard/config"
	"github.com/MANImax123/NetworkDashboard/internal/database"
	"github.com/MANImax123/NetworkDashboard/internal/insight"
	"github.com/MANImax123/NetworkDashboard/internal/monitor"
	"github.com/MANImax123/NetworkDashboard/internal/realtime"
)

// Server API服务器
type Server struct {
	config   *config.Config
	monitor  monitor.Monitor
	store    database.Store
	analyzer *insight.Analyzer
	hub      *realtime.Hub
	router   *gin.Engine
}

// NewServer 创建API服务器
func NewServer(cfg *config.Config, mon monitor.Monitor, store database.Store, analyzer *insight.Analyzer, hub *realtime.Hub) *Server {
	server := &Server{
		config:   cfg,
		monitor:  mon,
		store:    store,
		analyzer: analyzer,
		hub:      hub,
	}
	server.initRouter()
	return server
}

// Router 获取路由
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Hub 获取实时推送Hub
func (s *Server) Hub() *realtime.Hub {
	return s.hub
}

// initRouter 初始化路由
func (s *Server) initRouter() {
	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())

	s.router.GET("/", s.handleRoot)

	// 前端轮询直接消费这些原始 JSON 文档（不走统一 Response 包装）
	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/network/current", s.handleCurrentMetrics)
		api.GET("/network/history", s.handleMetricsHistory)
		api.GET("/devices", s.handleDevices)
		api.GET("/devices/advanced", s.handleDevicesAdvanced)
		api.GET("/alerts", s.handleAlerts)
		api.POST("/alerts/:id/resolve", s.handleResolveAlert)
		api.GET("/protocols", s.handleProtocols)
		api.GET("/ports", s.handlePorts)
		api.GET("/topology", s.handleTopology)
		api.GET("/insights", s.handleInsights)
	}

	// WebSocket 实时推送
	s.router.GET("/ws", s.handleWebSocket)
}

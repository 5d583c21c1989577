package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MANImax123/NetworkDashboard/config"
	"github.com/MANImax123/NetworkDashboard/internal/api"
	"github.com/MANImax123/NetworkDashboard/internal/database"
	"github.com/MANImax123/NetworkDashboard/internal/insight"
	"github.com/MANImax123/NetworkDashboard/internal/logger"
	"github.com/MANImax123/NetworkDashboard/internal/monitor"
	"github.com/MANImax123/NetworkDashboard/internal/realtime"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	if err := logger.InitLogger(cfg.Log.Dir); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Close()
	logger.Info("启动网络性能监控服务...")

	// 初始化历史数据库
	store, err := database.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Fatal("初始化数据库失败: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("关闭数据库失败: %v", err)
		}
	}()

	// 监控器 + 分析器 + 实时推送Hub
	mon := monitor.NewMonitor(&cfg.Monitor)
	analyzer := insight.NewAnalyzer()
	hub := realtime.NewHub()
	defer hub.Close()

	// HTTP API服务器
	apiServer := api.NewServer(cfg, mon, store, analyzer, hub)
	httpServer := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: apiServer.Router(),
	}

	go func() {
		logger.Info("HTTP服务器启动在 %s", cfg.Server.Listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务器启动失败: %v", err)
		}
	}()

	// 后台循环：快照推送 / 指标落盘 / 历史清理
	done := make(chan struct{})
	go broadcastLoop(cfg, mon, analyzer, store, hub, done)
	go storeLoop(cfg, mon, store, done)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭服务...")
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP服务器关闭失败: %v", err)
	}

	logger.Info("服务已关闭")
}

// broadcastLoop 周期采集快照并广播给所有 WebSocket 客户端
func broadcastLoop(cfg *config.Config, mon monitor.Monitor, analyzer *insight.Analyzer, store database.Store, hub *realtime.Hub, done chan struct{}) {
	interval := time.Duration(cfg.Monitor.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := mon.Snapshot()

			// 喂给分析器，快照里带上分析结果
			analyzer.Observe(snap.Bandwidth.Download, snap.Bandwidth.Upload, snap.Latency)
			snap.Insights = analyzer.Insights(snap.Bandwidth.Download, snap.Bandwidth.Upload, snap.Latency, snap.PacketLoss)

			// 新产生的告警与设备状态落盘
			for _, a := range snap.Alerts {
				if err := store.StoreAlert(a); err != nil {
					logger.Error("保存告警失败: %v", err)
				}
			}
			for _, d := range snap.Devices {
				if err := store.UpsertDevice(d); err != nil {
					logger.Error("保存设备失败: %v", err)
				}
			}

			hub.Broadcast(realtime.EventNetworkSnapshot, snap)
		}
	}
}

// storeLoop 指标定期落盘 + 按保留期清理
func storeLoop(cfg *config.Config, mon monitor.Monitor, store database.Store, done chan struct{}) {
	ticker := time.NewTicker(time.Duration(cfg.Database.StoreIntervalSeconds) * time.Second)
	defer ticker.Stop()
	prune := time.NewTicker(24 * time.Hour)
	defer prune.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := store.StoreMetrics(mon.Metrics()); err != nil {
				logger.Error("保存指标失败: %v", err)
			}
		case <-prune.C:
			if err := store.Prune(cfg.Database.RetentionDays); err != nil {
				logger.Error("清理历史失败: %v", err)
			}
		}
	}
}

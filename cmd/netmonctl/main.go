package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MANImax123/NetworkDashboard/config"
	"github.com/MANImax123/NetworkDashboard/internal/livesync"
	"github.com/MANImax123/NetworkDashboard/internal/logger"
)

// netmonctl：终端里的只读仪表盘。
// 持有一个 Synchronizer 实例，按配置走 WebSocket 推送或 REST 轮询，
// 每次状态变化重绘一行摘要。

func main() {
	mode := flag.String("mode", "", "取数方式：ws / poll（默认取配置文件）")
	enrich := flag.Bool("enrich", false, "轮询模式下附带拉取协议/端口/拓扑/分析数据")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := logger.InitLogger(""); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Close()

	clientMode := cfg.Client.Mode
	if *mode != "" {
		clientMode = config.ClientMode(*mode)
	}

	syncer := livesync.NewSynchronizer(cfg.Client.SeriesCapacity)
	syncer.OnUpdate(func() { render(syncer) })

	var stop func()
	switch clientMode {
	case config.ClientModePoll:
		pc := livesync.NewPollClient(
			cfg.Client.BaseURL,
			time.Duration(cfg.Client.PollIntervalSeconds)*time.Second,
			time.Duration(cfg.Client.RequestTimeoutSeconds)*time.Second,
			syncer,
		)
		pc.FetchEnrichment = *enrich
		pc.Start()
		stop = pc.Stop
	case config.ClientModeWS:
		wc := livesync.NewWSClient(
			cfg.Client.WSURL,
			time.Duration(cfg.Client.ReconnectDelaySeconds)*time.Second,
			syncer,
		)
		wc.Start()
		stop = wc.Stop
	default:
		log.Fatalf("未知取数方式: %s", clientMode)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭...")
	stop()
}

// render 输出一行当前状态摘要
func render(syncer *livesync.Synchronizer) {
	state := syncer.ConnectionState()
	latest := syncer.Latest()
	if latest == nil {
		fmt.Printf("[%s] 等待数据...\n", state)
		return
	}

	series := syncer.Series()
	fmt.Printf("[%s] ↓%.1f Mbps ↑%.1f Mbps 延迟 %.0fms 丢包 %.2f%% 设备 %d 告警 %d 序列 %d 点\n",
		state,
		latest.Bandwidth.Download, latest.Bandwidth.Upload,
		latest.Latency, latest.PacketLoss,
		len(latest.Devices), len(latest.Alerts), len(series))
}

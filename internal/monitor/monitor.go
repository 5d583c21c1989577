package monitor

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/MANImax123/NetworkDashboard/config"
	"github.com/MANImax123/NetworkDashboard/internal/logger"
	"github.com/MANImax123/NetworkDashboard/models"
)

// Metrics 一次指标测量
type Metrics struct {
	Bandwidth  models.BandwidthData `json:"bandwidth"`
	Latency    float64              `json:"latency"`
	PacketLoss float64              `json:"packet_loss"`
	Timestamp  string               `json:"timestamp"`
}

// Monitor 网络监控器接口
type Monitor interface {
	Metrics() Metrics
	Devices() []models.Device
	Snapshot() *models.NetworkSnapshot
	CheckThresholds(m Metrics) []models.Alert
	ProtocolInsights() *models.ProtocolInsights
	PortInsights() *models.PortInsights
	Topology() *models.TopologyGraph
}

// networkMonitor 监控器实现
// Simulate=false 时带宽取自系统网卡计数器差值，其余指标仍为模拟
type networkMonitor struct {
	cfg *config.MonitorConfig
	rnd *rand.Rand

	mu           sync.Mutex
	prevCounters *psnet.IOCountersStat
	prevAt       time.Time
	devices      []models.Device
	recentAlerts []models.Alert
}

// NewMonitor 创建监控器
func NewMonitor(cfg *config.MonitorConfig) Monitor {
	m := &networkMonitor{
		cfg: cfg,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	m.devices = m.seedDevices()
	return m
}

// Metrics 采集当前指标
func (m *networkMonitor) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().Format(time.RFC3339)
	bw := m.sampleBandwidth(now)

	// 延迟与丢包：模拟量
	latency := round1(15 + m.rnd.Float64()*30) // 15~45ms
	loss := round2(m.rnd.Float64() * 2)        // 0~2%

	return Metrics{
		Bandwidth:  bw,
		Latency:    latency,
		PacketLoss: loss,
		Timestamp:  now,
	}
}

// sampleBandwidth 带宽采样（Mbps）
// 调用方持锁
func (m *networkMonitor) sampleBandwidth(now string) models.BandwidthData {
	if !m.cfg.Simulate {
		if bw, ok := m.counterBandwidth(now); ok {
			return bw
		}
		// 计数器不可用时退化为模拟
	}
	return models.BandwidthData{
		Upload:    round1(5 + m.rnd.Float64()*45),   // 5~50
		Download:  round1(10 + m.rnd.Float64()*90),  // 10~100
		Timestamp: now,
	}
}

// counterBandwidth 从网卡计数器差值计算带宽
func (m *networkMonitor) counterBandwidth(now string) (models.BandwidthData, bool) {
	perNic := m.cfg.Interface != ""
	stats, err := psnet.IOCounters(perNic)
	if err != nil || len(stats) == 0 {
		logger.Warn("读取网卡计数器失败: %v", err)
		return models.BandwidthData{}, false
	}

	cur := stats[0]
	if perNic {
		found := false
		for _, s := range stats {
			if s.Name == m.cfg.Interface {
				cur = s
				found = true
				break
			}
		}
		if !found {
			logger.Warn("未找到网卡 %s", m.cfg.Interface)
			return models.BandwidthData{}, false
		}
	}

	defer func() {
		m.prevCounters = &cur
		m.prevAt = time.Now()
	}()

	if m.prevCounters == nil {
		// 首次采样没有差值
		return models.BandwidthData{Upload: 0, Download: 0, Timestamp: now}, true
	}

	delta := time.Since(m.prevAt).Seconds()
	if delta <= 0 {
		delta = float64(m.cfg.IntervalSeconds)
	}
	sent := float64(cur.BytesSent - m.prevCounters.BytesSent)
	recv := float64(cur.BytesRecv - m.prevCounters.BytesRecv)

	return models.BandwidthData{
		Upload:    round1(max0(sent * 8 / (delta * 1024 * 1024))),
		Download:  round1(max0(recv * 8 / (delta * 1024 * 1024))),
		Timestamp: now,
	}, true
}

// Devices 当前设备列表（每次整表返回，带状态抖动）
func (m *networkMonitor) Devices() []models.Device {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().Format(time.RFC3339)
	out := make([]models.Device, len(m.devices))
	for i, d := range m.devices {
		// 小概率状态翻转，模拟设备上下线
		if i >= 2 && m.rnd.Float64() < 0.15 {
			d.Status = m.randomStatus()
		}
		if d.Status == models.DeviceOnline {
			d.LastSeen = now
		}
		m.devices[i] = d
		out[i] = d
	}
	return out
}

func (m *networkMonitor) randomStatus() string {
	switch m.rnd.Intn(10) {
	case 0:
		return models.DeviceSuspicious
	case 1, 2:
		return models.DeviceOffline
	case 3:
		return models.DeviceIdle
	case 4:
		return models.DeviceWarning
	default:
		return models.DeviceOnline
	}
}

func (m *networkMonitor) seedDevices() []models.Device {
	now := time.Now().Format(time.RFC3339)
	return []models.Device{
		{IP: "192.168.1.100", MAC: "00:1B:44:11:3A:B7", Hostname: "laptop-001", Status: models.DeviceOnline, LastSeen: now},
		{IP: "192.168.1.101", MAC: "00:1B:44:11:3A:B8", Hostname: "desktop-002", Status: models.DeviceOnline, LastSeen: now},
		{IP: "192.168.1.102", MAC: "00:1B:44:11:3A:B9", Hostname: "phone-003", Status: models.DeviceOnline, LastSeen: now},
		{IP: "192.168.1.103", MAC: "00:1B:44:11:3A:C0", Hostname: "tablet-004", Status: models.DeviceOffline, LastSeen: now},
		{IP: "192.168.1.104", MAC: "00:1B:44:11:3A:C1", Hostname: "smart-tv-005", Status: models.DeviceIdle, LastSeen: now},
	}
}

// Snapshot 组装一次完整快照（含最近阈值告警）
func (m *networkMonitor) Snapshot() *models.NetworkSnapshot {
	metrics := m.Metrics()
	devices := m.Devices()
	alerts := m.CheckThresholds(metrics)

	m.mu.Lock()
	m.recentAlerts = append(m.recentAlerts, alerts...)
	if len(m.recentAlerts) > 50 {
		m.recentAlerts = m.recentAlerts[len(m.recentAlerts)-50:]
	}
	recent := make([]models.Alert, len(m.recentAlerts))
	copy(recent, m.recentAlerts)
	m.mu.Unlock()

	return &models.NetworkSnapshot{
		Bandwidth:  metrics.Bandwidth,
		Latency:    metrics.Latency,
		PacketLoss: metrics.PacketLoss,
		Devices:    devices,
		Alerts:     recent,
		Timestamp:  metrics.Timestamp,
	}
}

// CheckThresholds 阈值检查，超限生成告警
func (m *networkMonitor) CheckThresholds(metrics Metrics) []models.Alert {
	var alerts []models.Alert
	now := time.Now().Format(time.RFC3339)

	if metrics.Bandwidth.Download > m.cfg.BandwidthThresholdMbps {
		alerts = append(alerts, models.Alert{
			ID:          uuid.NewString(),
			Type:        models.AlertWarning,
			Message:     fmt.Sprintf("High download bandwidth usage: %.1f Mbps", metrics.Bandwidth.Download),
			MetricType:  "bandwidth",
			MetricValue: metrics.Bandwidth.Download,
			Threshold:   m.cfg.BandwidthThresholdMbps,
			Timestamp:   now,
		})
	}
	if metrics.Latency > m.cfg.LatencyThresholdMs {
		alerts = append(alerts, models.Alert{
			ID:          uuid.NewString(),
			Type:        models.AlertWarning,
			Message:     fmt.Sprintf("High network latency: %.0f ms", metrics.Latency),
			MetricType:  "latency",
			MetricValue: metrics.Latency,
			Threshold:   m.cfg.LatencyThresholdMs,
			Timestamp:   now,
		})
	}
	if metrics.PacketLoss > m.cfg.PacketLossThresholdPct {
		alerts = append(alerts, models.Alert{
			ID:          uuid.NewString(),
			Type:        models.AlertError,
			Message:     fmt.Sprintf("High packet loss detected: %.1f%%", metrics.PacketLoss),
			MetricType:  "packet_loss",
			MetricValue: metrics.PacketLoss,
			Threshold:   m.cfg.PacketLossThresholdPct,
			Timestamp:   now,
		})
	}

	return alerts
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Package livesync 维护仪表盘的“当前完整状态 + 近期时间序列”。
// 快照来源（WebSocket 推送或 REST 轮询）只管投递，状态合并逻辑与传输方式无关。
package livesync

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/MANImax123/NetworkDashboard/internal/logger"
	"github.com/MANImax123/NetworkDashboard/internal/realtime"
	"github.com/MANImax123/NetworkDashboard/models"
)

// State 连接状态（独立于数据新旧）
type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// DefaultSeriesCapacity 图表窗口默认长度
const DefaultSeriesCapacity = 20

// Synchronizer 快照流的唯一事实来源：
// 最近一次完整快照 + 定长时间序列 + 连接状态。
// 实例由宿主会话持有，用完即弃，没有包级单例。
type Synchronizer struct {
	mu       sync.RWMutex
	capacity int
	series   []models.TimeSeriesPoint
	latest   *models.NetworkSnapshot
	state    State
	handlers []func()
	now      func() time.Time
}

// NewSynchronizer 创建同步器；capacity<=0 时取默认窗口长度
func NewSynchronizer(capacity int) *Synchronizer {
	if capacity <= 0 {
		capacity = DefaultSeriesCapacity
	}
	return &Synchronizer{
		capacity: capacity,
		state:    StateConnecting,
		now:      time.Now,
	}
}

// OnUpdate 注册状态变更通知；回调在合并/状态变化后同步执行
func (s *Synchronizer) OnUpdate(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.handlers = append(s.handlers, fn)
	s.mu.Unlock()
}

// OnSnapshot 合并一个快照：派生序列点尾插 + 超长从头截断，最新快照整体替换。
// 永不失败；缺失集合补空，负数指标归零。
func (s *Synchronizer) OnSnapshot(snap *models.NetworkSnapshot) {
	if snap == nil {
		return
	}
	sanitize(snap)

	s.mu.Lock()
	point := models.TimeSeriesPoint{
		Label:    s.now().Format("15:04:05"),
		Download: snap.Bandwidth.Download,
		Upload:   snap.Bandwidth.Upload,
		Latency:  snap.Latency,
	}
	s.series = append(s.series, point)
	if n := len(s.series) - s.capacity; n > 0 {
		s.series = s.series[n:]
	}
	s.latest = snap
	handlers := s.handlers
	s.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// sanitize 字段缺省处理：集合补空，数值夹取到合法区间
func sanitize(snap *models.NetworkSnapshot) {
	if snap.Devices == nil {
		snap.Devices = []models.Device{}
	}
	if snap.Alerts == nil {
		snap.Alerts = []models.Alert{}
	}
	if snap.Latency < 0 {
		snap.Latency = 0
	}
	if snap.Bandwidth.Upload < 0 {
		snap.Bandwidth.Upload = 0
	}
	if snap.Bandwidth.Download < 0 {
		snap.Bandwidth.Download = 0
	}
	if snap.PacketLoss < 0 {
		snap.PacketLoss = 0
	}
	if snap.PacketLoss > 100 {
		snap.PacketLoss = 100
	}
}

// wireSnapshot 入站快照的校验形态：
// 指针字段用于区分“缺失”与“为零”，bandwidth 缺失视为坏包
type wireSnapshot struct {
	Bandwidth  *models.BandwidthData    `json:"bandwidth"`
	Latency    *float64                 `json:"latency"`
	PacketLoss *float64                 `json:"packet_loss"`
	Devices    []models.Device          `json:"devices"`
	Alerts     []models.Alert           `json:"alerts"`
	Protocols  *models.ProtocolInsights `json:"protocols"`
	Ports      *models.PortInsights     `json:"ports"`
	Topology   *models.TopologyGraph    `json:"topology"`
	Insights   *models.AIInsights       `json:"insights"`
	Timestamp  string                   `json:"timestamp"`
}

// wireEnvelope 服务端 Hub 的消息外壳
type wireEnvelope struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OnRaw 解析并合并一段入站负载。支持 Hub 外壳消息与裸快照两种形态。
// 坏包（非法 JSON、bandwidth 缺失、字段类型错误）记日志后丢弃：
// 不改序列、不改最新快照、不改连接状态。返回是否被接受。
func (s *Synchronizer) OnRaw(data []byte) bool {
	payload := data

	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.Type != "" && len(env.Data) > 0 {
		switch {
		case env.Type == "hello":
			payload = env.Data
		case env.Type == "event" && env.Event == realtime.EventNetworkSnapshot:
			payload = env.Data
		case env.Type == "event":
			// 其他事件与本组件无关
			return false
		}
	}

	var wire wireSnapshot
	if err := json.Unmarshal(payload, &wire); err != nil {
		logger.Warn("丢弃坏包: %v", err)
		return false
	}
	if wire.Bandwidth == nil {
		logger.Warn("丢弃坏包: bandwidth 缺失")
		return false
	}

	snap := &models.NetworkSnapshot{
		Bandwidth: *wire.Bandwidth,
		Devices:   wire.Devices,
		Alerts:    wire.Alerts,
		Protocols: wire.Protocols,
		Ports:     wire.Ports,
		Topology:  wire.Topology,
		Insights:  wire.Insights,
		Timestamp: wire.Timestamp,
	}
	if wire.Latency != nil {
		snap.Latency = *wire.Latency
	}
	if wire.PacketLoss != nil {
		snap.PacketLoss = *wire.PacketLoss
	}

	s.OnSnapshot(snap)
	return true
}

// Latest 最近一次合并的快照；没有任何快照到达前为 nil
func (s *Synchronizer) Latest() *models.NetworkSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Series 当前时间序列副本，最旧的在前
func (s *Synchronizer) Series() []models.TimeSeriesPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TimeSeriesPoint, len(s.series))
	copy(out, s.series)
	return out
}

// ConnectionState 当前连接状态
func (s *Synchronizer) ConnectionState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// setState 由传输层驱动；状态未变则不通知
func (s *Synchronizer) setState(st State) {
	s.mu.Lock()
	if s.state == st {
		s.mu.Unlock()
		return
	}
	s.state = st
	handlers := s.handlers
	s.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

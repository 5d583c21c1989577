package models

// DeviceStatus 设备在线状态
const (
	DeviceOnline     = "online"
	DeviceOffline    = "offline"
	DeviceWarning    = "warning"
	DeviceSuspicious = "suspicious"
	DeviceIdle       = "idle"
)

// AlertType 告警级别
const (
	AlertWarning = "warning"
	AlertError   = "error"
	AlertSuccess = "success"
	AlertInfo    = "info"
)

// BandwidthData 带宽数据（Mbps）
type BandwidthData struct {
	Upload    float64 `json:"upload"`
	Download  float64 `json:"download"`
	Timestamp string  `json:"timestamp"`
}

// Device 网络设备
type Device struct {
	IP       string `json:"ip"`
	MAC      string `json:"mac"`
	Hostname string `json:"hostname"`
	Status   string `json:"status"`
	LastSeen string `json:"last_seen,omitempty"`
}

// Alert 告警
type Alert struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	MetricType  string  `json:"metric_type,omitempty"`
	MetricValue float64 `json:"metric_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
	Timestamp   string  `json:"timestamp"`
	Resolved    bool    `json:"resolved,omitempty"`
}

// NetworkSnapshot 一次完整的网络状态测量
// 扩展字段（protocols/ports/topology/insights）可选，缺省为 nil
type NetworkSnapshot struct {
	Bandwidth  BandwidthData     `json:"bandwidth"`
	Latency    float64           `json:"latency"`
	PacketLoss float64           `json:"packet_loss"`
	Devices    []Device          `json:"devices"`
	Alerts     []Alert           `json:"alerts"`
	Protocols  *ProtocolInsights `json:"protocols,omitempty"`
	Ports      *PortInsights     `json:"ports,omitempty"`
	Topology   *TopologyGraph    `json:"topology,omitempty"`
	Insights   *AIInsights       `json:"insights,omitempty"`
	Timestamp  string            `json:"timestamp"`
}

// ProtocolStat 单个协议的流量统计
type ProtocolStat struct {
	Name         string  `json:"name"`
	TotalBytes   int64   `json:"total_bytes"`
	BytesSent    int64   `json:"bytes_sent"`
	BytesRecv    int64   `json:"bytes_recv"`
	TotalPackets int64   `json:"total_packets"`
	PacketsSent  int64   `json:"packets_sent"`
	PacketsRecv  int64   `json:"packets_recv"`
	Connections  int     `json:"connections"`
	Percentage   float64 `json:"percentage"`
}

// ProtocolTrendPoint 协议流量趋势点
type ProtocolTrendPoint struct {
	Timestamp string `json:"timestamp"`
	Bytes     int64  `json:"bytes"`
	Packets   int64  `json:"packets"`
}

// TrafficBreakdown 进出流量汇总
type TrafficBreakdown struct {
	IncomingPackets int64 `json:"incoming_packets"`
	OutgoingPackets int64 `json:"outgoing_packets"`
	IncomingBytes   int64 `json:"incoming_bytes"`
	OutgoingBytes   int64 `json:"outgoing_bytes"`
}

// ProtocolInsights 协议级流量分析
type ProtocolInsights struct {
	TopProtocols     []ProtocolStat                  `json:"top_protocols"`
	ProtocolTrends   map[string][]ProtocolTrendPoint `json:"protocol_trends"`
	TrafficBreakdown TrafficBreakdown                `json:"traffic_breakdown"`
}

// PortEntry 端口/服务条目
type PortEntry struct {
	Port         int    `json:"port"`
	Service      string `json:"service"`
	Connections  int    `json:"connections"`
	IsSuspicious bool   `json:"is_suspicious"`
}

// PortInsights 端口与服务统计
type PortInsights struct {
	ActivePorts     []PortEntry `json:"active_ports"`
	SuspiciousCount int         `json:"suspicious_count"`
	TotalPorts      int         `json:"total_ports"`
}

// TopologyNode 拓扑节点
type TopologyNode struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Type     string `json:"type"` // router / device
	IP       string `json:"ip,omitempty"`
	Status   string `json:"status,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

// TopologyEdge 拓扑连线
type TopologyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TopologyGraph 网络拓扑图
type TopologyGraph struct {
	Nodes []TopologyNode `json:"nodes"`
	Edges []TopologyEdge `json:"edges"`
}

// Anomaly 异常检测结果
type Anomaly struct {
	Type      string  `json:"type"`   // bandwidth_spike / latency_spike
	Metric    string  `json:"metric"` // download / upload / latency
	Severity  string  `json:"severity"`
	Message   string  `json:"message"`
	ZScore    float64 `json:"z_score"`
	Timestamp string  `json:"timestamp"`
}

// AIInsights 启发式网络分析结果
type AIInsights struct {
	Anomalies       []Anomaly `json:"anomalies"`
	HealthScore     float64   `json:"health_score"`
	HealthStatus    string    `json:"health_status"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     string    `json:"generated_at"`
}

// TimeSeriesPoint 图表时间序列点（由快照派生）
type TimeSeriesPoint struct {
	Label    string  `json:"label"`
	Download float64 `json:"download"`
	Upload   float64 `json:"upload"`
	Latency  float64 `json:"latency"`
}

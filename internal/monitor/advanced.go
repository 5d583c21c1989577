package monitor

import (
	"fmt"
	"sort"
	"time"

	"github.com/MANImax123/NetworkDashboard/models"
)

// 常见端口到服务名的映射
var commonServices = map[int]string{
	21: "FTP", 22: "SSH", 23: "Telnet", 25: "SMTP", 53: "DNS",
	80: "HTTP", 110: "POP3", 143: "IMAP", 443: "HTTPS", 993: "IMAPS",
	995: "POP3S", 1433: "SQL Server", 1521: "Oracle", 3389: "RDP",
	4444: "Metasploit", 5432: "PostgreSQL", 5900: "VNC", 6379: "Redis",
	8080: "HTTP Proxy", 8443: "HTTPS Alt",
}

// 高危端口（出现连接时标记可疑）
var suspiciousPorts = map[int]bool{
	21: true, 23: true, 135: true, 139: true, 1433: true,
	1521: true, 3389: true, 4444: true, 5900: true, 6379: true,
}

// 协议基准流量表（字节/包数），每次请求叠加随机抖动
type protocolProfile struct {
	bytesSent, bytesRecv     int64
	packetsSent, packetsRecv int64
	connections              int
}

var protocolProfiles = map[string]protocolProfile{
	"HTTP":  {15420000, 45230000, 12450, 28340, 45},
	"HTTPS": {125340000, 245670000, 89230, 156780, 180},
	"DNS":   {234000, 456000, 1240, 2180, 8},
	"TCP":   {89340000, 167890000, 67890, 123450, 234},
	"UDP":   {12340000, 23450000, 23450, 34560, 67},
	"ICMP":  {45000, 67000, 340, 450, 0},
	"SSH":   {2340000, 1230000, 3450, 2340, 3},
}

// ProtocolInsights 协议级流量分析
func (m *networkMonitor) ProtocolInsights() *models.ProtocolInsights {
	m.mu.Lock()
	defer m.mu.Unlock()

	var totalBytes int64
	jittered := make(map[string]protocolProfile, len(protocolProfiles))
	for name, p := range protocolProfiles {
		// ±20% 抖动
		f := 0.8 + m.rnd.Float64()*0.4
		p.bytesSent = int64(float64(p.bytesSent) * f)
		p.bytesRecv = int64(float64(p.bytesRecv) * f)
		p.packetsSent = int64(float64(p.packetsSent) * f)
		p.packetsRecv = int64(float64(p.packetsRecv) * f)
		jittered[name] = p
		totalBytes += p.bytesSent + p.bytesRecv
	}

	stats := make([]models.ProtocolStat, 0, len(jittered))
	for name, p := range jittered {
		total := p.bytesSent + p.bytesRecv
		pct := 0.0
		if totalBytes > 0 {
			pct = round2(float64(total) / float64(totalBytes) * 100)
		}
		stats = append(stats, models.ProtocolStat{
			Name:         name,
			TotalBytes:   total,
			BytesSent:    p.bytesSent,
			BytesRecv:    p.bytesRecv,
			TotalPackets: p.packetsSent + p.packetsRecv,
			PacketsSent:  p.packetsSent,
			PacketsRecv:  p.packetsRecv,
			Connections:  p.connections,
			Percentage:   pct,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].TotalBytes > stats[j].TotalBytes })
	if len(stats) > 5 {
		stats = stats[:5]
	}

	var breakdown models.TrafficBreakdown
	for _, p := range jittered {
		breakdown.IncomingPackets += p.packetsRecv
		breakdown.OutgoingPackets += p.packetsSent
		breakdown.IncomingBytes += p.bytesRecv
		breakdown.OutgoingBytes += p.bytesSent
	}

	return &models.ProtocolInsights{
		TopProtocols:     stats,
		ProtocolTrends:   m.protocolTrends(jittered),
		TrafficBreakdown: breakdown,
	}
}

// protocolTrends 生成各协议近20分钟的趋势序列
// 调用方持锁
func (m *networkMonitor) protocolTrends(profiles map[string]protocolProfile) map[string][]models.ProtocolTrendPoint {
	trends := make(map[string][]models.ProtocolTrendPoint, len(profiles))
	now := time.Now()
	for name, p := range profiles {
		base := p.bytesSent + p.bytesRecv
		points := make([]models.ProtocolTrendPoint, 0, 20)
		for i := 0; i < 20; i++ {
			variation := 0.8 + float64(i%3)*0.1
			points = append(points, models.ProtocolTrendPoint{
				Timestamp: now.Add(-time.Duration(20-i) * time.Minute).Format(time.RFC3339),
				Bytes:     int64(float64(base) * variation / 1000),
				Packets:   int64(float64(p.packetsSent) * variation / 100),
			})
		}
		trends[name] = points
	}
	return trends
}

// PortInsights 端口与服务统计
func (m *networkMonitor) PortInsights() *models.PortInsights {
	m.mu.Lock()
	defer m.mu.Unlock()

	ports := []int{22, 53, 80, 443, 3389, 5432, 6379, 8080, 8443}
	entries := make([]models.PortEntry, 0, len(ports))
	suspicious := 0
	for _, port := range ports {
		svc, ok := commonServices[port]
		if !ok {
			svc = "Unknown"
		}
		e := models.PortEntry{
			Port:         port,
			Service:      svc,
			Connections:  1 + m.rnd.Intn(40),
			IsSuspicious: suspiciousPorts[port],
		}
		if e.IsSuspicious {
			suspicious++
		}
		entries = append(entries, e)
	}

	return &models.PortInsights{
		ActivePorts:     entries,
		SuspiciousCount: suspicious,
		TotalPorts:      len(entries),
	}
}

// Topology 网络拓扑：路由器为中心，设备挂在其下
func (m *networkMonitor) Topology() *models.TopologyGraph {
	devices := m.Devices()

	graph := &models.TopologyGraph{
		Nodes: []models.TopologyNode{
			{ID: "router", Label: "Router", Type: "router", IP: "192.168.1.1", Status: models.DeviceOnline},
		},
	}
	for i, d := range devices {
		id := fmt.Sprintf("device-%d", i)
		graph.Nodes = append(graph.Nodes, models.TopologyNode{
			ID:       id,
			Label:    d.Hostname,
			Type:     "device",
			IP:       d.IP,
			Status:   d.Status,
			Hostname: d.Hostname,
		})
		graph.Edges = append(graph.Edges, models.TopologyEdge{From: "router", To: id})
	}
	return graph
}

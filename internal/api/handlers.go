package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MANImax123/NetworkDashboard/internal/database"
	"github.com/MANImax123/NetworkDashboard/models"
)

// handleRoot 服务信息
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Network Performance Monitor API",
		"status":  "running",
	})
}

// handleHealth 健康检查（运维/测试用，客户端不依赖）
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().Format(time.RFC3339),
		"ws_clients": s.hub.ClientCount(),
	})
}

// handleCurrentMetrics 当前网络指标
func (s *Server) handleCurrentMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.Metrics())
}

// handleMetricsHistory 历史指标（默认24小时）
func (s *Server) handleMetricsHistory(c *gin.Context) {
	hours := 24
	if v := strings.TrimSpace(c.Query("hours")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}
	history, err := s.store.MetricsHistory(hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse(500, err.Error()))
		return
	}
	if history == nil {
		history = []database.MetricsRow{}
	}
	c.JSON(http.StatusOK, history)
}

// handleDevices 设备列表（整表返回）
func (s *Server) handleDevices(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.Devices())
}

// advancedDevice 设备增强信息
type advancedDevice struct {
	models.Device
	Vendor     string  `json:"vendor"`
	DeviceType string  `json:"device_type"`
	RiskScore  float64 `json:"risk_score"`
}

// handleDevicesAdvanced 带厂商/类型/风险评估的设备列表
func (s *Server) handleDevicesAdvanced(c *gin.Context) {
	devices := s.monitor.Devices()
	out := make([]advancedDevice, 0, len(devices))
	for _, d := range devices {
		out = append(out, advancedDevice{
			Device:     d,
			Vendor:     vendorForMAC(d.MAC),
			DeviceType: typeForHostname(d.Hostname),
			RiskScore:  riskForStatus(d.Status),
		})
	}
	c.JSON(http.StatusOK, out)
}

// vendorForMAC OUI 前缀到厂商（简表）
func vendorForMAC(mac string) string {
	if strings.HasPrefix(strings.ToUpper(mac), "00:1B:44") {
		return "SanDisk"
	}
	return "Unknown"
}

func typeForHostname(hostname string) string {
	switch {
	case strings.HasPrefix(hostname, "laptop"):
		return "laptop"
	case strings.HasPrefix(hostname, "desktop"):
		return "desktop"
	case strings.HasPrefix(hostname, "phone"):
		return "mobile"
	case strings.HasPrefix(hostname, "tablet"):
		return "tablet"
	case strings.HasPrefix(hostname, "smart-tv"):
		return "iot"
	default:
		return "unknown"
	}
}

func riskForStatus(status string) float64 {
	switch status {
	case models.DeviceSuspicious:
		return 80
	case models.DeviceWarning:
		return 50
	case models.DeviceOffline:
		return 10
	default:
		return 5
	}
}

// handleAlerts 当前活跃告警
func (s *Server) handleAlerts(c *gin.Context) {
	alerts, err := s.store.ActiveAlerts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse(500, err.Error()))
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	c.JSON(http.StatusOK, alerts)
}

// handleResolveAlert 标记告警已解决
func (s *Server) handleResolveAlert(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(400, "missing alert id"))
		return
	}
	if err := s.store.ResolveAlert(id); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse(500, err.Error()))
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(nil))
}

// handleProtocols 协议级流量分析
func (s *Server) handleProtocols(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.ProtocolInsights())
}

// handlePorts 端口/服务统计
func (s *Server) handlePorts(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.PortInsights())
}

// handleTopology 网络拓扑
func (s *Server) handleTopology(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.Topology())
}

// handleInsights 启发式网络分析
func (s *Server) handleInsights(c *gin.Context) {
	m := s.monitor.Metrics()
	c.JSON(http.StatusOK, s.analyzer.Insights(m.Bandwidth.Download, m.Bandwidth.Upload, m.Latency, m.PacketLoss))
}

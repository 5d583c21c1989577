// Package insight 基于历史指标做启发式分析：统计异常检测、健康评分、处置建议。
// 不依赖外部模型，全部是滑动窗口上的均值/方差计算。
package insight

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/MANImax123/NetworkDashboard/models"
)

const (
	historyCap     = 1000
	learningWindow = 100 // 样本不足此数时不做统计判定
	minSamples     = 10
	anomalyZScore  = 2.5 // 超过该标准差数视为异常
	highZScore     = 3.0
)

// Analyzer 指标分析器
type Analyzer struct {
	mu        sync.Mutex
	downloads []float64
	uploads   []float64
	latencies []float64
	now       func() time.Time // 测试可注入
}

// NewAnalyzer 创建分析器
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// Observe 记录一次指标样本
func (a *Analyzer) Observe(download, upload, latency float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.downloads = appendBounded(a.downloads, download)
	a.uploads = appendBounded(a.uploads, upload)
	a.latencies = appendBounded(a.latencies, latency)
}

func appendBounded(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCap {
		s = s[len(s)-historyCap:]
	}
	return s
}

// Insights 对当前指标生成分析结果
func (a *Analyzer) Insights(download, upload, latency, packetLoss float64) *models.AIInsights {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	ts := now.Format(time.RFC3339)
	var anomalies []models.Anomaly

	if len(a.downloads) >= learningWindow {
		if z, expected, ok := zScore(a.downloads, download); ok {
			anomalies = append(anomalies, models.Anomaly{
				Type:      "bandwidth_spike",
				Metric:    "download",
				Severity:  severityFor(z),
				Message:   fmt.Sprintf("Download bandwidth spike detected: %.1f Mbps (normal: %.1f Mbps)", download, expected),
				ZScore:    z,
				Timestamp: ts,
			})
		}
		if z, expected, ok := zScore(a.uploads, upload); ok {
			anomalies = append(anomalies, models.Anomaly{
				Type:      "bandwidth_spike",
				Metric:    "upload",
				Severity:  severityFor(z),
				Message:   fmt.Sprintf("Upload bandwidth spike detected: %.1f Mbps (normal: %.1f Mbps)", upload, expected),
				ZScore:    z,
				Timestamp: ts,
			})
		}
		if z, expected, ok := zScore(a.latencies, latency); ok {
			anomalies = append(anomalies, models.Anomaly{
				Type:      "latency_spike",
				Metric:    "latency",
				Severity:  severityFor(z),
				Message:   fmt.Sprintf("High latency detected: %.1f ms (normal: %.1f ms)", latency, expected),
				ZScore:    z,
				Timestamp: ts,
			})
		}
	}

	// 模式类异常：凌晨大流量、异常上下行比例
	anomalies = append(anomalies, patternAnomalies(now, download, upload)...)

	score := healthScore(latency, packetLoss, len(anomalies))

	return &models.AIInsights{
		Anomalies:       anomalies,
		HealthScore:     score,
		HealthStatus:    healthStatus(score),
		Recommendations: recommendations(anomalies),
		GeneratedAt:     ts,
	}
}

// zScore 统计异常判定；返回 z 值与窗口均值
func zScore(values []float64, current float64) (z, mean float64, anomalous bool) {
	if len(values) < minSamples {
		return 0, 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(values)))
	if std == 0 {
		return 0, mean, false
	}

	z = math.Abs((current - mean) / std)
	return z, mean, z > anomalyZScore
}

func severityFor(z float64) string {
	if z > highZScore {
		return "HIGH"
	}
	return "MEDIUM"
}

func patternAnomalies(now time.Time, download, upload float64) []models.Anomaly {
	var out []models.Anomaly
	ts := now.Format(time.RFC3339)

	if h := now.Hour(); h >= 2 && h <= 5 && download > 50 {
		out = append(out, models.Anomaly{
			Type:      "unusual_time_activity",
			Metric:    "download",
			Severity:  "MEDIUM",
			Message:   fmt.Sprintf("High bandwidth usage during off-hours: %.1f Mbps at %s", download, now.Format("15:04")),
			Timestamp: ts,
		})
	}

	if upload > 0 && download > 0 {
		if ratio := upload / download; ratio > 0.8 {
			out = append(out, models.Anomaly{
				Type:      "unusual_traffic_ratio",
				Metric:    "upload",
				Severity:  "MEDIUM",
				Message:   fmt.Sprintf("Unusual upload/download ratio: %.2f (upload: %.1f Mbps, download: %.1f Mbps)", ratio, upload, download),
				Timestamp: ts,
			})
		}
	}
	return out
}

// healthScore 0~100 综合评分：延迟、丢包、异常数各自扣分
func healthScore(latency, packetLoss float64, anomalyCount int) float64 {
	score := 100.0
	if latency > 100 {
		score -= 30
	} else if latency > 50 {
		score -= 15
	}
	if packetLoss > 5 {
		score -= 40
	} else if packetLoss > 1 {
		score -= 15
	}
	score -= float64(anomalyCount) * 10
	if score < 0 {
		score = 0
	}
	return score
}

func healthStatus(score float64) string {
	switch {
	case score >= 80:
		return "healthy"
	case score >= 50:
		return "degraded"
	default:
		return "critical"
	}
}

func recommendations(anomalies []models.Anomaly) []string {
	seen := map[string]bool{}
	for _, a := range anomalies {
		seen[a.Type] = true
	}

	var recs []string
	if seen["bandwidth_spike"] {
		recs = append(recs,
			"Monitor bandwidth usage and identify high-consumption applications",
			"Consider upgrading network capacity if spikes are frequent")
	}
	if seen["latency_spike"] {
		recs = append(recs,
			"Check network equipment for performance issues",
			"Analyze routing and switching infrastructure")
	}
	if seen["unusual_time_activity"] {
		recs = append(recs,
			"Investigate after-hours network activity for security concerns",
			"Review access logs and user activity")
	}
	if seen["unusual_traffic_ratio"] {
		recs = append(recs,
			"Monitor for potential data exfiltration or security breaches",
			"Analyze traffic patterns and destination addresses")
	}
	if len(recs) == 0 {
		recs = append(recs,
			"Network performance is within normal parameters",
			"Continue monitoring for any changes in patterns")
	}
	return recs
}

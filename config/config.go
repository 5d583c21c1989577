package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `json:"server"`
	Monitor  MonitorConfig  `json:"monitor"`
	Database DatabaseConfig `json:"database"`
	Client   ClientConfig   `json:"client"`
	Log      LogConfig      `json:"log"`
}

// ServerConfig API服务配置
type ServerConfig struct {
	Listen      string   `json:"listen"`       // 例如 :8000
	CORSOrigins []string `json:"cors_origins"` // 允许的前端来源
}

// MonitorConfig 监控采集配置
type MonitorConfig struct {
	IntervalSeconds int    `json:"interval_seconds"` // 快照采集/推送间隔
	Simulate        bool   `json:"simulate"`         // true 时完全使用模拟数据
	Interface       string `json:"interface"`        // 指定网卡；空则汇总全部

	// 告警阈值
	BandwidthThresholdMbps float64 `json:"bandwidth_threshold_mbps"`
	LatencyThresholdMs     float64 `json:"latency_threshold_ms"`
	PacketLossThresholdPct float64 `json:"packet_loss_threshold_percent"`
}

// DatabaseConfig 历史数据存储配置
type DatabaseConfig struct {
	Path                 string `json:"path"`
	StoreIntervalSeconds int    `json:"store_interval_seconds"` // 指标落盘间隔
	RetentionDays        int    `json:"retention_days"`
}

// ClientMode 客户端取数方式
type ClientMode string

const (
	ClientModeWS   ClientMode = "ws"   // WebSocket 推送
	ClientModePoll ClientMode = "poll" // REST 轮询
)

// ClientConfig 同步客户端配置（netmonctl / 嵌入式前端）
type ClientConfig struct {
	Mode                  ClientMode `json:"mode"`
	WSURL                 string     `json:"ws_url"`   // 例如 ws://127.0.0.1:8000/ws
	BaseURL               string     `json:"base_url"` // 例如 http://127.0.0.1:8000
	PollIntervalSeconds   int        `json:"poll_interval_seconds"`
	ReconnectDelaySeconds int        `json:"reconnect_delay_seconds"`
	RequestTimeoutSeconds int        `json:"request_timeout_seconds"`
	SeriesCapacity        int        `json:"series_capacity"` // 图表窗口长度
}

// LogConfig 日志配置
type LogConfig struct {
	Dir string `json:"dir"` // 空则仅控制台输出
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:      ":8000",
			CORSOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Monitor: MonitorConfig{
			IntervalSeconds:        2,
			Simulate:               true,
			BandwidthThresholdMbps: 80,
			LatencyThresholdMs:     100,
			PacketLossThresholdPct: 5,
		},
		Database: DatabaseConfig{
			Path:                 "./network_monitor.db",
			StoreIntervalSeconds: 30,
			RetentionDays:        7,
		},
		Client: ClientConfig{
			Mode:                  ClientModeWS,
			WSURL:                 "ws://127.0.0.1:8000/ws",
			BaseURL:               "http://127.0.0.1:8000",
			PollIntervalSeconds:   30,
			ReconnectDelaySeconds: 5,
			RequestTimeoutSeconds: 10,
			SeriesCapacity:        20,
		},
		Log: LogConfig{Dir: ""},
	}
}

// GetConfigPath 配置文件路径（NETMOND_CONFIG 可覆盖）
func GetConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("NETMOND_CONFIG")); p != "" {
		return p
	}
	return "./netmond.json"
}

// LoadConfig 加载配置；文件不存在时写出默认配置
func LoadConfig() (*Config, error) {
	configPath := GetConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		dir := filepath.Dir(configPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// 兼容补全：旧配置缺字段时仅在零值场景补默认，不覆盖用户显式配置
	cfg.ensureDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

func (c *Config) ensureDefaults() {
	def := DefaultConfig()

	if strings.TrimSpace(c.Server.Listen) == "" {
		c.Server.Listen = def.Server.Listen
	}
	if c.Server.CORSOrigins == nil {
		c.Server.CORSOrigins = def.Server.CORSOrigins
	}
	if c.Monitor.IntervalSeconds <= 0 {
		c.Monitor.IntervalSeconds = def.Monitor.IntervalSeconds
	}
	if c.Monitor.BandwidthThresholdMbps <= 0 {
		c.Monitor.BandwidthThresholdMbps = def.Monitor.BandwidthThresholdMbps
	}
	if c.Monitor.LatencyThresholdMs <= 0 {
		c.Monitor.LatencyThresholdMs = def.Monitor.LatencyThresholdMs
	}
	if c.Monitor.PacketLossThresholdPct <= 0 {
		c.Monitor.PacketLossThresholdPct = def.Monitor.PacketLossThresholdPct
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Database.StoreIntervalSeconds <= 0 {
		c.Database.StoreIntervalSeconds = def.Database.StoreIntervalSeconds
	}
	if c.Database.RetentionDays <= 0 {
		c.Database.RetentionDays = def.Database.RetentionDays
	}
	if c.Client.Mode == "" {
		c.Client.Mode = def.Client.Mode
	}
	if strings.TrimSpace(c.Client.WSURL) == "" {
		c.Client.WSURL = def.Client.WSURL
	}
	if strings.TrimSpace(c.Client.BaseURL) == "" {
		c.Client.BaseURL = def.Client.BaseURL
	}
	if c.Client.PollIntervalSeconds <= 0 {
		c.Client.PollIntervalSeconds = def.Client.PollIntervalSeconds
	}
	if c.Client.ReconnectDelaySeconds <= 0 {
		c.Client.ReconnectDelaySeconds = def.Client.ReconnectDelaySeconds
	}
	if c.Client.RequestTimeoutSeconds <= 0 {
		c.Client.RequestTimeoutSeconds = def.Client.RequestTimeoutSeconds
	}
	if c.Client.SeriesCapacity <= 0 {
		c.Client.SeriesCapacity = def.Client.SeriesCapacity
	}
}

// applyEnv 环境变量覆盖（部署时免改文件）
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("NETMOND_LISTEN")); v != "" {
		c.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("NETMOND_DB")); v != "" {
		c.Database.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("NETMOND_WS_URL")); v != "" {
		c.Client.WSURL = v
	}
	if v := strings.TrimSpace(os.Getenv("NETMOND_BASE_URL")); v != "" {
		c.Client.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("NETMOND_SIMULATE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Monitor.Simulate = b
		}
	}
}

// Save 保存配置
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(GetConfigPath(), data, 0644)
}

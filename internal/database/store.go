package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MANImax123/NetworkDashboard/internal/monitor"
	"github.com/MANImax123/NetworkDashboard/models"
)

// MetricsRow 历史指标记录
type MetricsRow struct {
	ID         int64   `json:"id"`
	Timestamp  string  `json:"timestamp"`
	UploadMbps float64 `json:"upload_mbps"`
	DownMbps   float64 `json:"download_mbps"`
	LatencyMs  float64 `json:"latency_ms"`
	LossPct    float64 `json:"packet_loss_percent"`
}

// Store 历史数据存储接口
type Store interface {
	StoreMetrics(m monitor.Metrics) error
	MetricsHistory(hours int) ([]MetricsRow, error)
	UpsertDevice(d models.Device) error
	ListDevices() ([]models.Device, error)
	StoreAlert(a models.Alert) error
	ActiveAlerts() ([]models.Alert, error)
	ResolveAlert(id string) error
	Prune(retentionDays int) error
	Close() error
}

// SQLiteStore sqlite 实现
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore 打开数据库并建表
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// WAL 提升并发读写
	_, _ = db.Exec("PRAGMA journal_mode=WAL;")
	_, _ = db.Exec("PRAGMA synchronous=NORMAL;")

	st := &SQLiteStore{db: db}
	if err := st.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

// Close 关闭数据库
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS network_metrics (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  timestamp TEXT NOT NULL,
  upload_mbps REAL NOT NULL,
  download_mbps REAL NOT NULL,
  latency_ms REAL NOT NULL,
  packet_loss_percent REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS devices (
  ip_address TEXT NOT NULL,
  mac_address TEXT NOT NULL,
  hostname TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT '',
  last_seen TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (ip_address, mac_address)
);

CREATE TABLE IF NOT EXISTS alerts (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  message TEXT NOT NULL,
  metric_type TEXT NOT NULL DEFAULT '',
  metric_value REAL NOT NULL DEFAULT 0,
  threshold_value REAL NOT NULL DEFAULT 0,
  timestamp TEXT NOT NULL,
  resolved INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_metrics_timestamp ON network_metrics(timestamp);
CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp);
`
	_, err := s.db.Exec(schema)
	return err
}

// StoreMetrics 写入一条指标记录
func (s *SQLiteStore) StoreMetrics(m monitor.Metrics) error {
	ts := m.Timestamp
	if ts == "" {
		ts = time.Now().Format(time.RFC3339)
	}
	_, err := s.db.Exec(`
INSERT INTO network_metrics (timestamp, upload_mbps, download_mbps, latency_ms, packet_loss_percent)
VALUES (?, ?, ?, ?, ?)`,
		ts, m.Bandwidth.Upload, m.Bandwidth.Download, m.Latency, m.PacketLoss)
	if err != nil {
		return fmt.Errorf("store metrics: %w", err)
	}
	return nil
}

// MetricsHistory 查询最近 hours 小时的指标，时间正序
func (s *SQLiteStore) MetricsHistory(hours int) ([]MetricsRow, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour).Format(time.RFC3339)
	rows, err := s.db.Query(`
SELECT id, timestamp, upload_mbps, download_mbps, latency_ms, packet_loss_percent
FROM network_metrics WHERE timestamp >= ? ORDER BY timestamp ASC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MetricsRow
	for rows.Next() {
		var r MetricsRow
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.UploadMbps, &r.DownMbps, &r.LatencyMs, &r.LossPct); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertDevice 设备上报（ip+mac 唯一）
func (s *SQLiteStore) UpsertDevice(d models.Device) error {
	_, err := s.db.Exec(`
INSERT INTO devices (ip_address, mac_address, hostname, status, last_seen)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(ip_address, mac_address) DO UPDATE SET
  hostname=excluded.hostname, status=excluded.status, last_seen=excluded.last_seen`,
		d.IP, d.MAC, d.Hostname, d.Status, d.LastSeen)
	return err
}

// ListDevices 已知设备列表
func (s *SQLiteStore) ListDevices() ([]models.Device, error) {
	rows, err := s.db.Query(`
SELECT ip_address, mac_address, hostname, status, last_seen FROM devices ORDER BY ip_address ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.IP, &d.MAC, &d.Hostname, &d.Status, &d.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// StoreAlert 写入告警（同 id 幂等）
func (s *SQLiteStore) StoreAlert(a models.Alert) error {
	_, err := s.db.Exec(`
INSERT OR IGNORE INTO alerts (id, type, message, metric_type, metric_value, threshold_value, timestamp, resolved)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Type, a.Message, a.MetricType, a.MetricValue, a.Threshold, a.Timestamp, boolToInt(a.Resolved))
	return err
}

// ActiveAlerts 未解决且 24 小时内的告警，最多 50 条，新的在前
func (s *SQLiteStore) ActiveAlerts() ([]models.Alert, error) {
	since := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	rows, err := s.db.Query(`
SELECT id, type, message, metric_type, metric_value, threshold_value, timestamp, resolved
FROM alerts WHERE resolved = 0 AND timestamp >= ?
ORDER BY timestamp DESC LIMIT 50`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var a models.Alert
		var resolved int
		if err := rows.Scan(&a.ID, &a.Type, &a.Message, &a.MetricType, &a.MetricValue, &a.Threshold, &a.Timestamp, &resolved); err != nil {
			return nil, err
		}
		a.Resolved = resolved != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolveAlert 标记告警已解决
func (s *SQLiteStore) ResolveAlert(id string) error {
	_, err := s.db.Exec(`UPDATE alerts SET resolved = 1 WHERE id = ?`, id)
	return err
}

// Prune 清理过期历史
func (s *SQLiteStore) Prune(retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Format(time.RFC3339)
	if _, err := s.db.Exec(`DELETE FROM network_metrics WHERE timestamp < ?`, cutoff); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM alerts WHERE timestamp < ?`, cutoff)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

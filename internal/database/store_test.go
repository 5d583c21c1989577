package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/MANImax123/NetworkDashboard/internal/monitor"
	"github.com/MANImax123/NetworkDashboard/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStoreMetricsAndHistory(t *testing.T) {
	st := newTestStore(t)

	now := time.Now()
	for i := 0; i < 3; i++ {
		m := monitor.Metrics{
			Bandwidth:  models.BandwidthData{Upload: float64(i), Download: float64(i * 10)},
			Latency:    20,
			PacketLoss: 0.5,
			Timestamp:  now.Add(time.Duration(i) * time.Second).Format(time.RFC3339),
		}
		if err := st.StoreMetrics(m); err != nil {
			t.Fatalf("store metrics: %v", err)
		}
	}

	history, err := st.MetricsHistory(1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(history))
	}
	// 时间正序
	if history[0].DownMbps != 0 || history[2].DownMbps != 20 {
		t.Fatalf("expected ascending order, got %+v", history)
	}
}

func TestUpsertDevice(t *testing.T) {
	st := newTestStore(t)

	d := models.Device{IP: "192.168.1.100", MAC: "00:1B:44:11:3A:B7", Hostname: "laptop-001", Status: models.DeviceOnline, LastSeen: "t1"}
	if err := st.UpsertDevice(d); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// 同 ip+mac 再次上报：更新而不是新增
	d.Status = models.DeviceOffline
	d.LastSeen = "t2"
	if err := st.UpsertDevice(d); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	devices, err := st.ListDevices()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if devices[0].Status != models.DeviceOffline || devices[0].LastSeen != "t2" {
		t.Fatalf("expected updated row, got %+v", devices[0])
	}
}

func TestAlertsLifecycle(t *testing.T) {
	st := newTestStore(t)

	now := time.Now().Format(time.RFC3339)
	a := models.Alert{
		ID: "alert-1", Type: models.AlertWarning, Message: "High network latency: 150 ms",
		MetricType: "latency", MetricValue: 150, Threshold: 100, Timestamp: now,
	}
	if err := st.StoreAlert(a); err != nil {
		t.Fatalf("store alert: %v", err)
	}
	// 同 id 幂等
	if err := st.StoreAlert(a); err != nil {
		t.Fatalf("store alert twice: %v", err)
	}

	active, err := st.ActiveAlerts()
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active alert, got %d", len(active))
	}
	if active[0].Message != a.Message || active[0].Threshold != 100 {
		t.Fatalf("round trip mismatch: %+v", active[0])
	}

	if err := st.ResolveAlert("alert-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	active, err = st.ActiveAlerts()
	if err != nil {
		t.Fatalf("active after resolve: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active alerts after resolve, got %d", len(active))
	}
}

func TestActiveAlerts_ExcludesStale(t *testing.T) {
	st := newTestStore(t)

	stale := models.Alert{
		ID: "old-1", Type: models.AlertError, Message: "old",
		Timestamp: time.Now().Add(-48 * time.Hour).Format(time.RFC3339),
	}
	if err := st.StoreAlert(stale); err != nil {
		t.Fatalf("store: %v", err)
	}
	active, err := st.ActiveAlerts()
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected stale alert excluded, got %d", len(active))
	}
}

func TestPrune(t *testing.T) {
	st := newTestStore(t)

	old := monitor.Metrics{
		Bandwidth: models.BandwidthData{Upload: 1, Download: 2},
		Timestamp: time.Now().AddDate(0, 0, -30).Format(time.RFC3339),
	}
	recent := monitor.Metrics{
		Bandwidth: models.BandwidthData{Upload: 3, Download: 4},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err := st.StoreMetrics(old); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := st.StoreMetrics(recent); err != nil {
		t.Fatalf("store: %v", err)
	}

	if err := st.Prune(7); err != nil {
		t.Fatalf("prune: %v", err)
	}
	history, err := st.MetricsHistory(24 * 60)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].DownMbps != 4 {
		t.Fatalf("expected only recent row after prune, got %+v", history)
	}
}

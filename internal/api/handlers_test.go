package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MANImax123/NetworkDashboard/config"
	"github.com/MANImax123/NetworkDashboard/internal/database"
	"github.com/MANImax123/NetworkDashboard/internal/insight"
	"github.com/MANImax123/NetworkDashboard/internal/monitor"
	"github.com/MANImax123/NetworkDashboard/internal/realtime"
	"github.com/MANImax123/NetworkDashboard/models"
)

func newTestServer(t *testing.T) (*Server, database.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "api.db")

	store, err := database.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	srv := NewServer(cfg, monitor.NewMonitor(&cfg.Monitor), store, insight.NewAnalyzer(), hub)
	return srv, store
}

func doGET(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doGET(t, srv, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("expected healthy, got %v", body["status"])
	}
}

func TestHandleCurrentMetrics_WireShape(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doGET(t, srv, "/api/network/current")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// 轮询客户端依赖这些确切的字段名
	var body struct {
		Bandwidth *models.BandwidthData `json:"bandwidth"`
		Latency   *float64              `json:"latency"`
		Loss      *float64              `json:"packet_loss"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Bandwidth == nil || body.Latency == nil || body.Loss == nil {
		t.Fatalf("missing wire fields in %s", w.Body.String())
	}
}

func TestHandleDevices(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doGET(t, srv, "/api/devices")
	var devices []models.Device
	if err := json.Unmarshal(w.Body.Bytes(), &devices); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(devices) == 0 {
		t.Fatalf("expected devices")
	}
}

func TestHandleDevicesAdvanced(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doGET(t, srv, "/api/devices/advanced")
	var devices []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &devices); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(devices) == 0 {
		t.Fatalf("expected devices")
	}
	for _, d := range devices {
		for _, key := range []string{"vendor", "device_type", "risk_score"} {
			if _, ok := d[key]; !ok {
				t.Fatalf("missing %s in %v", key, d)
			}
		}
	}
}

func TestHandleAlerts_EmptyIsArray(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doGET(t, srv, "/api/alerts")
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}

func TestHandleResolveAlert(t *testing.T) {
	srv, store := newTestServer(t)
	a := models.Alert{
		ID: "alert-1", Type: models.AlertWarning, Message: "m",
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err := store.StoreAlert(a); err != nil {
		t.Fatalf("store: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/alert-1/resolve", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	active, err := store.ActiveAlerts()
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected alert resolved, got %d active", len(active))
	}
}

func TestHandleMetricsHistory(t *testing.T) {
	srv, store := newTestServer(t)
	m := monitor.Metrics{
		Bandwidth: models.BandwidthData{Upload: 1, Download: 2},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err := store.StoreMetrics(m); err != nil {
		t.Fatalf("store: %v", err)
	}

	w := doGET(t, srv, "/api/network/history?hours=2")
	var rows []database.MetricsRow
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestHandleEnrichmentEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/api/protocols", "/api/ports", "/api/topology", "/api/insights"} {
		w := doGET(t, srv, path)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if len(body) == 0 {
			t.Fatalf("%s: empty body", path)
		}
	}
}

func TestWebSocket_HelloAndBroadcast(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// 连接即收到 hello 快照
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello realtime.Message
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "hello" || hello.Data == nil {
		t.Fatalf("expected hello with snapshot, got %+v", hello)
	}

	// 广播事件送达
	srv.Hub().Broadcast(realtime.EventNetworkSnapshot, map[string]any{"ok": true})
	var msg realtime.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if msg.Type != "event" || msg.Event != realtime.EventNetworkSnapshot {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

package livesync

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// pollTestServer REST 端点桩：metricsBody 可替换，fail 开关模拟故障
type pollTestServer struct {
	srv         *httptest.Server
	metricsBody atomic.Value // string
	fail        atomic.Bool
}

func newPollTestServer(t *testing.T) *pollTestServer {
	t.Helper()
	ps := &pollTestServer{}
	ps.metricsBody.Store(`{"bandwidth":{"upload":20,"download":50,"timestamp":"t"},"latency":15,"packet_loss":0.5,"timestamp":"t"}`)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/network/current", func(w http.ResponseWriter, r *http.Request) {
		if ps.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ps.metricsBody.Load().(string)))
	})
	mux.HandleFunc("/api/devices", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"ip":"192.168.1.100","mac":"00:1B:44:11:3A:B7","hostname":"laptop-001","status":"online"}]`))
	})
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	ps.srv = httptest.NewServer(mux)
	t.Cleanup(ps.srv.Close)
	return ps
}

func TestPollClient_SuccessfulCycleConnectsAndMerges(t *testing.T) {
	server := newPollTestServer(t)
	syncer := NewSynchronizer(0)

	client := NewPollClient(server.srv.URL, time.Hour, time.Second, syncer)
	client.Start()
	defer client.Stop()

	// 启动即拉一次，不等第一个周期
	waitFor(t, 2*time.Second, "connected", func() bool {
		return syncer.ConnectionState() == StateConnected
	})
	latest := syncer.Latest()
	if latest == nil || latest.Bandwidth.Download != 50 {
		t.Fatalf("unexpected latest: %+v", latest)
	}
	if len(latest.Devices) != 1 || latest.Devices[0].Hostname != "laptop-001" {
		t.Fatalf("expected device table from /api/devices, got %+v", latest.Devices)
	}
	if latest.Alerts == nil {
		t.Fatalf("expected alerts defaulted to empty slice")
	}
}

func TestPollClient_FetchFailureDisconnectsThenRecovers(t *testing.T) {
	server := newPollTestServer(t)
	server.fail.Store(true)
	syncer := NewSynchronizer(0)

	client := NewPollClient(server.srv.URL, 50*time.Millisecond, time.Second, syncer)
	client.Start()
	defer client.Stop()

	waitFor(t, 2*time.Second, "disconnected", func() bool {
		return syncer.ConnectionState() == StateDisconnected
	})

	// 恢复后：一次成功的拉取周期即视为重连成功
	server.fail.Store(false)
	waitFor(t, 2*time.Second, "recovered", func() bool {
		return syncer.ConnectionState() == StateConnected
	})
}

func TestPollClient_MalformedBodyDroppedWithoutStateChange(t *testing.T) {
	server := newPollTestServer(t)
	syncer := NewSynchronizer(0)

	client := NewPollClient(server.srv.URL, 50*time.Millisecond, time.Second, syncer)
	client.Start()
	defer client.Stop()

	waitFor(t, 2*time.Second, "connected", func() bool {
		return syncer.ConnectionState() == StateConnected
	})
	waitFor(t, 2*time.Second, "first merge", func() bool {
		return syncer.Latest() != nil
	})

	// 坏响应体：丢弃，连接状态保持 connected
	server.metricsBody.Store(`{"latency":"slow"}`)
	time.Sleep(120 * time.Millisecond) // 让在途的好响应落地
	before := len(syncer.Series())
	time.Sleep(200 * time.Millisecond)
	if syncer.ConnectionState() != StateConnected {
		t.Fatalf("malformed body must not change connection state")
	}
	if got := len(syncer.Series()); got != before {
		t.Fatalf("malformed body must not extend series: before=%d after=%d", before, got)
	}
}

func TestPollClient_StopHaltsPolling(t *testing.T) {
	server := newPollTestServer(t)
	syncer := NewSynchronizer(0)

	client := NewPollClient(server.srv.URL, 50*time.Millisecond, time.Second, syncer)
	client.Start()
	waitFor(t, 2*time.Second, "first merge", func() bool {
		return syncer.Latest() != nil
	})

	client.Stop()
	after := len(syncer.Series())
	time.Sleep(200 * time.Millisecond)
	if got := len(syncer.Series()); got != after {
		t.Fatalf("series grew after Stop: %d -> %d", after, got)
	}
}

package livesync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MANImax123/NetworkDashboard/internal/logger"
	"github.com/MANImax123/NetworkDashboard/models"
)

// DefaultPollInterval REST 轮询间隔
const DefaultPollInterval = 30 * time.Second

// DefaultRequestTimeout 单次请求超时，避免悬死请求卡住下个轮询周期
const DefaultRequestTimeout = 10 * time.Second

// PollClient REST 轮询客户端：周期拉取指标/设备/告警，拼成快照交给同步器。
// 一个完整成功的拉取周期视为连接恢复，无论之前处于什么状态。
type PollClient struct {
	baseURL  string
	interval time.Duration
	timeout  time.Duration
	syncer   *Synchronizer
	http     *http.Client

	// FetchEnrichment 为 true 时额外拉取 protocols/ports/topology/insights，
	// 失败只记日志，快照对应字段留空
	FetchEnrichment bool

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPollClient 创建轮询客户端
func NewPollClient(baseURL string, interval, timeout time.Duration, syncer *Synchronizer) *PollClient {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &PollClient{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		interval: interval,
		timeout:  timeout,
		syncer:   syncer,
		http:     &http.Client{Timeout: timeout},
		done:     make(chan struct{}),
	}
}

// Start 启动轮询循环（先立即拉一次，不等第一个周期）
func (c *PollClient) Start() {
	c.wg.Add(1)
	go c.run()
}

func (c *PollClient) run() {
	defer c.wg.Done()

	c.pollOnce()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.pollOnce()
		}
	}
}

// pollOnce 一个拉取周期。指标请求失败视为传输故障进入 disconnected；
// 设备/告警请求失败降级为空集合；坏响应体按坏包丢弃、状态不变。
func (c *PollClient) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	body, err := c.fetch(ctx, "/api/network/current")
	if err != nil {
		// 传输故障（拒连/超时/非2xx）才改连接状态
		logger.Warn("轮询指标失败: %v", err)
		c.syncer.setState(StateDisconnected)
		return
	}

	var wire wireSnapshot
	if err := json.Unmarshal(body, &wire); err != nil {
		// 坏响应体按坏包处理：丢弃且不动连接状态
		logger.Warn("丢弃坏响应: %v", err)
		return
	}
	if wire.Bandwidth == nil {
		logger.Warn("丢弃坏响应: bandwidth 缺失")
		return
	}

	snap := &models.NetworkSnapshot{
		Bandwidth: *wire.Bandwidth,
		Timestamp: wire.Timestamp,
	}
	if wire.Latency != nil {
		snap.Latency = *wire.Latency
	}
	if wire.PacketLoss != nil {
		snap.PacketLoss = *wire.PacketLoss
	}

	if err := c.getJSON(ctx, "/api/devices", &snap.Devices); err != nil {
		logger.Warn("轮询设备失败: %v", err)
	}
	if err := c.getJSON(ctx, "/api/alerts", &snap.Alerts); err != nil {
		logger.Warn("轮询告警失败: %v", err)
	}

	if c.FetchEnrichment {
		if err := c.getJSON(ctx, "/api/protocols", &snap.Protocols); err != nil {
			logger.Debug("轮询协议分析失败: %v", err)
		}
		if err := c.getJSON(ctx, "/api/ports", &snap.Ports); err != nil {
			logger.Debug("轮询端口统计失败: %v", err)
		}
		if err := c.getJSON(ctx, "/api/topology", &snap.Topology); err != nil {
			logger.Debug("轮询拓扑失败: %v", err)
		}
		if err := c.getJSON(ctx, "/api/insights", &snap.Insights); err != nil {
			logger.Debug("轮询分析结果失败: %v", err)
		}
	}

	// 成功的拉取周期即视为重连成功
	c.syncer.setState(StateConnected)
	c.syncer.OnSnapshot(snap)
}

// fetch 拉取一个端点的原始响应体；非 2xx 视为失败
func (c *PollClient) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%s status=%s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (c *PollClient) getJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.fetch(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// Stop 停止轮询；返回后不再产生任何状态通知
func (c *PollClient) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
	c.wg.Wait()
}

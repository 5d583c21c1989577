package livesync

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MANImax123/NetworkDashboard/internal/logger"
)

// DefaultReconnectDelay 推送断开后的固定重连间隔
const DefaultReconnectDelay = 5 * time.Second

// WSClient WebSocket 推送客户端：长连接收快照，断开后固定间隔无条件重连
// （无退避、无次数上限），直到 Stop。
type WSClient struct {
	url    string
	delay  time.Duration
	syncer *Synchronizer
	dialer *websocket.Dialer

	mu       sync.Mutex
	conn     *websocket.Conn
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWSClient 创建推送客户端；delay<=0 时取默认重连间隔
func NewWSClient(url string, delay time.Duration, syncer *Synchronizer) *WSClient {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	return &WSClient{
		url:    url,
		delay:  delay,
		syncer: syncer,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		done:   make(chan struct{}),
	}
}

// Start 启动连接循环
func (c *WSClient) Start() {
	c.wg.Add(1)
	go c.run()
}

func (c *WSClient) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.syncer.setState(StateConnecting)
		conn, _, err := c.dialer.Dial(c.url, nil)
		if err != nil {
			logger.Warn("WebSocket连接失败 %s: %v", c.url, err)
			c.syncer.setState(StateDisconnected)
			if !c.sleep() {
				return
			}
			continue
		}

		c.setConn(conn)
		c.syncer.setState(StateConnected)
		logger.Info("WebSocket已连接 %s", c.url)

		c.readLoop(conn)
		c.setConn(nil)

		select {
		case <-c.done:
			return
		default:
		}
		c.syncer.setState(StateDisconnected)
		logger.Warn("WebSocket连接断开，%s 后重连", c.delay)
		if !c.sleep() {
			return
		}
	}
}

// readLoop 读消息直到连接出错；坏包在 OnRaw 内部丢弃
func (c *WSClient) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			return
		}
		c.syncer.OnRaw(data)
	}
}

// sleep 等待重连间隔；Stop 时立即返回 false
func (c *WSClient) sleep() bool {
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.done:
		return false
	}
}

func (c *WSClient) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// Stop 停止客户端：取消待触发的重连、关闭连接、等循环退出。
// 返回后不再产生任何状态通知。
func (c *WSClient) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.mu.Unlock()
	})
	c.wg.Wait()
}

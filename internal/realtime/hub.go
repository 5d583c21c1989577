package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventNetworkSnapshot 快照广播事件名
const EventNetworkSnapshot = "network_snapshot"

// Message 是推送到前端的统一消息结构
type Message struct {
	Type  string      `json:"type"`            // event / hello / error
	Event string      `json:"event,omitempty"` // network_snapshot / ...
	Data  interface{} `json:"data,omitempty"`
	TS    string      `json:"ts"`
}

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

type Hub struct {
	mu sync.RWMutex

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.Send <- msg:
				default:
					// 客户端写入慢：踢掉
					h.mu.RUnlock()
					h.unregister <- c
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := &Client{
		Conn: conn,
		Send: make(chan []byte, 64),
	}
	h.register <- c
	return c
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(event string, data interface{}) {
	b, _ := json.Marshal(Message{
		Type:  "event",
		Event: event,
		Data:  data,
		TS:    time.Now().Format(time.RFC3339),
	})
	select {
	case h.broadcast <- b:
	default:
		// broadcast 堵住了就丢弃，避免拖垮主流程
	}
}

func (h *Hub) Hello(c *Client, data interface{}) {
	b, _ := json.Marshal(Message{
		Type: "hello",
		Data: data,
		TS:   time.Now().Format(time.RFC3339),
	})
	select {
	case c.Send <- b:
	default:
	}
}

// Close 停止事件循环并断开所有客户端
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

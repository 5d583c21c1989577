package realtime

import (
	"encoding/json"
	"testing"
	"time"
)

func recvMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case b, ok := <-c.Send:
		if !ok {
			t.Fatalf("send channel closed")
		}
		var msg Message
		if err := json.Unmarshal(b, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("no message received")
	}
	return Message{}
}

func TestBroadcastEnvelope(t *testing.T) {
	h := NewHub()
	defer h.Close()

	c := h.Register(nil)
	defer h.Unregister(c)

	// Register 经由通道异步生效
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.Broadcast(EventNetworkSnapshot, map[string]float64{"download": 42})

	msg := recvMessage(t, c)
	if msg.Type != "event" {
		t.Fatalf("expected type event, got %q", msg.Type)
	}
	if msg.Event != EventNetworkSnapshot {
		t.Fatalf("expected event %q, got %q", EventNetworkSnapshot, msg.Event)
	}
	if msg.TS == "" {
		t.Fatalf("missing ts")
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["download"] != 42.0 {
		t.Fatalf("unexpected data: %#v", msg.Data)
	}
}

func TestHello_DeliversDirectly(t *testing.T) {
	h := NewHub()
	defer h.Close()

	c := h.Register(nil)
	h.Hello(c, map[string]string{"k": "v"})

	msg := recvMessage(t, c)
	if msg.Type != "hello" {
		t.Fatalf("expected type hello, got %q", msg.Type)
	}
}

func TestClose_DrainsClients(t *testing.T) {
	h := NewHub()
	c := h.Register(nil)

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.Close()

	// 关闭后 Send 通道被关掉，客户端读循环随之退出
	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatalf("expected closed channel, got message")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("send channel not closed")
	}

	if got := h.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients after close, got %d", got)
	}

	// 重复关闭与关闭后注销都不阻塞
	h.Close()
	h.Unregister(c)
}

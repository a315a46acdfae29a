package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubDeliversTicks(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	conn := dialHub(t, h)
	// Registration races the publish; give the hub a beat.
	time.Sleep(50 * time.Millisecond)

	h.PublishTick(7, 30000, 42)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var tick Tick
	if err := json.Unmarshal(payload, &tick); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tick.PlayerID != 7 || tick.SpotPrice != 30000 || tick.TotalShares != 42 {
		t.Fatalf("tick = %+v", tick)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	// No Run loop draining the broadcast channel: flooding must not hang.
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastDepth*2; i++ {
			h.PublishTick(int64(i), 100, 0)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("PublishTick blocked")
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	_ = dialHub(t, h)
	time.Sleep(50 * time.Millisecond)

	// Never read from conn; overflow its send buffer.
	for i := 0; i < clientBuffer+broadcastDepth+16; i++ {
		h.PublishTick(1, 100, 0)
		time.Sleep(time.Millisecond)
	}

	// The hub must still deliver to a fresh, attentive client.
	fresh := dialHub(t, h)
	time.Sleep(50 * time.Millisecond)
	h.PublishTick(9, 200, 1)

	fresh.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, payload, err := fresh.ReadMessage()
		if err != nil {
			t.Fatalf("fresh client read: %v", err)
		}
		var tick Tick
		if err := json.Unmarshal(payload, &tick); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if tick.PlayerID == 9 {
			return
		}
	}
}

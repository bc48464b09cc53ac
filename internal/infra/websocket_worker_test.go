package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type stubHandler struct {
	url         string
	urlCalls    int32
	connects    int32
	messages    int32
	pings       int32
	lastMessage atomic.Value
}

func (h *stubHandler) GetURL() string {
	atomic.AddInt32(&h.urlCalls, 1)
	return h.url
}
func (h *stubHandler) ID() string { return "STUB" }
func (h *stubHandler) OnConnect(context.Context, *websocket.Conn) error {
	atomic.AddInt32(&h.connects, 1)
	return nil
}
func (h *stubHandler) OnMessage(_ context.Context, msg []byte) {
	atomic.AddInt32(&h.messages, 1)
	h.lastMessage.Store(string(msg))
}
func (h *stubHandler) OnPing(context.Context, *websocket.Conn) error {
	atomic.AddInt32(&h.pings, 1)
	return nil
}

func wsServer(t *testing.T, serve func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		serve(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return strings.Replace(server.URL, "http://", "ws://", 1)
}

func TestBaseWSWorker_ConnectAndReceive(t *testing.T) {
	server := wsServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ticker"}`))
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	handler := &stubHandler{url: wsURL(server)}
	worker := NewBaseWSWorker(handler)
	worker.ReadTimeout = 500 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	worker.Start(ctx)
	time.Sleep(200 * time.Millisecond)
	worker.Stop()

	if atomic.LoadInt32(&handler.connects) == 0 {
		t.Error("OnConnect never fired")
	}
	if atomic.LoadInt32(&handler.messages) == 0 {
		t.Error("OnMessage never fired")
	}
	if got := handler.lastMessage.Load(); got != `{"type":"ticker"}` {
		t.Errorf("message = %v", got)
	}
}

func TestBaseWSWorker_RefreshesURLOnReconnect(t *testing.T) {
	// The server drops each connection right away, forcing reconnects.
	// Token-based endpoints rely on GetURL running every attempt.
	server := wsServer(t, func(conn *websocket.Conn) {})
	defer server.Close()

	handler := &stubHandler{url: wsURL(server)}
	worker := NewBaseWSWorker(handler)
	worker.ReadTimeout = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	time.Sleep(600 * time.Millisecond)
	cancel()
	worker.Stop()

	if atomic.LoadInt32(&handler.urlCalls) < 2 {
		t.Errorf("GetURL calls = %d, want one per connect attempt", handler.urlCalls)
	}
}

func TestBaseWSWorker_StopDoesNotHang(t *testing.T) {
	release := make(chan struct{})
	server := wsServer(t, func(conn *websocket.Conn) {
		<-release
	})
	defer server.Close()
	defer close(release)

	handler := &stubHandler{url: wsURL(server)}
	worker := NewBaseWSWorker(handler)

	worker.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Stop did not return")
	}
}

func TestBaseWSWorker_Write(t *testing.T) {
	received := make(chan []byte, 1)
	server := wsServer(t, func(conn *websocket.Conn) {
		if _, msg, err := conn.ReadMessage(); err == nil {
			received <- msg
		}
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	handler := &stubHandler{url: wsURL(server)}
	worker := NewBaseWSWorker(handler)

	worker.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	defer worker.Stop()

	payload := []byte(`{"type":"subscribe","topic":"/market/ticker:BTC-USDT"}`)
	if err := worker.Write(websocket.TextMessage, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case msg := <-received:
		if string(msg) != string(payload) {
			t.Errorf("server got %s", msg)
		}
	case <-time.After(time.Second):
		t.Error("server never received the frame")
	}
}

func TestBaseWSWorker_PingLoop(t *testing.T) {
	server := wsServer(t, func(conn *websocket.Conn) {
		time.Sleep(500 * time.Millisecond)
	})
	defer server.Close()

	handler := &stubHandler{url: wsURL(server)}
	worker := NewBaseWSWorker(handler)
	worker.PingInterval = 50 * time.Millisecond

	worker.Start(context.Background())
	time.Sleep(300 * time.Millisecond)
	worker.Stop()

	if atomic.LoadInt32(&handler.pings) == 0 {
		t.Error("OnPing never fired")
	}
}

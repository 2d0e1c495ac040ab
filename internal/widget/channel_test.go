package widget

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsTestServer upgrades every request and hands the connection to handle.
// It counts connections so reconnect behavior can be asserted.
func wsTestServer(t *testing.T, handle func(*websocket.Conn)) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		dials.Add(1)
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return srv, &dials
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestChannelDeliversChatFrames(t *testing.T) {
	srv, _ := wsTestServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]string{"type": "connected"})
		conn.WriteJSON(map[string]any{
			"id":      "m-1",
			"content": "an agent joined",
			"sender":  "agent",
			"type":    "text",
		})
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	})

	var mu sync.Mutex
	var got []chat.Message
	ch := NewChannel(wsURL(srv), 20*time.Millisecond, func(msg chat.Message) {
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
	}, nil, zerolog.Nop())
	ch.Start()
	defer ch.Close()

	waitFor(t, 2*time.Second, "the pushed chat frame", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if got[0].Sender != chat.SenderAgent || got[0].ID != "m-1" {
		t.Fatalf("unexpected message: %+v", got[0])
	}
}

func TestChannelIgnoresNoticeFrames(t *testing.T) {
	frames := make(chan struct{})
	srv, _ := wsTestServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]string{"type": "connected"})
		conn.WriteJSON(map[string]string{"type": "pong"})
		conn.WriteJSON(map[string]string{"type": "typing"})
		close(frames)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	})

	var count atomic.Int32
	ch := NewChannel(wsURL(srv), 20*time.Millisecond, func(chat.Message) {
		count.Add(1)
	}, nil, zerolog.Nop())
	ch.Start()
	defer ch.Close()

	<-frames
	time.Sleep(50 * time.Millisecond)
	if n := count.Load(); n != 0 {
		t.Fatalf("notices must not reach onMessage, got %d calls", n)
	}
}

func TestChannelReconnectsAfterServerClose(t *testing.T) {
	srv, dials := wsTestServer(t, func(conn *websocket.Conn) {
		// Drop every connection immediately to force reconnects.
		conn.Close()
	})

	ch := NewChannel(wsURL(srv), 20*time.Millisecond, nil, nil, zerolog.Nop())
	ch.Start()
	defer ch.Close()

	waitFor(t, 2*time.Second, "repeated reconnect attempts", func() bool {
		return dials.Load() >= 3
	})
}

func TestChannelStateTransitions(t *testing.T) {
	srv, _ := wsTestServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	})

	var mu sync.Mutex
	var states []State
	ch := NewChannel(wsURL(srv), 20*time.Millisecond, nil, func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}, zerolog.Nop())
	ch.Start()

	waitFor(t, 2*time.Second, "the open state", func() bool {
		return ch.State() == StateOpen
	})
	ch.Close()

	waitFor(t, 2*time.Second, "the closed state", func() bool {
		return ch.State() == StateClosed
	})

	mu.Lock()
	defer mu.Unlock()
	if states[0] != StateConnecting || states[1] != StateOpen {
		t.Fatalf("unexpected transitions: %v", states)
	}
	if states[len(states)-1] != StateClosed {
		t.Fatalf("expected a final closed state, got %v", states)
	}
}

func TestChannelCloseStopsReconnects(t *testing.T) {
	srv, dials := wsTestServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})

	ch := NewChannel(wsURL(srv), 20*time.Millisecond, nil, nil, zerolog.Nop())
	ch.Start()

	waitFor(t, 2*time.Second, "a first dial", func() bool {
		return dials.Load() >= 1
	})
	ch.Close()

	// Let a dial that raced with Close settle before sampling the count.
	time.Sleep(50 * time.Millisecond)
	settled := dials.Load()
	time.Sleep(100 * time.Millisecond)
	if after := dials.Load(); after != settled {
		t.Fatalf("dials continued after Close: %d -> %d", settled, after)
	}
}

func TestChannelCloseBeforeStart(t *testing.T) {
	ch := NewChannel("ws://127.0.0.1:0/nowhere", 20*time.Millisecond, nil, nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		ch.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close must not block when the channel never started")
	}
}

package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/config"
	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/metrics"
	"github.com/vovakirdan/roomchat/internal/proto"
	"github.com/vovakirdan/roomchat/internal/transport/stream"
)

func startTestServer(t *testing.T) (*httptest.Server, *core.Hub, context.CancelFunc) {
	t.Helper()

	hub := core.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	logger := zerolog.Nop()
	cfg := config.Config{
		HTTPAddr:          ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		MaxFrameBytes:     1 << 10,
	}
	streams := stream.NewHandler(hub, stream.Options{MaxFrameBytes: cfg.MaxFrameBytes}, &logger)
	server := NewServer(hub, streams, metrics.NewRegistry(), cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		ts.Close()
	})

	return ts, hub, cancel
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts, hub, cancel := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}
	defer resp.Body.Close()

	var stats core.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Rooms != 1 || stats.Sessions != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	cancel()
	<-hub.Done()

	resp2, err := ts.Client().Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != stdhttp.StatusServiceUnavailable {
		t.Fatalf("expected 503 after hub stop, got %d", resp2.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "roomchat_sessions_active") {
		t.Fatalf("metrics output missing sessions gauge")
	}
}

func TestWebSocketChatStream(t *testing.T) {
	ts, hub, _ := startTestServer(t)

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	dial := func() (*websocket.Conn, *proto.FrameReader) {
		conn, _, err := websocket.Dial(ctx, wsURL, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
		nc := websocket.NetConn(ctx, conn, websocket.MessageText)
		return conn, proto.NewFrameReader(nc, proto.DefaultMaxFrameBytes)
	}
	send := func(conn *websocket.Conn, payload string) {
		frame, err := proto.Encode(payload)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	expect := func(r *proto.FrameReader, want string) {
		t.Helper()
		got, err := r.Next()
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}

	connA, readA := dial()
	connB, readB := dial()

	send(connA, "/login alice")
	expect(readA, proto.ReplyLoginSuccess)
	send(connB, "/login bob")
	expect(readB, proto.ReplyLoginSuccess)

	// Two frames in one message, then one frame split over two messages.
	if err := connA.Write(ctx, websocket.MessageText, []byte("/lru$/post public&hi there$")); err != nil {
		t.Fatalf("write: %v", err)
	}
	expect(readA, "/lru alice, bob")
	expect(readA, proto.ReplyPosted)
	expect(readA, "/MSG [public] alice: hi there")
	expect(readB, "/MSG [public] alice: hi there")

	if err := connB.Write(ctx, websocket.MessageText, []byte("/direct bob&al")); err != nil {
		t.Fatalf("write: %v", err)
	}
	send(connB, "ice&psst")
	expect(readB, proto.ReplyDirectSent)
	expect(readA, "/MSG [direct] bob: psst")

	stats, err := hub.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Sessions != 2 || stats.LoggedIn != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestWebSocketUpgradeRegistersSession(t *testing.T) {
	ts, hub, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, strings.Replace(ts.URL, "http", "ws", 1)+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	if resp.StatusCode != stdhttp.StatusSwitchingProtocols {
		t.Fatalf("unexpected upgrade status: %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		stats, err := hub.Stats(ctx)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats.Sessions == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("upgraded connection never reached the hub: %+v", stats)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

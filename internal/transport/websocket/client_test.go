package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamasit07/4-in-a-row/client/internal/domain"
	"github.com/iamasit07/4-in-a-row/client/internal/metrics"
)

type gameServer struct {
	*httptest.Server
	conns    chan *websocket.Conn
	accepted atomic.Int32
	headers  chan http.Header
}

func newGameServer(t *testing.T) *gameServer {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	gs := &gameServer{
		conns:   make(chan *websocket.Conn, 16),
		headers: make(chan http.Header, 16),
	}
	gs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		gs.accepted.Add(1)
		gs.headers <- r.Header.Clone()
		gs.conns <- conn
	}))
	t.Cleanup(gs.Close)
	return gs
}

func (gs *gameServer) wsURL() string {
	return "ws" + strings.TrimPrefix(gs.URL, "http")
}

func (gs *gameServer) nextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-gs.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted a connection")
		return nil
	}
}

func nextStatus(t *testing.T, cm *ConnectionManager) domain.ConnectionStatus {
	t.Helper()
	select {
	case s := <-cm.StatusChanges():
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("no status change, still %s", cm.Status())
		return ""
	}
}

func nextMessage(t *testing.T, cm *ConnectionManager) domain.ServerMessage {
	t.Helper()
	select {
	case msg := <-cm.Messages():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no inbound message")
		return nil
	}
}

func newManager(t *testing.T, url string, delay time.Duration) *ConnectionManager {
	t.Helper()
	cm := NewConnectionManager(Options{URL: url, ReconnectDelay: delay})
	t.Cleanup(func() { cm.Close() })
	return cm
}

func TestConnect_StatusAndInboundOrder(t *testing.T) {
	gs := newGameServer(t)
	cm := newManager(t, gs.wsURL(), 50*time.Millisecond)

	assert.Equal(t, domain.ConnectionDisconnected, cm.Status())
	cm.Connect()
	assert.Equal(t, domain.ConnectionConnecting, nextStatus(t, cm))
	assert.Equal(t, domain.ConnectionConnected, nextStatus(t, cm))

	server := gs.nextConn(t)
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"type":"waiting","data":{"message":"Waiting for opponent..."}}`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","data":{"row":9}}`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"type":"game_start","data":{"gameId":"g1","player1":"Alice","player2":"Bob","yourTurn":true}}`)))

	assert.Equal(t, domain.WaitingMessage{Message: "Waiting for opponent..."}, nextMessage(t, cm))
	assert.Equal(t, domain.GameStartMessage{GameID: "g1", Player1: "Alice", Player2: "Bob", YourTurn: true}, nextMessage(t, cm))
}

func TestConnect_IdempotentWhileConnected(t *testing.T) {
	gs := newGameServer(t)
	cm := newManager(t, gs.wsURL(), 50*time.Millisecond)

	cm.Connect()
	cm.Connect()
	require.Equal(t, domain.ConnectionConnecting, nextStatus(t, cm))
	require.Equal(t, domain.ConnectionConnected, nextStatus(t, cm))
	cm.Connect()

	gs.nextConn(t)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), gs.accepted.Load())
}

func TestSend_DroppedWhenNotConnected(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	cm := NewConnectionManager(Options{URL: "ws://127.0.0.1:1/ws", Metrics: m})
	defer cm.Close()

	err := cm.Send(domain.NewJoinRequest("alice"))
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SendsDropped))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FramesSent))
}

func TestSend_WritesJSONFrame(t *testing.T) {
	gs := newGameServer(t)
	cm := newManager(t, gs.wsURL(), 50*time.Millisecond)

	cm.Connect()
	nextStatus(t, cm)
	require.Equal(t, domain.ConnectionConnected, nextStatus(t, cm))
	server := gs.nextConn(t)

	require.NoError(t, cm.Send(domain.NewJoinRequest("alice")))
	require.NoError(t, cm.Send(domain.NewMoveRequest(0)))

	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	var join map[string]any
	require.NoError(t, server.ReadJSON(&join))
	assert.Equal(t, map[string]any{"type": "join", "username": "alice"}, join)

	var move map[string]any
	require.NoError(t, server.ReadJSON(&move))
	assert.Equal(t, map[string]any{"type": "move", "column": float64(0)}, move)
}

func TestUnexpectedClose_ReconnectsAfterDelay(t *testing.T) {
	gs := newGameServer(t)
	delay := 150 * time.Millisecond
	cm := newManager(t, gs.wsURL(), delay)

	cm.Connect()
	nextStatus(t, cm)
	require.Equal(t, domain.ConnectionConnected, nextStatus(t, cm))
	server := gs.nextConn(t)

	server.Close()
	lostAt := time.Now()
	assert.Equal(t, domain.ConnectionDisconnected, nextStatus(t, cm))
	assert.Equal(t, domain.ConnectionConnecting, nextStatus(t, cm))
	assert.GreaterOrEqual(t, time.Since(lostAt), delay-20*time.Millisecond)
	assert.Equal(t, domain.ConnectionConnected, nextStatus(t, cm))

	gs.nextConn(t)
	assert.Equal(t, int32(2), gs.accepted.Load())
}

func TestClose_CancelsPendingReconnect(t *testing.T) {
	gs := newGameServer(t)
	delay := 100 * time.Millisecond
	cm := NewConnectionManager(Options{URL: gs.wsURL(), ReconnectDelay: delay})

	cm.Connect()
	nextStatus(t, cm)
	require.Equal(t, domain.ConnectionConnected, nextStatus(t, cm))
	server := gs.nextConn(t)

	server.Close()
	require.Equal(t, domain.ConnectionDisconnected, nextStatus(t, cm))
	require.NoError(t, cm.Close())

	time.Sleep(3 * delay)
	assert.Equal(t, int32(1), gs.accepted.Load())
	assert.Equal(t, domain.ConnectionDisconnected, cm.Status())

	cm.Connect()
	assert.Equal(t, domain.ConnectionDisconnected, cm.Status())
}

func TestDialFailure_SetsErrorAndRetries(t *testing.T) {
	gs := newGameServer(t)
	url := gs.wsURL()
	gs.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	cm := NewConnectionManager(Options{URL: url, ReconnectDelay: 50 * time.Millisecond, Metrics: m})
	defer cm.Close()

	cm.Connect()
	assert.Equal(t, domain.ConnectionConnecting, nextStatus(t, cm))
	assert.Equal(t, domain.ConnectionError, nextStatus(t, cm))
	assert.Equal(t, domain.ConnectionConnecting, nextStatus(t, cm))
	assert.Equal(t, domain.ConnectionError, nextStatus(t, cm))

	assert.GreaterOrEqual(t, testutil.ToFloat64(m.DialAttempts), 2.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.ReconnectsScheduled), 2.0)
}

func TestConnect_SendsHandshakeHeader(t *testing.T) {
	gs := newGameServer(t)
	header := http.Header{}
	header.Set("Authorization", "Bearer tkn")
	cm := NewConnectionManager(Options{URL: gs.wsURL(), Header: header})
	defer cm.Close()

	cm.Connect()
	select {
	case h := <-gs.headers:
		assert.Equal(t, "Bearer tkn", h.Get("Authorization"))
	case <-time.After(2 * time.Second):
		t.Fatal("no handshake")
	}
}

func TestNextDelay_FixedByDefault(t *testing.T) {
	cm := NewConnectionManager(Options{URL: "ws://unused"})
	defer cm.Close()

	for i := 0; i < 5; i++ {
		assert.Equal(t, DefaultReconnectDelay, cm.nextDelayLocked())
	}
}

func TestNextDelay_BackoffIsBounded(t *testing.T) {
	cm := NewConnectionManager(Options{
		URL:            "ws://unused",
		ReconnectDelay: 100 * time.Millisecond,
		Backoff:        true,
		MaxDelay:       time.Second,
	})
	defer cm.Close()

	expectedCeil := []time.Duration{100, 200, 400, 800, 1000, 1000}
	for _, ceil := range expectedCeil {
		ceil *= time.Millisecond
		d := cm.nextDelayLocked()
		assert.GreaterOrEqual(t, d, ceil/2)
		assert.LessOrEqual(t, d, ceil)
	}
}

func TestRun_ClosesOnCancel(t *testing.T) {
	gs := newGameServer(t)
	cm := NewConnectionManager(Options{URL: gs.wsURL(), ReconnectDelay: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cm.Run(ctx) }()

	require.Equal(t, domain.ConnectionConnecting, nextStatus(t, cm))
	require.Equal(t, domain.ConnectionConnected, nextStatus(t, cm))
	server := gs.nextConn(t)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, domain.ConnectionDisconnected, cm.Status())

	// the server sees a normal close frame
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := server.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	assert.ErrorIs(t, cm.Send(domain.NewMoveRequest(1)), domain.ErrNotConnected)
}

func TestStatusChanges_KeepsNewestWhenListenerIsBehind(t *testing.T) {
	cm := NewConnectionManager(Options{URL: "ws://unused"})
	defer cm.Close()

	cm.mu.Lock()
	for i := 0; i < 100; i++ {
		cm.setStatusLocked(domain.ConnectionConnecting)
		cm.setStatusLocked(domain.ConnectionError)
	}
	cm.setStatusLocked(domain.ConnectionConnected)
	cm.mu.Unlock()

	var last domain.ConnectionStatus
	for len(cm.StatusChanges()) > 0 {
		last = <-cm.StatusChanges()
	}
	assert.Equal(t, domain.ConnectionConnected, last)
	assert.Equal(t, cm.Status(), last)
}

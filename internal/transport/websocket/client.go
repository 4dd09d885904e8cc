package websocket

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/iamasit07/4-in-a-row/client/internal/domain"
	"github.com/iamasit07/4-in-a-row/client/internal/logger"
	"github.com/iamasit07/4-in-a-row/client/internal/metrics"
	"github.com/iamasit07/4-in-a-row/client/pkg/uid"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	DefaultReconnectDelay = 3 * time.Second
	DefaultMaxDelay       = 30 * time.Second
)

type Options struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer

	// ReconnectDelay is the fixed wait before every reconnect attempt.
	ReconnectDelay time.Duration
	// Backoff doubles the delay after each consecutive failure, with jitter,
	// up to MaxDelay. Off by default.
	Backoff  bool
	MaxDelay time.Duration

	Metrics *metrics.Metrics
}

// ConnectionManager owns at most one WebSocket to the game server and
// keeps it alive: every unexpected close or failed dial arms exactly one
// reconnect timer.
type ConnectionManager struct {
	opts   Options
	dialer *websocket.Dialer
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu             sync.Mutex // Protects everything below
	conn           *websocket.Conn
	connID         string
	status         domain.ConnectionStatus
	generation     uint64
	failures       int
	reconnectTimer *time.Timer
	closed         bool

	// writeMu ensures only one goroutine writes to the socket at a time.
	writeMu sync.Mutex

	messages chan domain.ServerMessage
	statuses chan domain.ConnectionStatus
}

func NewConnectionManager(opts Options) *ConnectionManager {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.MaxDelay < opts.ReconnectDelay {
		opts.MaxDelay = DefaultMaxDelay
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ConnectionManager{
		opts:     opts,
		dialer:   dialer,
		log:      logger.For("ws"),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		status:   domain.ConnectionDisconnected,
		messages: make(chan domain.ServerMessage, 256),
		statuses: make(chan domain.ConnectionStatus, 64),
	}
}

// Messages delivers decoded inbound messages in the order the server sent
// them, across reconnects.
func (cm *ConnectionManager) Messages() <-chan domain.ServerMessage {
	return cm.messages
}

// StatusChanges delivers every status transition in order.
func (cm *ConnectionManager) StatusChanges() <-chan domain.ConnectionStatus {
	return cm.statuses
}

func (cm *ConnectionManager) Status() domain.ConnectionStatus {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.status
}

// Run connects and blocks until ctx is cancelled, then closes the manager.
func (cm *ConnectionManager) Run(ctx context.Context) error {
	cm.Connect()
	select {
	case <-ctx.Done():
	case <-cm.done:
	}
	if err := cm.Close(); err != nil {
		cm.log.Debug().Err(err).Msg("close on shutdown")
	}
	return nil
}

// Connect opens a new connection unless one is already open or being
// opened. The dial happens in the background; watch StatusChanges for the
// outcome.
func (cm *ConnectionManager) Connect() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.closed || cm.status == domain.ConnectionConnecting || cm.status == domain.ConnectionConnected {
		return
	}

	cm.stopReconnectLocked()
	cm.generation++
	cm.connID = uid.NewConnectionID()
	cm.setStatusLocked(domain.ConnectionConnecting)
	cm.opts.Metrics.IncDial()

	go cm.dial(cm.generation, cm.connID)
}

func (cm *ConnectionManager) dial(gen uint64, connID string) {
	conn, resp, err := cm.dialer.DialContext(cm.ctx, cm.opts.URL, cm.opts.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	cm.mu.Lock()
	if cm.closed || gen != cm.generation {
		cm.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		cm.log.Warn().Err(err).Str("conn", uid.Short(connID)).Str("url", cm.opts.URL).Msg("dial failed")
		cm.setStatusLocked(domain.ConnectionError)
		cm.scheduleReconnectLocked()
		cm.mu.Unlock()
		return
	}

	cm.conn = conn
	cm.failures = 0
	cm.setStatusLocked(domain.ConnectionConnected)
	cm.mu.Unlock()

	cm.log.Info().Str("conn", uid.Short(connID)).Str("url", cm.opts.URL).Msg("connected")

	go cm.keepAlive(gen, conn)
	go cm.readLoop(gen, conn, connID)
}

func (cm *ConnectionManager) readLoop(gen uint64, conn *websocket.Conn, connID string) {
	// Set read deadline to detect stale connections
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cm.log.Warn().Err(err).Str("conn", uid.Short(connID)).Msg("connection lost")
			} else {
				cm.log.Info().Err(err).Str("conn", uid.Short(connID)).Msg("connection closed")
			}
			cm.handleDisconnect(gen, conn)
			return
		}

		msg, err := domain.DecodeServerMessage(data)
		if err != nil {
			cm.log.Warn().Err(err).Str("conn", uid.Short(connID)).Bytes("frame", data).Msg("dropping inbound frame")
			cm.opts.Metrics.IncDropped()
			continue
		}
		cm.opts.Metrics.IncReceived(msg.MessageType())

		select {
		case cm.messages <- msg:
		case <-cm.done:
			return
		}
	}
}

// keep-alive pinger
func (cm *ConnectionManager) keepAlive(gen uint64, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-cm.done:
			return
		case <-ticker.C:
			if !cm.isCurrent(gen) {
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (cm *ConnectionManager) isCurrent(gen uint64) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return !cm.closed && gen == cm.generation
}

func (cm *ConnectionManager) handleDisconnect(gen uint64, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn.Close()
	if cm.closed || gen != cm.generation || cm.conn != conn {
		return
	}

	cm.conn = nil
	cm.setStatusLocked(domain.ConnectionDisconnected)
	cm.scheduleReconnectLocked()
}

// Send writes one JSON frame on the current connection. When the socket is
// not open the message is dropped and ErrNotConnected is returned; nothing
// is queued for later.
func (cm *ConnectionManager) Send(message any) error {
	cm.mu.Lock()
	conn := cm.conn
	connected := cm.status == domain.ConnectionConnected
	cm.mu.Unlock()

	if conn == nil || !connected {
		cm.opts.Metrics.IncSendDropped()
		cm.log.Debug().Interface("message", message).Msg("not connected, dropping outbound message")
		return domain.ErrNotConnected
	}

	cm.writeMu.Lock()
	defer cm.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	cm.opts.Metrics.IncSent()
	return nil
}

// Close releases the socket and cancels any pending reconnect. It is safe
// to call more than once.
func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	if cm.closed {
		cm.mu.Unlock()
		return nil
	}
	cm.closed = true
	cm.stopReconnectLocked()
	cm.generation++
	conn := cm.conn
	cm.conn = nil
	cm.setStatusLocked(domain.ConnectionDisconnected)
	cm.cancel()
	close(cm.done)
	cm.mu.Unlock()

	if conn == nil {
		return nil
	}

	cm.writeMu.Lock()
	err := conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	cm.writeMu.Unlock()
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		cm.log.Debug().Err(err).Msg("close frame not delivered")
	}
	return conn.Close()
}

func (cm *ConnectionManager) setStatusLocked(status domain.ConnectionStatus) {
	if cm.status == status {
		return
	}
	cm.status = status
	cm.opts.Metrics.SetConnectionStatus(status)

	select {
	case cm.statuses <- status:
		return
	default:
	}

	// listener is behind: drop the oldest transition so the newest always lands
	select {
	case old := <-cm.statuses:
		cm.log.Warn().Str("dropped", string(old)).Msg("status listener is behind")
	default:
	}
	select {
	case cm.statuses <- status:
	default:
	}
}

func (cm *ConnectionManager) scheduleReconnectLocked() {
	if cm.closed || cm.reconnectTimer != nil {
		return
	}

	delay := cm.nextDelayLocked()
	cm.opts.Metrics.IncReconnect()
	cm.log.Info().Dur("delay", delay).Msg("reconnect scheduled")

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		cm.mu.Lock()
		if cm.reconnectTimer != timer || cm.closed {
			cm.mu.Unlock()
			return
		}
		cm.reconnectTimer = nil
		cm.mu.Unlock()

		cm.Connect()
	})
	cm.reconnectTimer = timer
}

func (cm *ConnectionManager) stopReconnectLocked() {
	if cm.reconnectTimer != nil {
		cm.reconnectTimer.Stop()
		cm.reconnectTimer = nil
	}
}

func (cm *ConnectionManager) nextDelayLocked() time.Duration {
	if !cm.opts.Backoff {
		return cm.opts.ReconnectDelay
	}

	delay := cm.opts.ReconnectDelay
	for i := 0; i < cm.failures && delay < cm.opts.MaxDelay; i++ {
		delay *= 2
	}
	if delay > cm.opts.MaxDelay {
		delay = cm.opts.MaxDelay
	}
	cm.failures++

	// jitter within [delay/2, delay]
	half := delay / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}

package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamasit07/4-in-a-row/client/internal/domain"
	"github.com/iamasit07/4-in-a-row/client/internal/logger"
)

const DefaultErrorTTL = 5 * time.Second

var ErrSessionClosed = errors.New("session closed")

// Transport is the part of the connection manager the session needs.
type Transport interface {
	Send(message any) error
	Messages() <-chan domain.ServerMessage
	StatusChanges() <-chan domain.ConnectionStatus
	Status() domain.ConnectionStatus
}

// LeaderboardSource feeds leaderboard snapshots and accepts refresh requests.
type LeaderboardSource interface {
	Refresh()
	Updates() <-chan []domain.LeaderboardEntry
}

type Options struct {
	ErrorTTL time.Duration
	Now      func() time.Time
}

type intentKind int

const (
	intentJoin intentKind = iota
	intentMove
	intentNewGame
)

type intent struct {
	kind     intentKind
	username string
	column   int
	reply    chan error
}

// Session owns the one GameState of this client. Run processes inbound
// messages, connection status changes, leaderboard results and user intents
// one at a time, so no two transitions ever interleave.
type Session struct {
	transport   Transport
	leaderboard LeaderboardSource
	errorTTL    time.Duration
	now         func() time.Time
	log         zerolog.Logger

	intents chan intent
	expired chan uint64
	done    chan struct{}

	// owned by the Run goroutine
	state      domain.GameState
	connection domain.ConnectionStatus
	errText    string
	errExpires time.Time
	errSeq     uint64
	errTimer   *time.Timer
	leaders    []domain.LeaderboardEntry

	mu       sync.RWMutex
	snapshot domain.Snapshot
	updates  chan domain.Snapshot
}

func NewSession(transport Transport, leaderboard LeaderboardSource, opts Options) *Session {
	if opts.ErrorTTL <= 0 {
		opts.ErrorTTL = DefaultErrorTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		transport:   transport,
		leaderboard: leaderboard,
		errorTTL:    opts.ErrorTTL,
		now:         opts.Now,
		log:         logger.For("session"),
		intents:     make(chan intent),
		expired:     make(chan uint64),
		done:        make(chan struct{}),
		state:       domain.NewGameState(),
		connection:  transport.Status(),
		updates:     make(chan domain.Snapshot, 1),
	}
	s.snapshot = s.buildSnapshot()
	return s
}

// Run blocks until ctx is cancelled. Pending error timers are stopped on
// the way out.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.stopErrorTimer()

	var leaderboardUpdates <-chan []domain.LeaderboardEntry
	if s.leaderboard != nil {
		leaderboardUpdates = s.leaderboard.Updates()
	}

	s.connection = s.transport.Status()
	s.publish()

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg := <-s.transport.Messages():
			s.handleMessage(msg)

		case status := <-s.transport.StatusChanges():
			s.log.Info().Str("status", string(status)).Msg("connection status changed")
			s.connection = status
			s.publish()

		case entries := <-leaderboardUpdates:
			s.leaders = entries
			s.publish()

		case in := <-s.intents:
			in.reply <- s.handleIntent(in)

		case seq := <-s.expired:
			if seq == s.errSeq && s.errText != "" {
				s.errText = ""
				s.errTimer = nil
				s.publish()
			}
		}
	}
}

// Join asks to enter the waiting room under username.
func (s *Session) Join(ctx context.Context, username string) error {
	return s.submit(ctx, intent{kind: intentJoin, username: username})
}

// Move asks the server to drop a disc in column (0-based).
func (s *Session) Move(ctx context.Context, column int) error {
	return s.submit(ctx, intent{kind: intentMove, column: column})
}

// NewGame throws away the current game and returns to idle.
func (s *Session) NewGame(ctx context.Context) error {
	return s.submit(ctx, intent{kind: intentNewGame})
}

// Snapshot returns the latest published view. The result is a private copy.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	snap.Game = snap.Game.Clone()
	leaders := make([]domain.LeaderboardEntry, len(snap.Leaderboard))
	copy(leaders, snap.Leaderboard)
	snap.Leaderboard = leaders
	if snap.Error != nil {
		e := *snap.Error
		snap.Error = &e
	}
	return snap
}

// Updates carries the most recent snapshot; intermediate ones are skipped
// when the reader falls behind.
func (s *Session) Updates() <-chan domain.Snapshot {
	return s.updates
}

func (s *Session) submit(ctx context.Context, in intent) error {
	in.reply = make(chan error, 1)

	select {
	case s.intents <- in:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}

	select {
	case err := <-in.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) handleIntent(in intent) error {
	switch in.kind {
	case intentJoin:
		next, req, err := Join(s.state, in.username)
		if err != nil {
			return err
		}
		s.send(req)
		s.state = next
		s.log.Info().Str("username", next.Username).Msg("joined, waiting for opponent")

	case intentMove:
		req, err := Move(s.state, in.column)
		if err != nil {
			return err
		}
		s.send(req)

	case intentNewGame:
		s.state = Reset()
		s.clearError()
	}

	s.publish()
	return nil
}

func (s *Session) send(message any) {
	err := s.transport.Send(message)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotConnected):
		s.log.Warn().Interface("message", message).Msg("not connected, message dropped")
	default:
		s.log.Error().Err(err).Interface("message", message).Msg("send failed")
	}
}

func (s *Session) handleMessage(msg domain.ServerMessage) {
	next, fx := Apply(s.state, msg)
	if fx.Ignored != "" {
		s.log.Debug().Str("type", msg.MessageType()).Str("reason", fx.Ignored).Msg("message ignored")
	}
	if next.Status != s.state.Status {
		s.log.Info().Str("from", string(s.state.Status)).Str("to", string(next.Status)).
			Str("gameId", next.GameID).Msg("game status changed")
	}
	s.state = next

	if fx.Error != "" {
		s.showError(fx.Error)
	}
	if fx.RefreshLeaderboard && s.leaderboard != nil {
		s.leaderboard.Refresh()
	}
	s.publish()
}

// showError replaces the transient error. Each error gets its own expiry,
// so a newer one is never cut short by an older timer.
func (s *Session) showError(text string) {
	s.stopErrorTimer()
	s.errSeq++
	seq := s.errSeq
	s.errText = text
	s.errExpires = s.now().Add(s.errorTTL)

	s.errTimer = time.AfterFunc(s.errorTTL, func() {
		select {
		case s.expired <- seq:
		case <-s.done:
		}
	})
}

func (s *Session) clearError() {
	s.stopErrorTimer()
	s.errSeq++
	s.errText = ""
}

func (s *Session) stopErrorTimer() {
	if s.errTimer != nil {
		s.errTimer.Stop()
		s.errTimer = nil
	}
}

func (s *Session) buildSnapshot() domain.Snapshot {
	snap := domain.Snapshot{
		Game:        s.state.Clone(),
		Connection:  s.connection,
		Leaderboard: make([]domain.LeaderboardEntry, len(s.leaders)),
		UpdatedAt:   s.now(),
	}
	copy(snap.Leaderboard, s.leaders)
	if s.errText != "" {
		snap.Error = &domain.TransientError{Text: s.errText, ExpiresAt: s.errExpires}
	}
	return snap
}

func (s *Session) publish() {
	snap := s.buildSnapshot()

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	// latest wins
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snap:
	default:
	}
}

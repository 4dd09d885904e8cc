package domain

import (
	"encoding/json"
	"time"
)

// ConnectionStatus is owned by the connection manager; everyone else reads it.
type ConnectionStatus string

const (
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionConnecting   ConnectionStatus = "connecting"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionError        ConnectionStatus = "error"
)

// Level maps the status onto a small integer for gauges.
func (s ConnectionStatus) Level() float64 {
	switch s {
	case ConnectionConnecting:
		return 1
	case ConnectionConnected:
		return 2
	case ConnectionError:
		return 3
	}
	return 0
}

// to represent the session status
type SessionStatus string

const (
	StatusIdle     SessionStatus = "idle"
	StatusWaiting  SessionStatus = "waiting"
	StatusPlaying  SessionStatus = "playing"
	StatusFinished SessionStatus = "finished"
)

// GameState is the client-side view of one game. Values are treated as
// immutable: transitions build a new GameState and boards are replaced,
// never written in place.
type GameState struct {
	Status      SessionStatus
	Username    string
	GameID      string
	Player1Name string
	Player2Name string
	Board       [][]PlayerID
	CurrentTurn PlayerID
	LocalPlayer PlayerID
	Winner      string
	EndReason   string
}

func NewGameState() GameState {
	return GameState{Status: StatusIdle}
}

// IsLocalPlayersTurn is derived on every read so it can never go stale.
func (g GameState) IsLocalPlayersTurn() bool {
	return g.LocalPlayer.IsPlayer() && g.CurrentTurn == g.LocalPlayer
}

// IsDraw reports a finished game that nobody won.
func (g GameState) IsDraw() bool {
	return g.Status == StatusFinished && g.Winner == DrawWinner
}

// Clone returns a copy that shares no board memory with g.
func (g GameState) Clone() GameState {
	g.Board = CopyBoard(g.Board)
	return g
}

type gameStateJSON struct {
	Status             SessionStatus `json:"status"`
	Username           string        `json:"username,omitempty"`
	GameID             string        `json:"gameId,omitempty"`
	Player1            string        `json:"player1,omitempty"`
	Player2            string        `json:"player2,omitempty"`
	Board              [][]PlayerID  `json:"board,omitempty"`
	CurrentTurn        PlayerID      `json:"currentTurn,omitempty"`
	PlayerNumber       PlayerID      `json:"playerNumber,omitempty"`
	IsLocalPlayersTurn bool          `json:"yourTurn"`
	Winner             string        `json:"winner,omitempty"`
	Reason             string        `json:"reason,omitempty"`
}

func (g GameState) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameStateJSON{
		Status:             g.Status,
		Username:           g.Username,
		GameID:             g.GameID,
		Player1:            g.Player1Name,
		Player2:            g.Player2Name,
		Board:              g.Board,
		CurrentTurn:        g.CurrentTurn,
		PlayerNumber:       g.LocalPlayer,
		IsLocalPlayersTurn: g.IsLocalPlayersTurn(),
		Winner:             g.Winner,
		Reason:             g.EndReason,
	})
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank,omitempty"`
	Username string `json:"username"`
	Rating   int    `json:"rating,omitempty"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
}

// Games is the total number of finished games for the entry.
func (e LeaderboardEntry) Games() int {
	return e.Wins + e.Losses + e.Draws
}

// Normalize clamps counters that a sloppy server may send as negatives.
func (e LeaderboardEntry) Normalize() LeaderboardEntry {
	if e.Wins < 0 {
		e.Wins = 0
	}
	if e.Losses < 0 {
		e.Losses = 0
	}
	if e.Draws < 0 {
		e.Draws = 0
	}
	return e
}

// TransientError is a short-lived message for display.
type TransientError struct {
	Text      string    `json:"text"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Snapshot is what the presentation layer renders. It is built fresh for
// every publication and never mutated afterwards.
type Snapshot struct {
	Game        GameState          `json:"game"`
	Connection  ConnectionStatus   `json:"connection"`
	Error       *TransientError    `json:"error,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

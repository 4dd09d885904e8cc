package domain

import (
	"encoding/json"
	"fmt"
)

// Message types exchanged with the game server.
const (
	TypeWaiting     = "waiting"
	TypeGameStart   = "game_start"
	TypeMove        = "move"
	TypeGameOver    = "game_over"
	TypeError       = "error"
	TypeReconnected = "reconnected"
	TypeJoin        = "join"
)

// ServerMessage is one decoded inbound frame. The concrete types below are
// the complete set; consumers switch on them exhaustively.
type ServerMessage interface {
	MessageType() string
}

type WaitingMessage struct {
	Message string
}

type GameStartMessage struct {
	GameID   string
	Player1  string
	Player2  string
	YourTurn bool
}

type MoveMessage struct {
	Row    int
	Column int
	Player PlayerID
}

type GameOverMessage struct {
	Winner string
	Reason string
}

type ErrorMessage struct {
	Error string
}

// ReconnectedMessage carries the authoritative board after a reconnect.
// Board is nil when the server had no game to resend.
type ReconnectedMessage struct {
	Board [][]PlayerID
	Turn  PlayerID
}

func (WaitingMessage) MessageType() string     { return TypeWaiting }
func (GameStartMessage) MessageType() string   { return TypeGameStart }
func (MoveMessage) MessageType() string        { return TypeMove }
func (GameOverMessage) MessageType() string    { return TypeGameOver }
func (ErrorMessage) MessageType() string       { return TypeError }
func (ReconnectedMessage) MessageType() string { return TypeReconnected }

// JoinRequest asks the server to put the player in the waiting room.
type JoinRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// MoveRequest asks the server to drop a disc in a column.
type MoveRequest struct {
	Type   string `json:"type"`
	Column int    `json:"column"`
}

func NewJoinRequest(username string) JoinRequest {
	return JoinRequest{Type: TypeJoin, Username: username}
}

func NewMoveRequest(column int) MoveRequest {
	return MoveRequest{Type: TypeMove, Column: column}
}

type envelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type waitingData struct {
	Message string `json:"message"`
}

type gameStartData struct {
	GameID   string `json:"gameId"`
	Player1  string `json:"player1"`
	Player2  string `json:"player2"`
	YourTurn *bool  `json:"yourTurn"`
}

type moveData struct {
	Row    *int      `json:"row"`
	Column *int      `json:"column"`
	Player *PlayerID `json:"player"`
}

type gameOverData struct {
	Winner *string `json:"winner"`
	Reason string  `json:"reason"`
}

type reconnectedData struct {
	Board [][]PlayerID `json:"board"`
	Turn  PlayerID     `json:"turn"`
}

// DecodeServerMessage parses one frame. Errors wrap ErrMalformed or
// ErrUnknownType so callers can drop the frame and carry on.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeWaiting:
		var d waitingData
		if err := decodeData(env.Data, &d, false); err != nil {
			return nil, err
		}
		return WaitingMessage{Message: d.Message}, nil

	case TypeGameStart:
		var d gameStartData
		if err := decodeData(env.Data, &d, true); err != nil {
			return nil, err
		}
		if d.GameID == "" || d.YourTurn == nil {
			return nil, fmt.Errorf("%w: game_start requires gameId and yourTurn", ErrMalformed)
		}
		return GameStartMessage{
			GameID:   d.GameID,
			Player1:  d.Player1,
			Player2:  d.Player2,
			YourTurn: *d.YourTurn,
		}, nil

	case TypeMove:
		var d moveData
		if err := decodeData(env.Data, &d, true); err != nil {
			return nil, err
		}
		if d.Row == nil || d.Column == nil || d.Player == nil {
			return nil, fmt.Errorf("%w: move requires row, column and player", ErrMalformed)
		}
		if !IsValidCell(*d.Row, *d.Column) || !d.Player.IsPlayer() {
			return nil, fmt.Errorf("%w: move out of range (row=%d column=%d player=%d)",
				ErrMalformed, *d.Row, *d.Column, *d.Player)
		}
		return MoveMessage{Row: *d.Row, Column: *d.Column, Player: *d.Player}, nil

	case TypeGameOver:
		var d gameOverData
		if err := decodeData(env.Data, &d, true); err != nil {
			return nil, err
		}
		if d.Winner == nil {
			return nil, fmt.Errorf("%w: game_over requires winner", ErrMalformed)
		}
		return GameOverMessage{Winner: *d.Winner, Reason: d.Reason}, nil

	case TypeError:
		text := env.Error
		if text == "" {
			text = env.Message
		}
		if text == "" {
			return nil, fmt.Errorf("%w: error message without text", ErrMalformed)
		}
		return ErrorMessage{Error: text}, nil

	case TypeReconnected:
		var d reconnectedData
		if err := decodeData(env.Data, &d, false); err != nil {
			return nil, err
		}
		if d.Board == nil {
			return ReconnectedMessage{}, nil
		}
		if !IsValidBoard(d.Board) || !d.Turn.IsPlayer() {
			return nil, fmt.Errorf("%w: reconnected requires a 6x7 board and turn 1 or 2", ErrMalformed)
		}
		return ReconnectedMessage{Board: d.Board, Turn: d.Turn}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
}

func decodeData(raw json.RawMessage, v any, required bool) error {
	if len(raw) == 0 || string(raw) == "null" {
		if required {
			return fmt.Errorf("%w: missing data", ErrMalformed)
		}
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

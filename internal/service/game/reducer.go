package game

import (
	"strings"
	"unicode/utf8"

	"github.com/iamasit07/4-in-a-row/client/internal/domain"
)

// Effects are the side effects a transition asks the session to carry out.
// The transition functions themselves never perform I/O.
type Effects struct {
	RefreshLeaderboard bool
	Error              string
	// Ignored explains why a message left the state untouched.
	Ignored string
}

// Apply folds one inbound message into state. The server is the only
// authority on moves and outcomes, so messages are applied as received;
// the only checks are on which status a message may arrive in.
func Apply(state domain.GameState, msg domain.ServerMessage) (domain.GameState, Effects) {
	switch m := msg.(type) {
	case domain.WaitingMessage:
		return applyWaiting(state)
	case domain.GameStartMessage:
		return applyGameStart(state, m)
	case domain.MoveMessage:
		return applyMove(state, m)
	case domain.GameOverMessage:
		return applyGameOver(state, m)
	case domain.ErrorMessage:
		return state, Effects{Error: m.Error}
	case domain.ReconnectedMessage:
		return applyReconnected(state, m)
	}
	return state, Effects{Ignored: "unhandled message type"}
}

func applyWaiting(state domain.GameState) (domain.GameState, Effects) {
	switch state.Status {
	case domain.StatusIdle, domain.StatusWaiting:
		state.Status = domain.StatusWaiting
		return state, Effects{}
	}
	return state, Effects{Ignored: "waiting while " + string(state.Status)}
}

func applyGameStart(state domain.GameState, m domain.GameStartMessage) (domain.GameState, Effects) {
	if state.Status != domain.StatusIdle && state.Status != domain.StatusWaiting {
		return state, Effects{Ignored: "game_start while " + string(state.Status)}
	}

	// player 1 always opens, so whoever is told to move first is player 1
	local := domain.Player2
	if m.YourTurn {
		local = domain.Player1
	}

	return domain.GameState{
		Status:      domain.StatusPlaying,
		Username:    state.Username,
		GameID:      m.GameID,
		Player1Name: m.Player1,
		Player2Name: m.Player2,
		Board:       domain.NewBoard(),
		CurrentTurn: domain.Player1,
		LocalPlayer: local,
	}, Effects{}
}

func applyMove(state domain.GameState, m domain.MoveMessage) (domain.GameState, Effects) {
	if state.Status != domain.StatusPlaying || state.Board == nil {
		return state, Effects{Ignored: "move while " + string(state.Status)}
	}

	state.Board = domain.WithDisc(state.Board, m.Row, m.Column, m.Player)
	state.CurrentTurn = m.Player.Opponent()
	return state, Effects{}
}

func applyGameOver(state domain.GameState, m domain.GameOverMessage) (domain.GameState, Effects) {
	// a game can be called off before it starts, e.g. while still waiting
	if state.Status != domain.StatusPlaying && state.Status != domain.StatusWaiting {
		return state, Effects{Ignored: "game_over while " + string(state.Status)}
	}

	state.Status = domain.StatusFinished
	state.Winner = m.Winner
	state.EndReason = m.Reason
	return state, Effects{RefreshLeaderboard: true}
}

func applyReconnected(state domain.GameState, m domain.ReconnectedMessage) (domain.GameState, Effects) {
	if m.Board == nil {
		return state, Effects{Ignored: "reconnected without board"}
	}

	state.Board = domain.CopyBoard(m.Board)
	state.CurrentTurn = m.Turn
	state.Status = domain.StatusPlaying
	state.Winner = ""
	state.EndReason = ""
	return state, Effects{}
}

// Join validates a join intent. On success it returns the waiting state to
// move to right away and the request to send; the server's own waiting
// message only confirms it.
func Join(state domain.GameState, username string) (domain.GameState, domain.JoinRequest, error) {
	name := strings.TrimSpace(username)
	if name == "" {
		return state, domain.JoinRequest{}, domain.ErrEmptyUsername
	}
	if utf8.RuneCountInString(name) > domain.MaxUsernameLength {
		return state, domain.JoinRequest{}, domain.ErrUsernameTooLong
	}
	if state.Status != domain.StatusIdle {
		return state, domain.JoinRequest{}, domain.ErrAlreadyJoined
	}

	state.Status = domain.StatusWaiting
	state.Username = name
	return state, domain.NewJoinRequest(name), nil
}

// Move validates a move intent. The board is not touched: it only changes
// when the server echoes the move back.
func Move(state domain.GameState, column int) (domain.MoveRequest, error) {
	if state.Status != domain.StatusPlaying {
		return domain.MoveRequest{}, domain.ErrNotPlaying
	}
	if !state.IsLocalPlayersTurn() {
		return domain.MoveRequest{}, domain.ErrNotYourTurn
	}
	if !domain.IsValidColumn(column) {
		return domain.MoveRequest{}, domain.ErrInvalidColumn
	}
	return domain.NewMoveRequest(column), nil
}

// Reset starts over from idle, dropping everything about the previous game.
func Reset() domain.GameState {
	return domain.NewGameState()
}

package domain

type PlayerID int

const (
	Empty   PlayerID = 0
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

const (
	Rows    = 6
	Columns = 7
)

// MaxUsernameLength is the longest name the server accepts on join.
const MaxUsernameLength = 20

// DrawWinner is the winner value the server sends when the board fills up.
const DrawWinner = "Draw"

// IsPlayer reports whether p names one of the two seats.
func (p PlayerID) IsPlayer() bool {
	return p == Player1 || p == Player2
}

// Opponent returns the other seat. Empty maps to Empty.
func (p PlayerID) Opponent() PlayerID {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	}
	return Empty
}

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrEmptyUsername   Error = "username is required"
	ErrUsernameTooLong Error = "username must be at most 20 characters"
	ErrAlreadyJoined   Error = "already joined a game"
	ErrNotPlaying      Error = "no game in progress"
	ErrNotYourTurn     Error = "not your turn"
	ErrInvalidColumn   Error = "invalid column"
	ErrMalformed       Error = "malformed message"
	ErrUnknownType     Error = "unknown message type"
	ErrNotConnected    Error = "not connected"
)

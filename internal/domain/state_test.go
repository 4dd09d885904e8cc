package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameState_IsLocalPlayersTurn(t *testing.T) {
	assert.False(t, NewGameState().IsLocalPlayersTurn())
	assert.False(t, GameState{CurrentTurn: Empty, LocalPlayer: Empty}.IsLocalPlayersTurn())
	assert.True(t, GameState{CurrentTurn: Player2, LocalPlayer: Player2}.IsLocalPlayersTurn())
	assert.False(t, GameState{CurrentTurn: Player1, LocalPlayer: Player2}.IsLocalPlayersTurn())
}

func TestGameState_IsDraw(t *testing.T) {
	assert.True(t, GameState{Status: StatusFinished, Winner: "Draw"}.IsDraw())
	assert.False(t, GameState{Status: StatusFinished, Winner: "Alice"}.IsDraw())
	assert.False(t, GameState{Status: StatusPlaying}.IsDraw())
}

func TestGameState_Clone(t *testing.T) {
	g := GameState{Status: StatusPlaying, Board: NewBoard()}
	c := g.Clone()
	c.Board[0][0] = Player1

	assert.Equal(t, Empty, g.Board[0][0])
}

func TestGameState_MarshalJSON(t *testing.T) {
	g := GameState{
		Status:      StatusPlaying,
		Username:    "Alice",
		GameID:      "g1",
		Player1Name: "Alice",
		Player2Name: "Bob",
		Board:       NewBoard(),
		CurrentTurn: Player1,
		LocalPlayer: Player1,
	}

	raw, err := json.Marshal(g)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "playing", got["status"])
	assert.Equal(t, "g1", got["gameId"])
	assert.Equal(t, float64(1), got["playerNumber"])
	assert.Equal(t, true, got["yourTurn"])
	assert.NotContains(t, got, "winner")

	raw, err = json.Marshal(NewGameState())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"idle","yourTurn":false}`, string(raw))
}

func TestLeaderboardEntry(t *testing.T) {
	e := LeaderboardEntry{Username: "Bob", Wins: 3, Losses: -1, Draws: 2}.Normalize()

	assert.Equal(t, 0, e.Losses)
	assert.Equal(t, 5, e.Games())
}

func TestConnectionStatus_Level(t *testing.T) {
	assert.Equal(t, 0.0, ConnectionDisconnected.Level())
	assert.Equal(t, 1.0, ConnectionConnecting.Level())
	assert.Equal(t, 2.0, ConnectionConnected.Level())
	assert.Equal(t, 3.0, ConnectionError.Level())
}

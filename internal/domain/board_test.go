package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBoard(t *testing.T) {
	board := NewBoard()

	assert.Len(t, board, Rows)
	for _, row := range board {
		assert.Len(t, row, Columns)
		for _, cell := range row {
			assert.Equal(t, Empty, cell)
		}
	}
	assert.True(t, IsValidBoard(board))
}

func TestCopyBoard(t *testing.T) {
	assert.Nil(t, CopyBoard(nil))

	board := NewBoard()
	board[2][3] = Player2
	copied := CopyBoard(board)
	assert.Equal(t, board, copied)

	copied[2][3] = Player1
	assert.Equal(t, Player2, board[2][3])
}

func TestWithDisc(t *testing.T) {
	board := NewBoard()
	next := WithDisc(board, 5, 6, Player1)

	assert.Equal(t, Player1, next[5][6])
	assert.Equal(t, Empty, board[5][6])
	assert.Equal(t, 1, CountDiffs(board, next))
}

func TestIsValidColumn(t *testing.T) {
	assert.True(t, IsValidColumn(0))
	assert.True(t, IsValidColumn(6))
	assert.False(t, IsValidColumn(-1))
	assert.False(t, IsValidColumn(7))
}

func TestIsValidBoard(t *testing.T) {
	assert.False(t, IsValidBoard(nil))
	assert.False(t, IsValidBoard(NewBoard()[:5]))

	short := NewBoard()
	short[0] = short[0][:6]
	assert.False(t, IsValidBoard(short))

	bad := NewBoard()
	bad[1][1] = 3
	assert.False(t, IsValidBoard(bad))
}

func TestPlayerID(t *testing.T) {
	assert.Equal(t, Player2, Player1.Opponent())
	assert.Equal(t, Player1, Player2.Opponent())
	assert.Equal(t, Empty, Empty.Opponent())
	assert.False(t, Empty.IsPlayer())
	assert.True(t, Player2.IsPlayer())
}

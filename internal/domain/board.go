package domain

func NewBoard() [][]PlayerID {
	board := make([][]PlayerID, Rows)
	for i := range board {
		board[i] = make([]PlayerID, Columns)
	}
	return board
}

// this creates a deep copy of the board
func CopyBoard(board [][]PlayerID) [][]PlayerID {
	if board == nil {
		return nil
	}
	newBoard := make([][]PlayerID, len(board))
	for i := range board {
		newBoard[i] = make([]PlayerID, len(board[i]))
		copy(newBoard[i], board[i])
	}
	return newBoard
}

// WithDisc returns a copy of board with player placed at (row, column).
// The input board is never modified. The caller is responsible for the
// coordinates being in range.
func WithDisc(board [][]PlayerID, row, column int, player PlayerID) [][]PlayerID {
	newBoard := CopyBoard(board)
	newBoard[row][column] = player
	return newBoard
}

func IsValidColumn(column int) bool {
	return column >= 0 && column < Columns
}

func IsValidCell(row, column int) bool {
	return row >= 0 && row < Rows && IsValidColumn(column)
}

// IsValidBoard checks the 6x7 shape and that every cell holds a known value.
func IsValidBoard(board [][]PlayerID) bool {
	if len(board) != Rows {
		return false
	}
	for _, row := range board {
		if len(row) != Columns {
			return false
		}
		for _, cell := range row {
			if cell != Empty && !cell.IsPlayer() {
				return false
			}
		}
	}
	return true
}

// CountDiffs returns how many cells differ between two boards of the same shape.
func CountDiffs(a, b [][]PlayerID) int {
	diffs := 0
	for r := range a {
		for c := range a[r] {
			if a[r][c] != b[r][c] {
				diffs++
			}
		}
	}
	return diffs
}

package domain

// Cell addresses one board position.
type Cell struct {
	Row    int
	Column int
}

var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal \
	{1, -1}, // diagonal /
}

// WinningLine returns the first run of four discs belonging to player, or
// nil if there is none. The server decides outcomes; this is only used to
// highlight the line once a game is over.
func WinningLine(board [][]PlayerID, player PlayerID) []Cell {
	if !player.IsPlayer() || !IsValidBoard(board) {
		return nil
	}

	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if board[r][c] != player {
				continue
			}
			for _, d := range directions {
				line := make([]Cell, 0, 4)
				for i := 0; i < 4; i++ {
					row, col := r+d[0]*i, c+d[1]*i
					if !IsValidCell(row, col) || board[row][col] != player {
						break
					}
					line = append(line, Cell{Row: row, Column: col})
				}
				if len(line) == 4 {
					return line
				}
			}
		}
	}
	return nil
}

// ColumnFull reports whether the top cell of column is taken.
func ColumnFull(board [][]PlayerID, column int) bool {
	if len(board) == 0 || !IsValidColumn(column) {
		return false
	}
	return board[0][column] != Empty
}

package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/iamasit07/4-in-a-row/client/internal/domain"
)

var discs = map[domain.PlayerID]string{
	domain.Empty:   ".",
	domain.Player1: "x",
	domain.Player2: "o",
}

// Render writes a plain-text view of snap. Row 0 is drawn at the top.
func Render(w io.Writer, snap domain.Snapshot) {
	g := snap.Game
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", snap.Connection, g.Status)
	if g.Username != "" {
		fmt.Fprintf(&b, " as %s", g.Username)
	}
	b.WriteString("\n")

	switch g.Status {
	case domain.StatusIdle:
		b.WriteString("type: join <name>\n")
	case domain.StatusWaiting:
		b.WriteString("waiting for an opponent...\n")
	}

	if g.Board != nil {
		fmt.Fprintf(&b, "%s (x) vs %s (o)\n", g.Player1Name, g.Player2Name)
		renderBoard(&b, g)
		b.WriteString(statusLine(g))
		b.WriteString("\n")
	}

	if snap.Error != nil {
		fmt.Fprintf(&b, "! %s\n", snap.Error.Text)
	}

	if len(snap.Leaderboard) > 0 {
		b.WriteString("leaderboard:\n")
		for _, e := range snap.Leaderboard {
			fmt.Fprintf(&b, "  #%-2d %-20s wins %-3d games %d\n", e.Rank, e.Username, e.Wins, e.Games())
		}
	}

	io.WriteString(w, b.String())
}

func renderBoard(b *strings.Builder, g domain.GameState) {
	winning := map[domain.Cell]bool{}
	if g.Status == domain.StatusFinished {
		for _, c := range domain.WinningLine(g.Board, winnerSeat(g)) {
			winning[c] = true
		}
	}

	b.WriteString(" ")
	for c := 0; c < domain.Columns; c++ {
		if domain.ColumnFull(g.Board, c) {
			b.WriteString(" -")
		} else {
			fmt.Fprintf(b, " %d", c+1)
		}
	}
	b.WriteString("\n")

	for r, row := range g.Board {
		b.WriteString(" |")
		for c, cell := range row {
			disc := discs[cell]
			if winning[domain.Cell{Row: r, Column: c}] {
				disc = strings.ToUpper(disc)
			}
			b.WriteString(disc)
			if c < len(row)-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString("|\n")
	}
	b.WriteString(" +" + strings.Repeat("-", domain.Columns*2-1) + "+\n")
}

func winnerSeat(g domain.GameState) domain.PlayerID {
	switch g.Winner {
	case "":
		return domain.Empty
	case g.Player1Name:
		return domain.Player1
	case g.Player2Name:
		return domain.Player2
	}
	return domain.Empty
}

func statusLine(g domain.GameState) string {
	switch g.Status {
	case domain.StatusFinished:
		line := "game over: " + g.Winner + " wins"
		if g.IsDraw() {
			line = "game over: draw"
		}
		if g.EndReason != "" {
			line += " (" + g.EndReason + ")"
		}
		return line + ". type: new"
	case domain.StatusPlaying:
		if g.IsLocalPlayersTurn() {
			return "your turn. type: move <1-7>"
		}
		return "opponent's turn"
	}
	return ""
}

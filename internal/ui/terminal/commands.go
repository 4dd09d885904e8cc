package terminal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type CommandKind int

const (
	CommandJoin CommandKind = iota + 1
	CommandMove
	CommandNewGame
	CommandBoard
	CommandHelp
	CommandQuit
)

// Command is one parsed line of user input.
type Command struct {
	Kind     CommandKind
	Username string
	// Column is 0-based; users type 1-7.
	Column int
}

var ErrEmptyCommand = errors.New("empty command")

const helpText = `commands:
  join <name>   enter matchmaking
  move <1-7>    drop a disc (a bare number works too)
  new           leave the finished game
  board         redraw
  quit          exit
`

// ParseCommand turns a line into a Command. The column is converted from
// the 1-based number shown on screen to the 0-based index the server uses.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}

	verb := strings.ToLower(fields[0])
	switch verb {
	case "join", "j":
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		return Command{Kind: CommandJoin, Username: name}, nil
	case "move", "m":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: move <1-7>")
		}
		return parseMove(fields[1])
	case "new", "n":
		return Command{Kind: CommandNewGame}, nil
	case "board", "b":
		return Command{Kind: CommandBoard}, nil
	case "help", "h", "?":
		return Command{Kind: CommandHelp}, nil
	case "quit", "q", "exit":
		return Command{Kind: CommandQuit}, nil
	}

	if len(fields) == 1 {
		if cmd, err := parseMove(verb); err == nil {
			return cmd, nil
		}
	}
	return Command{}, fmt.Errorf("unknown command %q, type help", fields[0])
}

func parseMove(s string) (Command, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return Command{}, fmt.Errorf("column must be a number: %q", s)
	}
	return Command{Kind: CommandMove, Column: n - 1}, nil
}

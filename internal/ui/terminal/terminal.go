package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/iamasit07/4-in-a-row/client/internal/domain"
	"github.com/iamasit07/4-in-a-row/client/internal/logger"
)

// ErrQuit is returned by Run when the user asks to exit.
var ErrQuit = errors.New("quit requested")

type Controller interface {
	Join(ctx context.Context, username string) error
	Move(ctx context.Context, column int) error
	NewGame(ctx context.Context) error
	Snapshot() domain.Snapshot
}

// UI reads commands from in and redraws on out whenever a new snapshot
// arrives. All writes to out happen on the Run goroutine.
type UI struct {
	in      io.Reader
	out     io.Writer
	ctrl    Controller
	updates <-chan domain.Snapshot
	log     zerolog.Logger
}

func New(in io.Reader, out io.Writer, ctrl Controller, updates <-chan domain.Snapshot) *UI {
	return &UI{
		in:      in,
		out:     out,
		ctrl:    ctrl,
		updates: updates,
		log:     logger.For("terminal"),
	}
}

// Run blocks until ctx is cancelled or the user quits. End of input stops
// command reading but keeps the view updating, so the client can still be
// driven through the control API.
func (u *UI) Run(ctx context.Context) error {
	lines := make(chan string)
	go u.scan(ctx, lines)

	Render(u.out, u.ctrl.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return nil

		case snap := <-u.updates:
			Render(u.out, snap)

		case line, ok := <-lines:
			if !ok {
				u.log.Debug().Msg("input closed")
				lines = nil
				continue
			}
			if err := u.execute(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return err
				}
				fmt.Fprintf(u.out, "! %v\n", err)
			}
		}
	}
}

func (u *UI) scan(ctx context.Context, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(u.in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		u.log.Warn().Err(err).Msg("failed to read input")
	}
}

func (u *UI) execute(ctx context.Context, line string) error {
	cmd, err := ParseCommand(line)
	if errors.Is(err, ErrEmptyCommand) {
		return nil
	}
	if err != nil {
		return err
	}

	switch cmd.Kind {
	case CommandJoin:
		return u.ctrl.Join(ctx, cmd.Username)
	case CommandMove:
		return u.ctrl.Move(ctx, cmd.Column)
	case CommandNewGame:
		return u.ctrl.NewGame(ctx)
	case CommandBoard:
		Render(u.out, u.ctrl.Snapshot())
	case CommandHelp:
		io.WriteString(u.out, helpText)
	case CommandQuit:
		return ErrQuit
	}
	return nil
}

// Package bridge exposes a turn engine to front ends: a command dispatcher
// shared by every surface and a websocket hub that streams snapshots and
// cues to browsers.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/selection"
	"github.com/park285/cheese-board/internal/turn"
	"github.com/park285/cheese-board/pkg/boarddto"
)

// Game is the part of *turn.Engine the front ends drive.
type Game interface {
	Start(ctx context.Context, side board.Color) error
	Rematch(ctx context.Context) error
	RequestMove(ctx context.Context, from, to board.Square) error
	Pick(sq board.Square) selection.Event
	DragStart(sq board.Square) selection.Event
	Drop(sq board.Square) selection.Event
	RetryReply() bool
	Snapshot() turn.Snapshot
	Subscribe() (<-chan turn.Snapshot, func())
}

var _ Game = (*turn.Engine)(nil)

var ErrUnknownCommand = errors.New("unknown command")

// Dispatch applies one command. Gesture commands return the selection event
// they produced; other commands return selection.Ignored.
func Dispatch(ctx context.Context, g Game, cmd boarddto.Command) (selection.Event, error) {
	switch strings.ToLower(strings.TrimSpace(cmd.Type)) {
	case boarddto.CommandStart:
		side := board.White
		if cmd.Side != "" {
			c, ok := board.ParseColor(cmd.Side)
			if !ok {
				return selection.Ignored, fmt.Errorf("%w: %q", turn.ErrInvalidSide, cmd.Side)
			}
			side = c
		}
		return selection.Ignored, g.Start(ctx, side)
	case boarddto.CommandRematch:
		return selection.Ignored, g.Rematch(ctx)
	case boarddto.CommandPick, boarddto.CommandDrag, boarddto.CommandDrop:
		sq, err := parseSquare(cmd.Square)
		if err != nil {
			return selection.Ignored, err
		}
		switch strings.ToLower(cmd.Type) {
		case boarddto.CommandPick:
			return g.Pick(sq), nil
		case boarddto.CommandDrag:
			return g.DragStart(sq), nil
		default:
			return g.Drop(sq), nil
		}
	case boarddto.CommandMove:
		from, to, err := parseMove(cmd)
		if err != nil {
			return selection.Ignored, err
		}
		return selection.Ignored, g.RequestMove(ctx, from, to)
	case boarddto.CommandRetry:
		g.RetryReply()
		return selection.Ignored, nil
	case boarddto.CommandState:
		return selection.Ignored, nil
	default:
		return selection.Ignored, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
}

func parseSquare(name string) (board.Square, error) {
	sq, err := board.ParseSquare(name)
	if err != nil {
		return board.NoSquare, fmt.Errorf("%w: %q", turn.ErrInvalidSquare, name)
	}
	return sq, nil
}

// parseMove accepts either From/To or a single token in Square ("e2e4").
func parseMove(cmd boarddto.Command) (board.Square, board.Square, error) {
	if cmd.From == "" && cmd.To == "" {
		from, to, _, err := board.ParseMoveToken(cmd.Square)
		if err != nil {
			return board.NoSquare, board.NoSquare, fmt.Errorf("%w: %q", turn.ErrInvalidSquare, cmd.Square)
		}
		return from, to, nil
	}
	from, err := parseSquare(cmd.From)
	if err != nil {
		return board.NoSquare, board.NoSquare, err
	}
	to, err := parseSquare(cmd.To)
	if err != nil {
		return board.NoSquare, board.NoSquare, err
	}
	return from, to, nil
}

// Package rules defines the collaborator that validates moves and supplies
// the automated opponent's reply. Remote (HTTP) and local (in-process)
// implementations live in their own packages.
package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/gameover"
)

// MoveResult is the board after an accepted human move.
// HasStatus is set when the collaborator already knows the game status.
type MoveResult struct {
	Board     board.Board
	Check     bool
	Status    gameover.Status
	HasStatus bool
}

// Reply is the automated opponent's move and the resulting board.
type Reply struct {
	Move      string
	Board     board.Board
	Check     bool
	Status    gameover.Status
	HasStatus bool
}

type Collaborator interface {
	// Reset returns the collaborator to the initial position.
	Reset(ctx context.Context) error
	// Apply validates and plays a move token such as "e2e4".
	Apply(ctx context.Context, move string) (MoveResult, error)
	// Reply plays the automated opponent's move in the current position.
	Reply(ctx context.Context) (Reply, error)
	// Status reports the terminal status of the current position.
	Status(ctx context.Context) (gameover.Status, error)
}

// Replayer rebuilds a position from a move list, used to resume a session.
type Replayer interface {
	Replay(ctx context.Context, moves []string) (board.Board, error)
}

// SuggestRequest describes the position to search from.
type SuggestRequest struct {
	FEN   string
	Moves []string
}

// Suggester proposes a move for the side to move.
type Suggester interface {
	Suggest(ctx context.Context, req SuggestRequest) (string, error)
}

// ErrIllegalMove matches any IllegalMoveError via errors.Is.
var ErrIllegalMove = errors.New("illegal move")

// IllegalMoveError is a rejection by the rules collaborator.
type IllegalMoveError struct {
	Move   string
	Reason string
}

func (e *IllegalMoveError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("illegal move %s", e.Move)
	}
	return fmt.Sprintf("illegal move %s: %s", e.Move, e.Reason)
}

func (e *IllegalMoveError) Is(target error) bool { return target == ErrIllegalMove }

// NetworkError wraps a transport or server failure for Op.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

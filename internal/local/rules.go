// Package local is an in-process rules collaborator backed by
// corentings/chess. Replies come from an injected Suggester (a local UCI
// engine or the remote /analyze service).
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/gameover"
	"github.com/park285/cheese-board/internal/rules"
)

var (
	_ rules.Collaborator = (*Rules)(nil)
	_ rules.Replayer     = (*Rules)(nil)
)

// ErrPositionChanged is returned when the game moved on while a reply was
// being searched.
var ErrPositionChanged = errors.New("position changed during reply search")

type Rules struct {
	mu        sync.Mutex
	game      *nchess.Game
	moves     []string
	suggester rules.Suggester
	logger    *zap.Logger
}

func New(suggester rules.Suggester, logger *zap.Logger) (*Rules, error) {
	if suggester == nil {
		return nil, errors.New("local rules: suggester is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rules{game: nchess.NewGame(), suggester: suggester, logger: logger}, nil
}

func (r *Rules) Reset(ctx context.Context) error {
	r.mu.Lock()
	r.game = nchess.NewGame()
	r.moves = nil
	r.mu.Unlock()
	return nil
}

func (r *Rules) Apply(ctx context.Context, move string) (rules.MoveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	check, err := r.pushLocked(move)
	if err != nil {
		return rules.MoveResult{}, &rules.IllegalMoveError{Move: move, Reason: err.Error()}
	}
	return rules.MoveResult{Board: boardOf(r.game.Position()), Check: check, Status: statusOf(r.game), HasStatus: true}, nil
}

// Reply searches outside the lock and applies the result only if no move
// was made meanwhile.
func (r *Rules) Reply(ctx context.Context) (rules.Reply, error) {
	r.mu.Lock()
	if statusOf(r.game) != gameover.None {
		r.mu.Unlock()
		return rules.Reply{}, errors.New("local rules: game is over")
	}
	req := rules.SuggestRequest{FEN: r.game.FEN(), Moves: append([]string(nil), r.moves...)}
	ply := len(r.moves)
	r.mu.Unlock()

	mv, err := r.suggester.Suggest(ctx, req)
	if err != nil {
		return rules.Reply{}, &rules.NetworkError{Op: "suggest", Err: err}
	}
	mv = strings.ToLower(strings.TrimSpace(mv))

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.moves) != ply {
		return rules.Reply{}, ErrPositionChanged
	}
	check, err := r.pushLocked(mv)
	if err != nil {
		return rules.Reply{}, fmt.Errorf("suggested move %q rejected: %w", mv, err)
	}
	r.logger.Debug("local_reply", zap.String("move", mv), zap.Int("ply", len(r.moves)))
	return rules.Reply{Move: mv, Board: boardOf(r.game.Position()), Check: check, Status: statusOf(r.game), HasStatus: true}, nil
}

func (r *Rules) Status(ctx context.Context) (gameover.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return statusOf(r.game), nil
}

// Replay rebuilds the game from UCI moves.
func (r *Rules) Replay(ctx context.Context, moves []string) (board.Board, error) {
	game := nchess.NewGame()
	for i, mv := range moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return board.Board{}, fmt.Errorf("replay move %d (%s): %w", i+1, mv, err)
		}
	}
	b := boardOf(game.Position())
	r.mu.Lock()
	r.game = game
	r.moves = append([]string(nil), moves...)
	r.mu.Unlock()
	return b, nil
}

// FEN returns the current position.
func (r *Rules) FEN() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.FEN()
}

func (r *Rules) pushLocked(move string) (bool, error) {
	if err := r.game.PushNotationMove(move, nchess.UCINotation{}, nil); err != nil {
		return false, err
	}
	r.moves = append(r.moves, move)
	played := r.game.Moves()
	if len(played) == 0 {
		return false, nil
	}
	return played[len(played)-1].HasTag(nchess.Check), nil
}

func statusOf(g *nchess.Game) gameover.Status {
	switch g.Outcome() {
	case nchess.NoOutcome:
		return gameover.None
	case nchess.WhiteWon, nchess.BlackWon:
		if g.Method() == nchess.Checkmate {
			return gameover.Checkmate
		}
		return gameover.None
	default:
		return gameover.Draw
	}
}

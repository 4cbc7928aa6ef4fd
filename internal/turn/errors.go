package turn

import (
	"errors"
	"fmt"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/rules"
)

var (
	ErrGameOver      = errors.New("game is over")
	ErrMoveInFlight  = errors.New("a move is already in flight")
	ErrSettling      = errors.New("last move is still settling")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrNotYourPiece  = errors.New("origin square does not hold your piece")
	ErrNoMatch       = errors.New("no active match")
	ErrInvalidSquare = errors.New("invalid square")
	ErrInvalidSide   = errors.New("side must be w or b")
	ErrNoReplayer    = errors.New("rules backend cannot replay moves")
	ErrClosed        = errors.New("engine closed")
)

// StaleResponseError marks a settlement that belongs to a superseded game.
type StaleResponseError struct {
	Op         string
	Generation uint64
	Current    uint64
}

func (e *StaleResponseError) Error() string {
	return fmt.Sprintf("stale %s response: generation %d, current %d", e.Op, e.Generation, e.Current)
}

// Notice codes rendered by the message catalog under "notice.<code>".
const (
	NoticeIllegalMove  = "illegal_move"
	NoticeNetwork      = "network_error"
	NoticeMalformed    = "malformed_board"
	NoticeGameOver     = "game_over"
	NoticeNotYourTurn  = "not_your_turn"
	NoticeNotYourPiece = "not_your_piece"
	NoticeInFlight     = "move_in_flight"
	NoticeNoMatch      = "no_match"
	NoticeReplyFailed  = "reply_failed"
	NoticeResetFailed  = "reset_failed"
	NoticeStatusFailed = "status_failed"
	NoticeInvalidInput = "invalid_input"
	NoticeInternal     = "internal_error"
)

// Notice is a user-visible outcome of a rejected or failed action.
type Notice struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func (n Notice) IsZero() bool { return n.Code == "" }

// NoticeFor maps an error to the notice shown to the user.
func NoticeFor(err error) Notice {
	var ie *rules.IllegalMoveError
	switch {
	case err == nil:
		return Notice{}
	case errors.As(err, &ie):
		return Notice{Code: NoticeIllegalMove, Detail: ie.Move}
	case errors.Is(err, board.ErrMalformedBoard):
		return Notice{Code: NoticeMalformed, Detail: err.Error()}
	case rules.IsNetwork(err):
		return Notice{Code: NoticeNetwork, Detail: err.Error()}
	case errors.Is(err, ErrGameOver):
		return Notice{Code: NoticeGameOver}
	case errors.Is(err, ErrNotYourTurn):
		return Notice{Code: NoticeNotYourTurn}
	case errors.Is(err, ErrNotYourPiece):
		return Notice{Code: NoticeNotYourPiece}
	case errors.Is(err, ErrMoveInFlight), errors.Is(err, ErrSettling):
		return Notice{Code: NoticeInFlight}
	case errors.Is(err, ErrNoMatch):
		return Notice{Code: NoticeNoMatch}
	case errors.Is(err, ErrInvalidSquare), errors.Is(err, ErrInvalidSide):
		return Notice{Code: NoticeInvalidInput, Detail: err.Error()}
	default:
		return Notice{Code: NoticeInternal, Detail: err.Error()}
	}
}

package turn

import (
	"fmt"
	"time"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/feedback"
	"github.com/park285/cheese-board/internal/gameover"
	"github.com/park285/cheese-board/internal/selection"
	"github.com/park285/cheese-board/pkg/boarddto"
)

// Phase is the per-match lifecycle.
type Phase int

const (
	NotStarted Phase = iota
	InProgress
	Checkmate
	Draw
)

func (p Phase) String() string {
	switch p {
	case InProgress:
		return "in_progress"
	case Checkmate:
		return "checkmate"
	case Draw:
		return "draw"
	default:
		return "not_started"
	}
}

// Snapshot is a copy of the engine state at one instant.
type Snapshot struct {
	SessionID     string
	Generation    uint64
	Board         board.Board
	Side          board.Color
	Game          board.Color
	LastGame      board.Color
	Status        gameover.Status
	Selection     selection.Phase
	From          board.Square
	To            board.Square
	MoveInFlight  bool
	ReplyInFlight bool
	ReplyFailed   bool
	Settling      bool
	Moves         []string
	LastMove      string
	Cue           feedback.Cue
	Notice        Notice
	UpdatedAt     time.Time
}

func (s Snapshot) Phase() Phase {
	switch {
	case s.Status == gameover.Checkmate:
		return Checkmate
	case s.Status == gameover.Draw:
		return Draw
	case s.Game.Valid():
		return InProgress
	default:
		return NotStarted
	}
}

// ToDTO converts to the wire form. message renders a notice; it may be nil.
func (s Snapshot) ToDTO(message func(Notice) string) boarddto.Snapshot {
	dto := boarddto.Snapshot{
		SessionID:     s.SessionID,
		Generation:    s.Generation,
		Board:         board.Encode(s.Board),
		Side:          s.Side.String(),
		Game:          s.Game.String(),
		LastGame:      s.LastGame.String(),
		Status:        s.Status.String(),
		Phase:         s.Phase().String(),
		From:          board.SquareName(s.From),
		To:            board.SquareName(s.To),
		MoveInFlight:  s.MoveInFlight,
		ReplyInFlight: s.ReplyInFlight,
		ReplyFailed:   s.ReplyFailed,
		Settling:      s.Settling,
		Moves:         append([]string{}, s.Moves...),
		LastMove:      s.LastMove,
		Cue:           string(s.Cue),
		UpdatedAt:     s.UpdatedAt,
	}
	if !s.Notice.IsZero() {
		n := &boarddto.Notice{Code: s.Notice.Code, Detail: s.Notice.Detail}
		if message != nil {
			n.Message = message(s.Notice)
		}
		dto.Notice = n
	}
	return dto
}

// SnapshotFromDTO restores the persisted parts of a snapshot: board, sides,
// status and moves. Transient flags are dropped.
func SnapshotFromDTO(dto boarddto.Snapshot) (Snapshot, error) {
	b, err := board.Decode(dto.Board)
	if err != nil {
		return Snapshot{}, err
	}
	st, err := gameover.Parse(dto.Status)
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{
		SessionID:  dto.SessionID,
		Generation: dto.Generation,
		Board:      b,
		Status:     st,
		From:       board.NoSquare,
		To:         board.NoSquare,
		Moves:      append([]string(nil), dto.Moves...),
		LastMove:   dto.LastMove,
		UpdatedAt:  dto.UpdatedAt,
	}
	var ok bool
	if s.Side, ok = board.ParseColor(dto.Side); !ok {
		return Snapshot{}, fmt.Errorf("invalid side %q", dto.Side)
	}
	if dto.Game != "" {
		if s.Game, ok = board.ParseColor(dto.Game); !ok {
			return Snapshot{}, fmt.Errorf("invalid game side %q", dto.Game)
		}
	}
	if dto.LastGame != "" {
		s.LastGame, _ = board.ParseColor(dto.LastGame)
	}
	return s, nil
}

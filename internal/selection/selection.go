// Package selection tracks the two-phase origin/destination gesture made by
// clicks or drags. It holds no board or network state of its own.
package selection

import "github.com/park285/cheese-board/internal/board"

type Phase int

const (
	Idle Phase = iota
	OriginPicked
	Complete
)

func (p Phase) String() string {
	switch p {
	case OriginPicked:
		return "origin_picked"
	case Complete:
		return "complete"
	default:
		return "idle"
	}
}

// Event describes what a gesture did to the selection.
type Event int

const (
	Ignored Event = iota
	Anchored
	Reanchored
	Cancelled
	Completed
)

func (e Event) String() string {
	switch e {
	case Anchored:
		return "anchored"
	case Reanchored:
		return "reanchored"
	case Cancelled:
		return "cancelled"
	case Completed:
		return "completed"
	default:
		return "ignored"
	}
}

// Selection is the in-progress gesture. The zero value is Idle.
// A destination is only ever set together with an origin.
type Selection struct {
	from    board.Square
	to      board.Square
	hasFrom bool
	hasTo   bool
}

func (s *Selection) Phase() Phase {
	switch {
	case s.hasFrom && s.hasTo:
		return Complete
	case s.hasFrom:
		return OriginPicked
	default:
		return Idle
	}
}

// From returns the origin, or board.NoSquare.
func (s *Selection) From() board.Square {
	if !s.hasFrom {
		return board.NoSquare
	}
	return s.from
}

// To returns the destination, or board.NoSquare.
func (s *Selection) To() board.Square {
	if !s.hasTo {
		return board.NoSquare
	}
	return s.to
}

// Pair returns the completed origin/destination pair.
func (s *Selection) Pair() (from, to board.Square, ok bool) {
	if !s.hasFrom || !s.hasTo {
		return board.NoSquare, board.NoSquare, false
	}
	return s.from, s.to, true
}

func (s *Selection) Clear() { *s = Selection{} }

// Pick handles a click on sq.
func (s *Selection) Pick(b *board.Board, sq board.Square, side board.Color) Event {
	if !sq.Valid() {
		return Ignored
	}
	switch s.Phase() {
	case Idle:
		if !ownPiece(b, sq, side) {
			return Ignored
		}
		s.from, s.hasFrom = sq, true
		return Anchored
	case OriginPicked:
		if sq == s.from {
			s.Clear()
			return Cancelled
		}
		origin := b.At(s.from)
		target := b.At(sq)
		if !target.IsEmpty() && target.Color == origin.Color {
			s.from = sq
			return Reanchored
		}
		s.to, s.hasTo = sq, true
		return Completed
	default:
		return Ignored
	}
}

// DragStart begins a drag from sq. Only the colour guard applies; an existing
// origin is replaced. A completed pair is left alone until consumed.
func (s *Selection) DragStart(b *board.Board, sq board.Square, side board.Color) Event {
	if !sq.Valid() || s.Phase() == Complete {
		return Ignored
	}
	if !ownPiece(b, sq, side) {
		return Ignored
	}
	s.from, s.hasFrom = sq, true
	s.hasTo = false
	return Anchored
}

// Drop ends a drag on sq. Without an origin it does nothing; dropping back on
// the origin cancels.
func (s *Selection) Drop(sq board.Square) Event {
	if s.Phase() != OriginPicked || !sq.Valid() {
		return Ignored
	}
	if sq == s.from {
		s.Clear()
		return Cancelled
	}
	s.to, s.hasTo = sq, true
	return Completed
}

// Set installs a complete pair directly, used for programmatic moves.
func (s *Selection) Set(from, to board.Square) {
	s.from, s.to = from, to
	s.hasFrom, s.hasTo = true, true
}

func ownPiece(b *board.Board, sq board.Square, side board.Color) bool {
	p := b.At(sq)
	return !p.IsEmpty() && p.Color == side
}

package selection

import (
	"testing"

	"github.com/park285/cheese-board/internal/board"
)

var (
	e2 = board.Square{Rank: 6, File: 4}
	e4 = board.Square{Rank: 4, File: 4}
	d2 = board.Square{Rank: 6, File: 3}
	e7 = board.Square{Rank: 1, File: 4}
)

func TestPickIgnoresEmptyAndOpponent(t *testing.T) {
	b := board.Initial()
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			var s Selection
			sq := board.Square{Rank: r, File: f}
			ev := s.Pick(&b, sq, board.White)
			own := !b.At(sq).IsEmpty() && b.At(sq).Color == board.White
			if own && ev != Anchored {
				t.Fatalf("%s: expected anchor, got %s", board.SquareName(sq), ev)
			}
			if !own && (ev != Ignored || s.Phase() != Idle) {
				t.Fatalf("%s: expected no-op, got %s", board.SquareName(sq), ev)
			}
		}
	}
}

func TestPickSameSquareCancels(t *testing.T) {
	b := board.Initial()
	var s Selection
	s.Pick(&b, e2, board.White)
	if ev := s.Pick(&b, e2, board.White); ev != Cancelled {
		t.Fatalf("expected cancel, got %s", ev)
	}
	if s.Phase() != Idle || s.From() != board.NoSquare || s.To() != board.NoSquare {
		t.Fatalf("expected idle with no squares, got %s", s.Phase())
	}
}

func TestPickReanchorAndComplete(t *testing.T) {
	b := board.Initial()
	var s Selection
	s.Pick(&b, e2, board.White)
	if ev := s.Pick(&b, d2, board.White); ev != Reanchored || s.From() != d2 {
		t.Fatalf("expected reanchor on d2, got %s from=%v", ev, s.From())
	}
	if ev := s.Pick(&b, e4, board.White); ev != Completed {
		t.Fatalf("expected completion, got %s", ev)
	}
	from, to, ok := s.Pair()
	if !ok || from != d2 || to != e4 {
		t.Fatalf("pair: %v %v %v", from, to, ok)
	}
	if ev := s.Pick(&b, e2, board.White); ev != Ignored {
		t.Fatalf("complete pair must ignore picks, got %s", ev)
	}
}

func TestPickOpponentPieceCompletes(t *testing.T) {
	b := board.Initial()
	var s Selection
	s.Pick(&b, e2, board.White)
	if ev := s.Pick(&b, e7, board.White); ev != Completed {
		t.Fatalf("opponent piece should be a destination, got %s", ev)
	}
}

func TestDragAndDrop(t *testing.T) {
	b := board.Initial()
	var s Selection
	if ev := s.Drop(e4); ev != Ignored || s.Phase() != Idle {
		t.Fatalf("drop without origin must be a no-op")
	}
	if ev := s.DragStart(&b, e7, board.White); ev != Ignored {
		t.Fatalf("drag of opponent piece must be ignored")
	}
	if ev := s.DragStart(&b, e2, board.White); ev != Anchored {
		t.Fatalf("expected drag anchor, got %s", ev)
	}
	if ev := s.DragStart(&b, d2, board.White); ev != Anchored || s.From() != d2 {
		t.Fatalf("drag restarts unconditionally")
	}
	if ev := s.Drop(e4); ev != Completed {
		t.Fatalf("expected completion, got %s", ev)
	}
	if _, _, ok := s.Pair(); !ok {
		t.Fatalf("expected complete pair")
	}
	s.Clear()
	if s.Phase() != Idle {
		t.Fatalf("clear should reset")
	}
}

func TestDropOnOriginCancels(t *testing.T) {
	b := board.Initial()
	var s Selection
	s.DragStart(&b, e2, board.White)
	if ev := s.Drop(e2); ev != Cancelled || s.Phase() != Idle {
		t.Fatalf("expected cancel, got %s", ev)
	}
}

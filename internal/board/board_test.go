package board

import (
	"errors"
	"strings"
	"testing"
)

const initialRank8First = "rnbqkbnrpppppppp................................PPPPPPPPRNBQKBNR"

func TestDecodeInitialPosition(t *testing.T) {
	b, err := Decode(initialRank8First)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := b[0][0]; got != (Piece{Type: Rook, Color: Black}) {
		t.Fatalf("a8: got %+v", got)
	}
	if got := b[7][4]; got != (Piece{Type: King, Color: White}) {
		t.Fatalf("e1: got %+v", got)
	}
	for r := 2; r <= 5; r++ {
		for f := 0; f < 8; f++ {
			if !b[r][f].IsEmpty() {
				t.Fatalf("rank %d file %d should be empty", r, f)
			}
		}
	}
	if b != Initial() {
		t.Fatalf("decoded board differs from Initial()")
	}
}

func TestRank1FirstLayout(t *testing.T) {
	c := Codec{Layout: LayoutRank1First}
	wire := "RNBQKBNRPPPPPPPP................................pppppppprnbqkbnr"
	b, err := c.Decode(wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b != Initial() {
		t.Fatalf("a1-first decode mismatch:\n%s", b)
	}
	if got := c.Encode(b); got != wire {
		t.Fatalf("Encode: got %s", got)
	}
	// last 8 characters form rank index 0
	if got := b[0][7]; got != (Piece{Type: Rook, Color: Black}) {
		t.Fatalf("h8: got %+v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	b := Initial()
	b.Set(Square{Rank: 6, File: 4}, Empty)
	b.Set(Square{Rank: 4, File: 4}, Piece{Type: Pawn, Color: White})
	for _, c := range []Codec{{LayoutRank8First}, {LayoutRank1First}} {
		got, err := c.Decode(c.Encode(b))
		if err != nil {
			t.Fatalf("%s: %v", c.Layout, err)
		}
		if got != b {
			t.Fatalf("%s: round trip mismatch", c.Layout)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		initialRank8First[:63],
		initialRank8First + ".",
		strings.Replace(initialRank8First, "k", "x", 1),
		strings.Replace(initialRank8First, ".", " ", 1),
	}
	for _, in := range cases {
		_, err := Decode(in)
		if err == nil {
			t.Fatalf("expected error for %q", in)
		}
		if !errors.Is(err, ErrMalformedBoard) {
			t.Fatalf("expected ErrMalformedBoard, got %v", err)
		}
		var me *MalformedBoardError
		if !errors.As(err, &me) {
			t.Fatalf("expected *MalformedBoardError, got %T", err)
		}
	}
}

func TestColorOpponent(t *testing.T) {
	if White.Opponent() != Black || Black.Opponent() != White || NoColor.Opponent() != NoColor {
		t.Fatalf("opponent mapping broken")
	}
}

func TestAtOnReturnedBoard(t *testing.T) {
	if p := Initial().At(Square{Rank: 0, File: 4}); p != (Piece{Type: King, Color: Black}) {
		t.Fatalf("e8 = %+v", p)
	}
	if n := Initial().Count(); n != 32 {
		t.Fatalf("count %d", n)
	}
}

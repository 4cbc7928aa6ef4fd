package board

import (
	"fmt"
	"strings"
)

// SquareName renders a square in algebraic form, e.g. (6,4) -> "e2".
func SquareName(sq Square) string {
	if !sq.Valid() {
		return ""
	}
	return string([]byte{byte('a' + sq.File), byte('0' + 8 - sq.Rank)})
}

// ParseSquare is the inverse of SquareName.
func ParseSquare(name string) (Square, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) != 2 {
		return NoSquare, fmt.Errorf("invalid square %q", name)
	}
	f := int(name[0]) - 'a'
	n := int(name[1]) - '0'
	sq := Square{Rank: 8 - n, File: f}
	if !sq.Valid() || n < 1 || n > 8 {
		return NoSquare, fmt.Errorf("invalid square %q", name)
	}
	return sq, nil
}

// PromotionFor returns Queen when a pawn of the mover's colour reaches its
// last rank, otherwise NoPieceType. Underpromotion is not offered.
func PromotionFor(p Piece, to Square) PieceType {
	if p.Type != Pawn {
		return NoPieceType
	}
	if (p.Color == White && to.Rank == 0) || (p.Color == Black && to.Rank == 7) {
		return Queen
	}
	return NoPieceType
}

// MoveToken builds the wire move, e.g. "e2e4" or "e7e8q".
func MoveToken(from, to Square, promo PieceType) string {
	tok := SquareName(from) + SquareName(to)
	if promo != NoPieceType {
		tok += string(rune(promo))
	}
	return tok
}

// ParseMoveToken splits a 4- or 5-character move token.
func ParseMoveToken(tok string) (from, to Square, promo PieceType, err error) {
	tok = strings.ToLower(strings.TrimSpace(tok))
	if len(tok) != 4 && len(tok) != 5 {
		return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid move token %q", tok)
	}
	if from, err = ParseSquare(tok[0:2]); err != nil {
		return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid move token %q: %w", tok, err)
	}
	if to, err = ParseSquare(tok[2:4]); err != nil {
		return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid move token %q: %w", tok, err)
	}
	if len(tok) == 5 {
		switch PieceType(tok[4]) {
		case Queen, Rook, Bishop, Knight:
			promo = PieceType(tok[4])
		default:
			return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid promotion in %q", tok)
		}
	}
	return from, to, promo, nil
}

// SquareFromReply returns the destination square of an engine reply token.
func SquareFromReply(tok string) (Square, error) {
	_, to, _, err := ParseMoveToken(tok)
	return to, err
}

package board

// Color is the side a piece belongs to. NoColor doubles as "no active match".
type Color byte

const (
	NoColor Color = 0
	White   Color = 'w'
	Black   Color = 'b'
)

// Opponent returns the other side. NoColor has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

func (c Color) Valid() bool { return c == White || c == Black }

func (c Color) String() string {
	if !c.Valid() {
		return ""
	}
	return string(rune(c))
}

// ParseColor accepts "w"/"white" and "b"/"black" (case-insensitive).
func ParseColor(s string) (Color, bool) {
	switch s {
	case "w", "W", "white", "White", "WHITE":
		return White, true
	case "b", "B", "black", "Black", "BLACK":
		return Black, true
	}
	return NoColor, false
}

// PieceType is the lowercase piece letter.
type PieceType byte

const (
	NoPieceType PieceType = 0
	Pawn        PieceType = 'p'
	Knight      PieceType = 'n'
	Bishop      PieceType = 'b'
	Rook        PieceType = 'r'
	Queen       PieceType = 'q'
	King        PieceType = 'k'
)

type Piece struct {
	Type  PieceType
	Color Color
}

// Empty is the zero Piece.
var Empty = Piece{}

func (p Piece) IsEmpty() bool { return p.Type == NoPieceType }

// Letter returns the codec character: uppercase for white, lowercase for black, '.' when empty.
func (p Piece) Letter() byte {
	if p.IsEmpty() {
		return '.'
	}
	if p.Color == White {
		return byte(p.Type) - 'a' + 'A'
	}
	return byte(p.Type)
}

// PieceFromLetter is the inverse of Letter.
func PieceFromLetter(ch byte) (Piece, bool) {
	switch ch {
	case '.':
		return Empty, true
	case 'p', 'n', 'b', 'r', 'q', 'k':
		return Piece{Type: PieceType(ch), Color: Black}, true
	case 'P', 'N', 'B', 'R', 'Q', 'K':
		return Piece{Type: PieceType(ch - 'A' + 'a'), Color: White}, true
	}
	return Empty, false
}

// Square addresses a cell. Rank 0 is algebraic rank "8", file 0 is "a".
type Square struct {
	Rank int
	File int
}

// NoSquare marks an unset selection slot.
var NoSquare = Square{Rank: -1, File: -1}

func (s Square) Valid() bool {
	return s.Rank >= 0 && s.Rank < 8 && s.File >= 0 && s.File < 8
}

// Board is an 8x8 grid indexed [rank][file]. It is a value type: assigning a
// Board copies it.
type Board [8][8]Piece

func (b Board) At(sq Square) Piece {
	if !sq.Valid() {
		return Empty
	}
	return b[sq.Rank][sq.File]
}

func (b *Board) Set(sq Square, p Piece) {
	if sq.Valid() {
		b[sq.Rank][sq.File] = p
	}
}

// Count returns the number of non-empty squares.
func (b Board) Count() int {
	n := 0
	for r := range b {
		for f := range b[r] {
			if !b[r][f].IsEmpty() {
				n++
			}
		}
	}
	return n
}

// Initial returns the standard starting position.
func Initial() Board {
	var b Board
	back := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for f := 0; f < 8; f++ {
		b[0][f] = Piece{Type: back[f], Color: Black}
		b[1][f] = Piece{Type: Pawn, Color: Black}
		b[6][f] = Piece{Type: Pawn, Color: White}
		b[7][f] = Piece{Type: back[f], Color: White}
	}
	return b
}

package board

import (
	"errors"
	"fmt"
	"strings"
)

// CompactLen is the length of the compact board string.
const CompactLen = 64

// ErrMalformedBoard matches any MalformedBoardError via errors.Is.
var ErrMalformedBoard = errors.New("malformed board")

// MalformedBoardError reports a compact string that cannot be decoded.
// Index is -1 for length errors.
type MalformedBoardError struct {
	Index  int
	Char   byte
	Length int
}

func (e *MalformedBoardError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed board: length %d, want %d", e.Length, CompactLen)
	}
	return fmt.Sprintf("malformed board: invalid character %q at %d", e.Char, e.Index)
}

func (e *MalformedBoardError) Is(target error) bool { return target == ErrMalformedBoard }

// Layout selects which rank the compact string starts with.
type Layout int

const (
	// LayoutRank8First: the first 8 characters are rank index 0 (a8..h8).
	LayoutRank8First Layout = iota
	// LayoutRank1First: the first 8 characters are a1..h1, so the last 8
	// characters form rank index 0.
	LayoutRank1First
)

// ParseLayout accepts "a8" and "a1" (also "rank8"/"rank1").
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a8", "rank8":
		return LayoutRank8First, nil
	case "a1", "rank1":
		return LayoutRank1First, nil
	}
	return LayoutRank8First, fmt.Errorf("unknown board layout %q", s)
}

func (l Layout) String() string {
	if l == LayoutRank1First {
		return "a1"
	}
	return "a8"
}

// Codec converts between Board and the 64-character wire form.
type Codec struct {
	Layout Layout
}

func (c Codec) square(i int) Square {
	if c.Layout == LayoutRank1First {
		return Square{Rank: 7 - i/8, File: i % 8}
	}
	return Square{Rank: i / 8, File: i % 8}
}

// Decode parses a compact board. On error the returned Board is the zero value.
func (c Codec) Decode(compact string) (Board, error) {
	var b Board
	if len(compact) != CompactLen {
		return Board{}, &MalformedBoardError{Index: -1, Length: len(compact)}
	}
	for i := 0; i < CompactLen; i++ {
		p, ok := PieceFromLetter(compact[i])
		if !ok {
			return Board{}, &MalformedBoardError{Index: i, Char: compact[i], Length: len(compact)}
		}
		b.Set(c.square(i), p)
	}
	return b, nil
}

func (c Codec) Encode(b Board) string {
	buf := make([]byte, CompactLen)
	for i := 0; i < CompactLen; i++ {
		buf[i] = b.At(c.square(i)).Letter()
	}
	return string(buf)
}

var defaultCodec = Codec{Layout: LayoutRank8First}

// Decode uses the rank-8-first layout.
func Decode(compact string) (Board, error) { return defaultCodec.Decode(compact) }

// Encode uses the rank-8-first layout.
func Encode(b Board) string { return defaultCodec.Encode(b) }

// String renders the board as eight lines, rank 8 on top.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			sb.WriteByte(b[r][f].Letter())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

package local

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-board/internal/board"
)

var pieceTypes = map[nchess.PieceType]board.PieceType{
	nchess.Pawn:   board.Pawn,
	nchess.Knight: board.Knight,
	nchess.Bishop: board.Bishop,
	nchess.Rook:   board.Rook,
	nchess.Queen:  board.Queen,
	nchess.King:   board.King,
}

// boardOf converts a position into the client board (rank index 0 is rank 8).
func boardOf(position *nchess.Position) board.Board {
	var out board.Board
	if position == nil {
		return out
	}
	cb := position.Board()
	if cb == nil {
		return out
	}
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := cb.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			color := board.White
			if piece.Color() == nchess.Black {
				color = board.Black
			}
			sq := board.Square{Rank: 7 - int(rank-nchess.Rank1), File: int(file - nchess.FileA)}
			out.Set(sq, board.Piece{Type: pieceTypes[piece.Type()], Color: color})
		}
	}
	return out
}

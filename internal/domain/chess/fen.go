package chess

import (
	"errors"
	"fmt"

	nchess "github.com/notnil/chess"
)

var ErrInvalidFEN = errors.New("invalid FEN")

var (
	toNotnilType = map[PieceType]nchess.PieceType{
		King: nchess.King, Queen: nchess.Queen, Rook: nchess.Rook,
		Bishop: nchess.Bishop, Knight: nchess.Knight, Pawn: nchess.Pawn,
	}
	fromNotnilType = map[nchess.PieceType]PieceType{
		nchess.King: King, nchess.Queen: Queen, nchess.Rook: Rook,
		nchess.Bishop: Bishop, nchess.Knight: Knight, nchess.Pawn: Pawn,
	}
)

func toSquare(p Position) nchess.Square {
	return nchess.NewSquare(nchess.File(p.Col-1), nchess.Rank(p.Row-1))
}

func fromSquare(sq nchess.Square) Position {
	return Pos(int(sq.Rank())+1, int(sq.File())+1)
}

// EncodeFEN serializes the placement and side to move. Castling and en
// passant fields are always "-" and the clocks are reset, since neither
// rule is played.
func EncodeFEN(b *Board, turn Color) string {
	squares := make(map[nchess.Square]nchess.Piece, 32)
	b.Each(func(p Position, pc Piece) {
		c := nchess.White
		if pc.Color == Black {
			c = nchess.Black
		}
		squares[toSquare(p)] = nchess.NewPiece(toNotnilType[pc.Type], c)
	})
	side := "w"
	if turn == Black {
		side = "b"
	}
	return nchess.NewBoard(squares).String() + " " + side + " - - 0 1"
}

// DecodeFEN parses a FEN string. Only placement and side to move are kept.
func DecodeFEN(s string) (*Board, Color, error) {
	opt, err := nchess.FEN(s)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	pos := nchess.NewGame(opt).Position()

	b := &Board{}
	for sq, pc := range pos.Board().SquareMap() {
		c := White
		if pc.Color() == nchess.Black {
			c = Black
		}
		b.Set(fromSquare(sq), NewPiece(c, fromNotnilType[pc.Type()]))
	}
	turn := White
	if pos.Turn() == nchess.Black {
		turn = Black
	}
	return b, turn, nil
}

// FEN encodes the game's board and turn.
func (g *Game) FEN() string { return EncodeFEN(g.board, g.turn) }

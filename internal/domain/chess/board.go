package chess

import "strings"

// Board is an 8x8 grid of optional pieces. It is a plain value: assigning or
// calling Clone copies the whole grid, so a clone never aliases the original.
type Board struct {
	squares [8][8]Piece
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns a board in the standard starting arrangement.
func NewBoard() *Board {
	b := &Board{}
	b.Reset()
	return b
}

// Get returns the piece at p. ok is false for empty or off-board squares.
func (b *Board) Get(p Position) (Piece, bool) {
	if !p.InBounds() {
		return Piece{}, false
	}
	pc := b.squares[p.Row-1][p.Col-1]
	return pc, !pc.IsZero()
}

// Set places pc at p; a zero Piece clears the square. Off-board positions are ignored.
func (b *Board) Set(p Position, pc Piece) {
	if !p.InBounds() {
		return
	}
	b.squares[p.Row-1][p.Col-1] = pc
}

// Clear empties p.
func (b *Board) Clear(p Position) { b.Set(p, Piece{}) }

// Reset restores the 32-piece starting arrangement.
func (b *Board) Reset() {
	b.squares = [8][8]Piece{}
	for col := 1; col <= 8; col++ {
		b.Set(Pos(1, col), NewPiece(White, backRank[col-1]))
		b.Set(Pos(2, col), NewPiece(White, Pawn))
		b.Set(Pos(7, col), NewPiece(Black, Pawn))
		b.Set(Pos(8, col), NewPiece(Black, backRank[col-1]))
	}
}

func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// Equal compares all 64 cells.
func (b *Board) Equal(o *Board) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.squares == o.squares
}

// Each calls fn for every occupied square, row 1 first.
func (b *Board) Each(fn func(Position, Piece)) {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if pc := b.squares[r][c]; !pc.IsZero() {
				fn(Pos(r+1, c+1), pc)
			}
		}
	}
}

// KingPosition finds the king of color c.
func (b *Board) KingPosition(c Color) (Position, bool) {
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			if pc := b.squares[r][col]; pc.Type == King && pc.Color == c {
				return Pos(r+1, col+1), true
			}
		}
	}
	return Position{}, false
}

// Rows returns the grid row 1 first; empty squares are nil.
func (b *Board) Rows() [8][8]*Piece {
	var out [8][8]*Piece
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if pc := b.squares[r][c]; !pc.IsZero() {
				out[r][c] = &pc
			}
		}
	}
	return out
}

var pieceLetters = map[PieceType]byte{King: 'k', Queen: 'q', Rook: 'r', Bishop: 'b', Knight: 'n', Pawn: 'p'}

// String draws the board with row 8 on top, uppercase for white.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		for c := 0; c < 8; c++ {
			pc := b.squares[r][c]
			ch := byte('.')
			if !pc.IsZero() {
				ch = pieceLetters[pc.Type]
				if pc.Color == White {
					ch -= 'a' - 'A'
				}
			}
			sb.WriteByte(ch)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

package chess

import "strings"

// Move is a start/end pair with an optional promotion type.
type Move struct {
	Start     Position  `json:"startPosition"`
	End       Position  `json:"endPosition"`
	Promotion PieceType `json:"promotionPiece,omitempty"`
}

// String renders UCI notation, e.g. "e2e4" or "a7a8q".
func (m Move) String() string {
	s := m.Start.String() + m.End.String()
	if m.Promotion != NoPieceType {
		s += string(pieceLetters[m.Promotion])
	}
	return s
}

// ParseMove parses UCI notation.
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 && len(s) != 5 {
		return Move{}, ErrIllegalMove
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, err
	}
	m := Move{Start: from, End: to}
	if len(s) == 5 {
		for t, letter := range pieceLetters {
			if letter == s[4] && t != King && t != Pawn {
				m.Promotion = t
			}
		}
		if m.Promotion == NoPieceType {
			return Move{}, ErrIllegalMove
		}
	}
	return m, nil
}

type offset struct{ dr, dc int }

var (
	kingOffsets   = []offset{{1, -1}, {1, 0}, {1, 1}, {0, -1}, {0, 1}, {-1, -1}, {-1, 0}, {-1, 1}}
	knightOffsets = []offset{{2, -1}, {2, 1}, {1, -2}, {1, 2}, {-1, -2}, {-1, 2}, {-2, -1}, {-2, 1}}
	bishopRays    = []offset{{1, -1}, {1, 1}, {-1, -1}, {-1, 1}}
	rookRays      = []offset{{1, 0}, {-1, 0}, {0, -1}, {0, 1}}
	queenRays     = append(append([]offset{}, bishopRays...), rookRays...)
)

// PieceMoves returns the pseudo-legal moves of the piece at from, treating
// color as the mover. Moves that expose the mover's own king are included.
// An empty square yields nil.
func PieceMoves(b *Board, from Position, color Color) []Move {
	pc, ok := b.Get(from)
	if !ok {
		return nil
	}
	switch pc.Type {
	case King:
		return stepMoves(b, from, color, kingOffsets)
	case Knight:
		return stepMoves(b, from, color, knightOffsets)
	case Bishop:
		return slideMoves(b, from, color, bishopRays)
	case Rook:
		return slideMoves(b, from, color, rookRays)
	case Queen:
		return slideMoves(b, from, color, queenRays)
	case Pawn:
		return pawnMoves(b, from, color)
	default:
		return nil
	}
}

func stepMoves(b *Board, from Position, color Color, offsets []offset) []Move {
	moves := make([]Move, 0, len(offsets))
	for _, o := range offsets {
		to := from.Offset(o.dr, o.dc)
		if !to.InBounds() {
			continue
		}
		if target, occupied := b.Get(to); occupied && target.Color == color {
			continue
		}
		moves = append(moves, Move{Start: from, End: to})
	}
	return moves
}

func slideMoves(b *Board, from Position, color Color, rays []offset) []Move {
	var moves []Move
	for _, o := range rays {
		for to := from.Offset(o.dr, o.dc); to.InBounds(); to = to.Offset(o.dr, o.dc) {
			target, occupied := b.Get(to)
			if !occupied {
				moves = append(moves, Move{Start: from, End: to})
				continue
			}
			if target.Color != color {
				moves = append(moves, Move{Start: from, End: to})
			}
			break
		}
	}
	return moves
}

func pawnMoves(b *Board, from Position, color Color) []Move {
	forward, home := 1, 2
	if color == Black {
		forward, home = -1, 7
	}

	var moves []Move
	one := from.Offset(forward, 0)
	if _, occupied := b.Get(one); one.InBounds() && !occupied {
		moves = appendPawnMove(moves, from, one)
		two := from.Offset(2*forward, 0)
		if _, occupied := b.Get(two); from.Row == home && !occupied {
			moves = appendPawnMove(moves, from, two)
		}
	}
	for _, dc := range [2]int{-1, 1} {
		to := from.Offset(forward, dc)
		if target, occupied := b.Get(to); occupied && target.Color != color {
			moves = appendPawnMove(moves, from, to)
		}
	}
	return moves
}

func appendPawnMove(moves []Move, from, to Position) []Move {
	if to.Row != 1 && to.Row != 8 {
		return append(moves, Move{Start: from, End: to})
	}
	for _, t := range PromotionTypes {
		moves = append(moves, Move{Start: from, End: to, Promotion: t})
	}
	return moves
}

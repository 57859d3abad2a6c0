package chess

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrGameOver    = errors.New("game is over")
)

// Condition summarizes one side's situation after a move.
type Condition uint8

const (
	Normal Condition = iota
	Check
	Checkmate
	Stalemate
)

func (c Condition) String() string {
	switch c {
	case Check:
		return "check"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "normal"
	}
}

// Game is a board plus whose turn it is. Once a game stops being playable
// (resignation) it never becomes playable again. Game is not safe for
// concurrent use; callers serialize access per game.
type Game struct {
	board    *Board
	turn     Color
	playable bool
}

// NewGame starts from the standard arrangement with white to move.
func NewGame() *Game {
	return &Game{board: NewBoard(), turn: White, playable: true}
}

// Restore rebuilds a game from persisted parts. b is copied.
func Restore(b *Board, turn Color, playable bool) *Game {
	if turn != Black {
		turn = White
	}
	return &Game{board: b.Clone(), turn: turn, playable: playable}
}

// Board returns a copy of the current board.
func (g *Game) Board() *Board { return g.board.Clone() }

func (g *Game) Turn() Color    { return g.turn }
func (g *Game) Playable() bool { return g.playable }

func (g *Game) Clone() *Game {
	c := *g
	c.board = g.board.Clone()
	return &c
}

// LegalMoves lists the legal moves of the piece at p, or nil for an empty square.
func (g *Game) LegalMoves(p Position) []Move {
	return LegalMoves(g.board, p)
}

// ApplyMove plays m for the side to move and passes the turn.
func (g *Game) ApplyMove(m Move) error {
	if !g.playable {
		return ErrGameOver
	}
	pc, ok := g.board.Get(m.Start)
	if !ok {
		return fmt.Errorf("%w: no piece at %s", ErrIllegalMove, m.Start)
	}
	if pc.Color != g.turn {
		return fmt.Errorf("%w: %s piece at %s but %s to move", ErrIllegalMove, pc.Color, m.Start, g.turn)
	}
	for _, legal := range g.LegalMoves(m.Start) {
		if legal == m {
			play(g.board, m)
			g.turn = g.turn.Opponent()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrIllegalMove, m)
}

// Resign ends the game. The turn is left untouched.
func (g *Game) Resign() error {
	if !g.playable {
		return ErrGameOver
	}
	g.playable = false
	return nil
}

func (g *Game) IsInCheck(c Color) bool { return KingAttacked(g.board, c) }

func (g *Game) IsInCheckmate(c Color) bool {
	return g.IsInCheck(c) && !g.hasLegalMove(c)
}

// IsInStalemate holds for a side that is not in check and has no legal move.
// It does not depend on whose turn it is.
func (g *Game) IsInStalemate(c Color) bool {
	return !g.IsInCheck(c) && !g.hasLegalMove(c)
}

// Condition reports the most severe state of side c: checkmate, then check,
// then stalemate.
func (g *Game) Condition(c Color) Condition {
	inCheck := g.IsInCheck(c)
	canMove := g.hasLegalMove(c)
	switch {
	case inCheck && !canMove:
		return Checkmate
	case inCheck:
		return Check
	case !canMove:
		return Stalemate
	default:
		return Normal
	}
}

func (g *Game) hasLegalMove(c Color) bool {
	for r := 1; r <= 8; r++ {
		for col := 1; col <= 8; col++ {
			p := Pos(r, col)
			if pc, ok := g.board.Get(p); ok && pc.Color == c && len(LegalMoves(g.board, p)) > 0 {
				return true
			}
		}
	}
	return false
}

package chess

import (
	"errors"
	"testing"
)

func mustApply(t *testing.T, g *Game, moves ...string) {
	t.Helper()
	for _, s := range moves {
		m, err := ParseMove(s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		if err := g.ApplyMove(m); err != nil {
			t.Fatalf("apply %s: %v", s, err)
		}
	}
}

func TestNewGame(t *testing.T) {
	g := NewGame()
	if g.Turn() != White {
		t.Fatalf("expected WHITE to move, got %s", g.Turn())
	}
	if !g.Playable() {
		t.Fatalf("expected new game to be playable")
	}
	if !g.Board().Equal(NewBoard()) {
		t.Fatalf("expected starting arrangement")
	}
}

func TestApplyMoveOpening(t *testing.T) {
	g := NewGame()
	mustApply(t, g, "e2e4")

	if g.Turn() != Black {
		t.Fatalf("expected BLACK to move, got %s", g.Turn())
	}
	b := g.Board()
	if _, ok := b.Get(MustSquare("e2")); ok {
		t.Fatalf("expected e2 empty")
	}
	if pc, ok := b.Get(MustSquare("e4")); !ok || pc != NewPiece(White, Pawn) {
		t.Fatalf("expected white pawn on e4, got %v", pc)
	}
}

func TestApplyMoveRejects(t *testing.T) {
	cases := []struct {
		name string
		move string
	}{
		{"empty start", "e4e5"},
		{"wrong color", "e7e5"},
		{"not a legal destination", "e2e5"},
		{"through a piece", "a1a3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGame()
			before := g.Board()
			err := g.ApplyMove(mustMove(t, tc.move))
			if !errors.Is(err, ErrIllegalMove) {
				t.Fatalf("expected ErrIllegalMove, got %v", err)
			}
			if !g.Board().Equal(before) || g.Turn() != White {
				t.Fatalf("rejected move changed the game")
			}
		})
	}
}

func mustMove(t *testing.T, s string) Move {
	t.Helper()
	m, err := ParseMove(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return m
}

func TestPromotion(t *testing.T) {
	for _, pt := range PromotionTypes {
		t.Run(pt.String(), func(t *testing.T) {
			g := Restore(boardOf(map[string]Piece{
				"a7": NewPiece(White, Pawn),
				"e1": NewPiece(White, King),
				"h8": NewPiece(Black, King),
			}), White, true)

			m := Move{Start: MustSquare("a7"), End: MustSquare("a8"), Promotion: pt}
			if err := g.ApplyMove(m); err != nil {
				t.Fatalf("apply: %v", err)
			}
			if pc, _ := g.Board().Get(MustSquare("a8")); pc != NewPiece(White, pt) {
				t.Fatalf("expected white %s on a8, got %v", pt, pc)
			}
		})
	}

	g := Restore(boardOf(map[string]Piece{
		"a7": NewPiece(White, Pawn),
		"e1": NewPiece(White, King),
		"h8": NewPiece(Black, King),
	}), White, true)
	if err := g.ApplyMove(mustMove(t, "a7a8")); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected promotion to be required, got %v", err)
	}
}

func TestFoolsMate(t *testing.T) {
	g := NewGame()
	mustApply(t, g, "f2f3", "e7e5", "g2g4", "d8h4")

	if !g.IsInCheck(White) {
		t.Fatalf("expected WHITE in check")
	}
	if !g.IsInCheckmate(White) {
		t.Fatalf("expected WHITE checkmated")
	}
	if g.IsInStalemate(White) {
		t.Fatalf("checkmate is not stalemate")
	}
	if g.Condition(White) != Checkmate {
		t.Fatalf("expected checkmate condition, got %s", g.Condition(White))
	}
	if g.Condition(Black) != Normal {
		t.Fatalf("expected BLACK normal, got %s", g.Condition(Black))
	}
}

func TestCheckIsNotMate(t *testing.T) {
	g := NewGame()
	mustApply(t, g, "e2e4", "f7f6", "d1h5")

	if !g.IsInCheck(Black) {
		t.Fatalf("expected BLACK in check")
	}
	if g.IsInCheckmate(Black) {
		t.Fatalf("g7g6 blocks, expected no mate")
	}
	if g.Condition(Black) != Check {
		t.Fatalf("expected check condition, got %s", g.Condition(Black))
	}
}

func TestStalemate(t *testing.T) {
	g := Restore(boardOf(map[string]Piece{
		"a8": NewPiece(Black, King),
		"b6": NewPiece(White, King),
		"c7": NewPiece(White, Queen),
	}), Black, true)

	if g.IsInCheck(Black) {
		t.Fatalf("expected BLACK not in check")
	}
	if !g.IsInStalemate(Black) {
		t.Fatalf("expected BLACK stalemated")
	}
	if g.IsInCheckmate(Black) {
		t.Fatalf("stalemate is not checkmate")
	}
	if g.IsInStalemate(White) {
		t.Fatalf("WHITE has moves")
	}
}

func TestPinnedPieceCannotMove(t *testing.T) {
	g := Restore(boardOf(map[string]Piece{
		"e1": NewPiece(White, King),
		"e2": NewPiece(White, Bishop),
		"e8": NewPiece(Black, Rook),
		"a8": NewPiece(Black, King),
	}), White, true)

	if moves := g.LegalMoves(MustSquare("e2")); len(moves) != 0 {
		t.Fatalf("expected pinned bishop to have no moves, got %v", uci(moves))
	}
	assertMoves(t, g.LegalMoves(MustSquare("e1")), "e1d1", "e1d2", "e1f1", "e1f2")
}

func TestLegalMovesDoNotMutate(t *testing.T) {
	g := NewGame()
	mustApply(t, g, "e2e4", "d7d5")
	before := g.Board()
	for r := 1; r <= 8; r++ {
		for c := 1; c <= 8; c++ {
			g.LegalMoves(Pos(r, c))
		}
	}
	if !g.Board().Equal(before) {
		t.Fatalf("LegalMoves changed the board")
	}
}

func TestNoKingMeansNoCheck(t *testing.T) {
	g := Restore(boardOf(map[string]Piece{
		"a1": NewPiece(White, Rook),
		"a8": NewPiece(Black, Rook),
	}), White, true)
	if g.IsInCheck(White) || g.IsInCheck(Black) {
		t.Fatalf("expected no check without kings")
	}
}

func TestResign(t *testing.T) {
	g := NewGame()
	mustApply(t, g, "e2e4")

	if err := g.Resign(); err != nil {
		t.Fatalf("resign: %v", err)
	}
	if g.Playable() {
		t.Fatalf("expected game not playable")
	}
	if g.Turn() != Black {
		t.Fatalf("resign must not change the turn")
	}
	if err := g.ApplyMove(mustMove(t, "e7e5")); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	if err := g.Resign(); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver on second resign, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := NewGame()
	c := g.Clone()
	mustApply(t, c, "e2e4")
	if g.Turn() != White || !g.Board().Equal(NewBoard()) {
		t.Fatalf("playing on clone changed original")
	}
}

func TestScholarsMateBlackMated(t *testing.T) {
	g := NewGame()
	mustApply(t, g, "e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6", "h5f7")

	if !g.IsInCheckmate(Black) {
		t.Fatalf("expected BLACK checkmated")
	}
	for r := 1; r <= 8; r++ {
		for c := 1; c <= 8; c++ {
			p := Pos(r, c)
			if pc, ok := g.Board().Get(p); ok && pc.Color == Black {
				if moves := g.LegalMoves(p); len(moves) != 0 {
					t.Fatalf("black piece at %s still has moves %v", p, uci(moves))
				}
			}
		}
	}
}

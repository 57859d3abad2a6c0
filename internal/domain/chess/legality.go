package chess

// LegalMoves filters PieceMoves for the piece at from, dropping every move
// that leaves the mover's king attacked. Each candidate is played on a
// scratch clone; b is never modified.
func LegalMoves(b *Board, from Position) []Move {
	pc, ok := b.Get(from)
	if !ok {
		return nil
	}
	candidates := PieceMoves(b, from, pc.Color)
	legal := candidates[:0:0]
	for _, m := range candidates {
		scratch := b.Clone()
		play(scratch, m)
		if !KingAttacked(scratch, pc.Color) {
			legal = append(legal, m)
		}
	}
	return legal
}

// KingAttacked reports whether any enemy piece has a pseudo-legal move ending
// on the king of color c. A board without that king is never in check.
func KingAttacked(b *Board, c Color) bool {
	king, ok := b.KingPosition(c)
	if !ok {
		return false
	}
	return Attacked(b, king, c.Opponent())
}

// Attacked reports whether a piece of color by can move to target.
func Attacked(b *Board, target Position, by Color) bool {
	for r := 1; r <= 8; r++ {
		for col := 1; col <= 8; col++ {
			from := Pos(r, col)
			pc, ok := b.Get(from)
			if !ok || pc.Color != by {
				continue
			}
			for _, m := range PieceMoves(b, from, by) {
				if m.End == target {
					return true
				}
			}
		}
	}
	return false
}

// play moves the piece without any validation, promoting when requested.
func play(b *Board, m Move) {
	pc, _ := b.Get(m.Start)
	if m.Promotion != NoPieceType {
		pc.Type = m.Promotion
	}
	b.Set(m.End, pc)
	b.Clear(m.Start)
}

package session

import (
	"strings"

	"github.com/randomtoy/live-chess/internal/domain/chess"
	"github.com/randomtoy/live-chess/internal/domain/game"
)

func moveText(username string, m chess.Move) string {
	var sb strings.Builder
	sb.WriteString(username)
	sb.WriteString(" has moved from ")
	sb.WriteString(m.Start.String())
	sb.WriteString(" to ")
	sb.WriteString(m.End.String())
	if m.Promotion != chess.NoPieceType {
		sb.WriteString(" and promoted to a ")
		sb.WriteString(strings.ToLower(m.Promotion.String()))
	}
	sb.WriteString(".")
	return sb.String()
}

// statusText reports the first of checkmate, check or stalemate that holds,
// WHITE before BLACK.
func statusText(g *game.Game) (string, bool) {
	for _, color := range chess.Colors {
		var suffix string
		switch g.Match.Condition(color) {
		case chess.Checkmate:
			suffix = " is in checkmate"
		case chess.Check:
			suffix = " is in check"
		case chess.Stalemate:
			suffix = " is in stalemate"
		default:
			continue
		}
		who := g.Seat(color)
		if who == "" {
			who = strings.ToLower(color.String())
		}
		return who + suffix, true
	}
	return "", false
}

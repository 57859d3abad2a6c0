package game

import (
	"errors"
	"time"

	"github.com/randomtoy/live-chess/internal/domain/chess"
)

// ErrInvalidColor is returned when a seat operation names neither side.
var ErrInvalidColor = errors.New("invalid_color")

// Game is the unit of persistence: the live match plus lobby metadata.
// Operations never mutate the receiver; they return a new *Game with
// StateVersion bumped, so a store can compare the version it holds with the
// caller's expected one.
type Game struct {
	ID            int
	Name          string
	WhiteUsername string
	BlackUsername string
	Match         *chess.Game
	StateVersion  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New creates a game in the standard starting position, WHITE to move.
func New(id int, name string, now time.Time) *Game {
	return &Game{
		ID:        id,
		Name:      name,
		Match:     chess.NewGame(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Restore rebuilds a game from its persisted FEN and playable flag.
func Restore(id int, name, white, black, fen string, playable bool, version int, createdAt, updatedAt time.Time) (*Game, error) {
	board, turn, err := chess.DecodeFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Game{
		ID:            id,
		Name:          name,
		WhiteUsername: white,
		BlackUsername: black,
		Match:         chess.Restore(board, turn, playable),
		StateVersion:  version,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

// FEN is the persisted board encoding.
func (g *Game) FEN() string { return g.Match.FEN() }

// Clone returns a deep copy; the match is never shared.
func (g *Game) Clone() *Game {
	c := *g
	c.Match = g.Match.Clone()
	return &c
}

// SeatOf reports which color username plays. Empty usernames never match.
func (g *Game) SeatOf(username string) (chess.Color, bool) {
	switch {
	case username == "":
		return 0, false
	case username == g.WhiteUsername:
		return chess.White, true
	case username == g.BlackUsername:
		return chess.Black, true
	default:
		return 0, false
	}
}

// Seat returns the username holding color, or "" when free.
func (g *Game) Seat(c chess.Color) string {
	if c == chess.Black {
		return g.BlackUsername
	}
	return g.WhiteUsername
}

// ApplyMove validates and plays m, returning the updated game.
//
// Returns chess.ErrGameOver when the game was resigned and
// chess.ErrIllegalMove when m is not legal for the side to move.
func (g *Game) ApplyMove(m chess.Move, now time.Time) (*Game, error) {
	next := g.next(now)
	if err := next.Match.ApplyMove(m); err != nil {
		return nil, err
	}
	return next, nil
}

// Resign marks the game as no longer playable.
func (g *Game) Resign(now time.Time) (*Game, error) {
	next := g.next(now)
	if err := next.Match.Resign(); err != nil {
		return nil, err
	}
	return next, nil
}

// ClaimSeat assigns color to username.
func (g *Game) ClaimSeat(c chess.Color, username string, now time.Time) (*Game, error) {
	next := g.next(now)
	switch c {
	case chess.White:
		next.WhiteUsername = username
	case chess.Black:
		next.BlackUsername = username
	default:
		return nil, ErrInvalidColor
	}
	return next, nil
}

// ClearSeat frees color.
func (g *Game) ClearSeat(c chess.Color, now time.Time) (*Game, error) {
	return g.ClaimSeat(c, "", now)
}

func (g *Game) next(now time.Time) *Game {
	n := g.Clone()
	n.StateVersion = g.StateVersion + 1
	n.UpdatedAt = now
	return n
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/randomtoy/live-chess/internal/domain/chess"
	"github.com/randomtoy/live-chess/internal/domain/game"
	"github.com/randomtoy/live-chess/internal/ports"
)

// joinAttempts bounds retries when a concurrent writer bumps the version.
const joinAttempts = 3

// Games handles lobby operations and is the game repository of the live
// session layer.
type Games struct {
	store    ports.GameStore
	accounts *Accounts
	rl       ports.RateLimiter
	now      func() time.Time
}

func NewGames(store ports.GameStore, accounts *Accounts, rl ports.RateLimiter) *Games {
	return &Games{store: store, accounts: accounts, rl: rl, now: time.Now}
}

// Create starts a new game named name.
func (g *Games) Create(ctx context.Context, ip, token, name string) (*game.Game, error) {
	if err := g.authorize(ctx, ip, token); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBadRequest
	}
	return g.store.CreateGame(ctx, name, g.now())
}

// List returns every game ordered by ID.
func (g *Games) List(ctx context.Context, ip, token string) ([]*game.Game, error) {
	if err := g.authorize(ctx, ip, token); err != nil {
		return nil, err
	}
	return g.store.ListGames(ctx)
}

// Join seats the caller as color. Joining a seat already held by the caller
// is a no-op; a seat held by someone else fails with ports.ErrAlreadyTaken.
func (g *Games) Join(ctx context.Context, ip, token string, gameID int, color chess.Color) error {
	if !g.rl.Allow(ip, token) {
		return ErrRateLimited
	}
	username, err := g.accounts.Authorize(ctx, token)
	if err != nil {
		return err
	}
	if color != chess.White && color != chess.Black {
		return ErrBadRequest
	}

	for attempt := 0; ; attempt++ {
		cur, err := g.store.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		switch cur.Seat(color) {
		case username:
			return nil
		case "":
		default:
			return ports.ErrAlreadyTaken
		}
		next, err := cur.ClaimSeat(color, username, g.now())
		if err != nil {
			return err
		}
		err = g.store.SaveIfVersion(ctx, next, cur.StateVersion)
		if errors.Is(err, ports.ErrVersionConflict) && attempt+1 < joinAttempts {
			continue
		}
		return err
	}
}

// Get returns one game to an authorized caller.
func (g *Games) Get(ctx context.Context, ip, token string, id int) (*game.Game, error) {
	if err := g.authorize(ctx, ip, token); err != nil {
		return nil, err
	}
	return g.store.GetGame(ctx, id)
}

// Find loads a game for the live session layer.
func (g *Games) Find(ctx context.Context, id int) (*game.Game, error) {
	return g.store.GetGame(ctx, id)
}

// Save persists next if the stored version still equals expectedVersion.
func (g *Games) Save(ctx context.Context, next *game.Game, expectedVersion int) error {
	return g.store.SaveIfVersion(ctx, next, expectedVersion)
}

func (g *Games) authorize(ctx context.Context, ip, token string) error {
	if !g.rl.Allow(ip, token) {
		return ErrRateLimited
	}
	_, err := g.accounts.Authorize(ctx, token)
	return err
}

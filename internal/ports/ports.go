package ports

import (
	"context"
	"errors"
	"time"

	"github.com/randomtoy/live-chess/internal/domain/account"
	"github.com/randomtoy/live-chess/internal/domain/game"
)

// Sentinel store errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyTaken    = errors.New("already taken")
	ErrVersionConflict = errors.New("version conflict")
)

// UserStore persists registered users.
type UserStore interface {
	// CreateUser returns ErrAlreadyTaken when the username exists.
	CreateUser(ctx context.Context, u account.User) error
	GetUser(ctx context.Context, username string) (account.User, error)
}

// AuthStore persists issued tokens.
type AuthStore interface {
	CreateAuth(ctx context.Context, a account.Auth) error
	GetAuth(ctx context.Context, token string) (account.Auth, error)
	DeleteAuth(ctx context.Context, token string) error
}

// GameStore is the persistence interface for games.
type GameStore interface {
	// CreateGame assigns the next positive ID and stores a fresh game.
	CreateGame(ctx context.Context, name string, now time.Time) (*game.Game, error)
	GetGame(ctx context.Context, id int) (*game.Game, error)
	// ListGames returns every game ordered by ID.
	ListGames(ctx context.Context) ([]*game.Game, error)
	// SaveIfVersion overwrites the game only when the stored StateVersion
	// equals expectedVersion. Returns ErrVersionConflict otherwise.
	SaveIfVersion(ctx context.Context, g *game.Game, expectedVersion int) error
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	AuthStore
	GameStore
	// Clear removes all users, tokens and games.
	Clear(ctx context.Context) error
}

// RateLimiter gates requests by IP and optional client token.
type RateLimiter interface {
	Allow(ip, token string) bool
}

package usecase

import (
	"context"

	"github.com/randomtoy/live-chess/internal/ports"
)

// Admin exposes maintenance operations.
type Admin struct {
	store ports.Store
	rl    ports.RateLimiter
}

func NewAdmin(store ports.Store, rl ports.RateLimiter) *Admin {
	return &Admin{store: store, rl: rl}
}

// Clear wipes users, tokens and games.
func (a *Admin) Clear(ctx context.Context, ip string) error {
	if !a.rl.Allow(ip, "") {
		return ErrRateLimited
	}
	return a.store.Clear(ctx)
}

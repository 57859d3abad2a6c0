package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/randomtoy/live-chess/internal/domain/account"
	"github.com/randomtoy/live-chess/internal/ports"
)

// Accounts handles registration, login and token checks.
type Accounts struct {
	users      ports.UserStore
	auths      ports.AuthStore
	rl         ports.RateLimiter
	bcryptCost int
	now        func() time.Time
}

func NewAccounts(users ports.UserStore, auths ports.AuthStore, rl ports.RateLimiter, bcryptCost int) *Accounts {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Accounts{users: users, auths: auths, rl: rl, bcryptCost: bcryptCost, now: time.Now}
}

// bcrypt only hashes the first 72 bytes and refuses longer input.
const maxPasswordLen = 72

// Register creates a user and logs them in.
func (a *Accounts) Register(ctx context.Context, ip, username, password, email string) (account.Auth, error) {
	if !a.rl.Allow(ip, "") {
		return account.Auth{}, ErrRateLimited
	}
	if !account.ValidUsername(username) || password == "" || len(password) > maxPasswordLen || strings.TrimSpace(email) == "" {
		return account.Auth{}, ErrBadRequest
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return account.Auth{}, ErrBadRequest
	}
	if err != nil {
		return account.Auth{}, fmt.Errorf("hash password: %w", err)
	}
	now := a.now()
	u := account.User{Username: username, PasswordHash: string(hash), Email: email, CreatedAt: now}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return account.Auth{}, err
	}
	return a.issue(ctx, username, now)
}

// Login checks the password and issues a new token.
func (a *Accounts) Login(ctx context.Context, ip, username, password string) (account.Auth, error) {
	if !a.rl.Allow(ip, "") {
		return account.Auth{}, ErrRateLimited
	}
	if username == "" || password == "" {
		return account.Auth{}, ErrBadRequest
	}
	u, err := a.users.GetUser(ctx, username)
	if errors.Is(err, ports.ErrNotFound) {
		return account.Auth{}, ErrUnauthorized
	}
	if err != nil {
		return account.Auth{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return account.Auth{}, ErrUnauthorized
	}
	return a.issue(ctx, username, a.now())
}

// Logout revokes token.
func (a *Accounts) Logout(ctx context.Context, ip, token string) error {
	if !a.rl.Allow(ip, token) {
		return ErrRateLimited
	}
	if token == "" {
		return ErrUnauthorized
	}
	err := a.auths.DeleteAuth(ctx, token)
	if errors.Is(err, ports.ErrNotFound) {
		return ErrUnauthorized
	}
	return err
}

// Authorize resolves token to a username.
func (a *Accounts) Authorize(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	auth, err := a.auths.GetAuth(ctx, token)
	if errors.Is(err, ports.ErrNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", err
	}
	return auth.Username, nil
}

func (a *Accounts) issue(ctx context.Context, username string, now time.Time) (account.Auth, error) {
	auth := account.NewAuth(username, now)
	if err := a.auths.CreateAuth(ctx, auth); err != nil {
		return account.Auth{}, err
	}
	return auth, nil
}

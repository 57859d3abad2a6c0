package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/randomtoy/live-chess/internal/domain/account"
	"github.com/randomtoy/live-chess/internal/domain/game"
	"github.com/randomtoy/live-chess/internal/ports"
)

// Store is a thread-safe in-memory ports.Store. Games are cloned on the way in
// and out so callers never share a board with the store.
type Store struct {
	mu sync.Mutex

	users  map[string]account.User
	tokens map[string]account.Auth
	games  map[int]*game.Game
	lastID int
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.users = make(map[string]account.User)
	s.tokens = make(map[string]account.Auth)
	s.games = make(map[int]*game.Game)
	s.lastID = 0
}

func (s *Store) CreateUser(_ context.Context, u account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return ports.ErrAlreadyTaken
	}
	s.users[u.Username] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, username string) (account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return account.User{}, ports.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateAuth(_ context.Context, a account.Auth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[a.Token]; ok {
		return ports.ErrAlreadyTaken
	}
	s.tokens[a.Token] = a
	return nil
}

func (s *Store) GetAuth(_ context.Context, token string) (account.Auth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.tokens[token]
	if !ok {
		return account.Auth{}, ports.ErrNotFound
	}
	return a, nil
}

func (s *Store) DeleteAuth(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token]; !ok {
		return ports.ErrNotFound
	}
	delete(s.tokens, token)
	return nil
}

func (s *Store) CreateGame(_ context.Context, name string, now time.Time) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	g := game.New(s.lastID, name, now)
	s.games[g.ID] = g
	return g.Clone(), nil
}

func (s *Store) GetGame(_ context.Context, id int) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *Store) ListGames(_ context.Context) ([]*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*game.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveIfVersion overwrites the game only when the current stored StateVersion
// equals expectedVersion, providing optimistic concurrency safety.
func (s *Store) SaveIfVersion(_ context.Context, g *game.Game, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.games[g.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if cur.StateVersion != expectedVersion {
		return ports.ErrVersionConflict
	}
	s.games[g.ID] = g.Clone()
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

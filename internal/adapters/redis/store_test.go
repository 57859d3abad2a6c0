package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	redisstore "github.com/randomtoy/live-chess/internal/adapters/redis"
	"github.com/randomtoy/live-chess/internal/domain/account"
	"github.com/randomtoy/live-chess/internal/domain/chess"
	"github.com/randomtoy/live-chess/internal/ports"
)

func setupStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb, err := redisstore.Dial(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return redisstore.New(rdb), mr
}

func TestUsersAndTokens(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := account.User{Username: "alice", PasswordHash: "h", Email: "a@example.com", CreatedAt: now}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateUser(ctx, u); !errors.Is(err, ports.ErrAlreadyTaken) {
		t.Fatalf("want ErrAlreadyTaken, got %v", err)
	}
	got, err := s.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != u.Email || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}

	a := account.NewAuth("alice", now)
	if err := s.CreateAuth(ctx, a); err != nil {
		t.Fatalf("create auth: %v", err)
	}
	if got, err := s.GetAuth(ctx, a.Token); err != nil || got.Username != "alice" {
		t.Fatalf("get auth: %+v %v", got, err)
	}
	if err := s.DeleteAuth(ctx, a.Token); err != nil {
		t.Fatalf("delete auth: %v", err)
	}
	if _, err := s.GetAuth(ctx, a.Token); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := s.DeleteAuth(ctx, a.Token); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("want ErrNotFound on second delete, got %v", err)
	}
}

func TestGamesCreateListSave(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, name := range []string{"a", "b", "c"} {
		g, err := s.CreateGame(ctx, name, now)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if g.ID != i+1 {
			t.Fatalf("want id %d, got %d", i+1, g.ID)
		}
	}

	games, err := s.ListGames(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 3 || games[0].Name != "a" || games[2].ID != 3 {
		t.Fatalf("unexpected list: %+v", games)
	}

	g := games[1]
	next, err := g.ApplyMove(chess.Move{Start: chess.MustSquare("g1"), End: chess.MustSquare("f3")}, now)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := s.SaveIfVersion(ctx, next, g.StateVersion+5); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("want ErrVersionConflict, got %v", err)
	}
	if err := s.SaveIfVersion(ctx, next, g.StateVersion); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Match.Turn() != chess.Black || loaded.StateVersion != next.StateVersion {
		t.Fatalf("unexpected loaded game: turn=%s version=%d", loaded.Match.Turn(), loaded.StateVersion)
	}
	if pc, ok := loaded.Match.Board().Get(chess.MustSquare("f3")); !ok || pc.Type != chess.Knight {
		t.Fatalf("expected knight on f3, got %v", pc)
	}

	if _, err := s.GetGame(ctx, 99); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	next.ID = 99
	if err := s.SaveIfVersion(ctx, next, 0); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("want ErrNotFound on save, got %v", err)
	}
}

func TestClear(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	if err := mr.Set("unrelated", "keep"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = s.CreateUser(ctx, account.User{Username: "alice"})
	if _, err := s.CreateGame(ctx, "g", time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.GetUser(ctx, "alice"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("want user gone, got %v", err)
	}
	games, err := s.ListGames(ctx)
	if err != nil || len(games) != 0 {
		t.Fatalf("want no games, got %d %v", len(games), err)
	}
	if v, _ := mr.Get("unrelated"); v != "keep" {
		t.Fatalf("clear removed a foreign key")
	}
	g, _ := s.CreateGame(ctx, "again", time.Now())
	if g.ID != 1 {
		t.Fatalf("want ids to restart at 1, got %d", g.ID)
	}
}

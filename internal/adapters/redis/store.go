package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/randomtoy/live-chess/internal/domain/account"
	"github.com/randomtoy/live-chess/internal/domain/game"
	"github.com/randomtoy/live-chess/internal/ports"
)

const keyPrefix = "chess:"

func keyUser(username string) string { return keyPrefix + "user:" + username }
func keyAuth(token string) string    { return keyPrefix + "auth:" + token }
func keyGame(id int) string          { return keyPrefix + "game:" + strconv.Itoa(id) }
func keyGameSeq() string             { return keyPrefix + "games:seq" }
func keyGameIndex() string           { return keyPrefix + "games" }

type userRecord struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

type authRecord struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type gameRecord struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	WhiteUsername string    `json:"white_username"`
	BlackUsername string    `json:"black_username"`
	FEN           string    `json:"fen"`
	Playable      bool      `json:"playable"`
	StateVersion  int       `json:"state_version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toRecord(g *game.Game) gameRecord {
	return gameRecord{
		ID:            g.ID,
		Name:          g.Name,
		WhiteUsername: g.WhiteUsername,
		BlackUsername: g.BlackUsername,
		FEN:           g.FEN(),
		Playable:      g.Match.Playable(),
		StateVersion:  g.StateVersion,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func (r gameRecord) toGame() (*game.Game, error) {
	return game.Restore(r.ID, r.Name, r.WhiteUsername, r.BlackUsername, r.FEN, r.Playable, r.StateVersion, r.CreatedAt, r.UpdatedAt)
}

// Store is a Redis-backed ports.Store. Every value is a JSON blob; game IDs
// come from INCR and are indexed in a sorted set.
type Store struct{ rdb *goredis.Client }

var _ ports.Store = (*Store)(nil)

func New(rdb *goredis.Client) *Store { return &Store{rdb: rdb} }

// Dial parses a redis:// URL and pings the server.
func Dial(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (s *Store) CreateUser(ctx context.Context, u account.User) error {
	raw, err := json.Marshal(userRecord(u))
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, keyUser(u.Username), raw, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ports.ErrAlreadyTaken
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (account.User, error) {
	var rec userRecord
	if err := s.load(ctx, keyUser(username), &rec); err != nil {
		return account.User{}, err
	}
	return account.User(rec), nil
}

func (s *Store) CreateAuth(ctx context.Context, a account.Auth) error {
	raw, err := json.Marshal(authRecord(a))
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, keyAuth(a.Token), raw, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ports.ErrAlreadyTaken
	}
	return nil
}

func (s *Store) GetAuth(ctx context.Context, token string) (account.Auth, error) {
	var rec authRecord
	if err := s.load(ctx, keyAuth(token), &rec); err != nil {
		return account.Auth{}, err
	}
	return account.Auth(rec), nil
}

func (s *Store) DeleteAuth(ctx context.Context, token string) error {
	n, err := s.rdb.Del(ctx, keyAuth(token)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) CreateGame(ctx context.Context, name string, now time.Time) (*game.Game, error) {
	id, err := s.rdb.Incr(ctx, keyGameSeq()).Result()
	if err != nil {
		return nil, err
	}
	g := game.New(int(id), name, now)
	raw, err := json.Marshal(toRecord(g))
	if err != nil {
		return nil, err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, keyGame(g.ID), raw, 0)
		pipe.ZAdd(ctx, keyGameIndex(), goredis.Z{Score: float64(g.ID), Member: g.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) GetGame(ctx context.Context, id int) (*game.Game, error) {
	var rec gameRecord
	if err := s.load(ctx, keyGame(id), &rec); err != nil {
		return nil, err
	}
	return rec.toGame()
}

func (s *Store) ListGames(ctx context.Context) ([]*game.Game, error) {
	ids, err := s.rdb.ZRange(ctx, keyGameIndex(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*game.Game, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + "game:" + id
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec gameRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, err
		}
		g, err := rec.toGame()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// SaveIfVersion watches the game key so a concurrent writer aborts the
// transaction; both a stale version and an aborted EXEC are reported as
// ports.ErrVersionConflict.
func (s *Store) SaveIfVersion(ctx context.Context, g *game.Game, expectedVersion int) error {
	key := keyGame(g.ID)
	raw, err := json.Marshal(toRecord(g))
	if err != nil {
		return err
	}

	err = s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return ports.ErrNotFound
		}
		if err != nil {
			return err
		}
		var rec gameRecord
		if err := json.Unmarshal(cur, &rec); err != nil {
			return err
		}
		if rec.StateVersion != expectedVersion {
			return ports.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		return ports.ErrVersionConflict
	}
	return err
}

// Clear deletes every key under the store prefix.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

func (s *Store) load(ctx context.Context, key string, dst any) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ports.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

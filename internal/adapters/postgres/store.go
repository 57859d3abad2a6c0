package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randomtoy/live-chess/internal/domain/account"
	"github.com/randomtoy/live-chess/internal/domain/game"
	"github.com/randomtoy/live-chess/internal/ports"
)

const uniqueViolation = "23505"

const queryInsertUser = `
INSERT INTO users (username, password_hash, email, created_at)
VALUES ($1, $2, $3, $4)`

const queryGetUser = `
SELECT username, password_hash, email, created_at
FROM users
WHERE username = $1`

const queryInsertAuth = `
INSERT INTO auth_tokens (token, username, created_at)
VALUES ($1, $2, $3)`

const queryGetAuth = `
SELECT token, username, created_at
FROM auth_tokens
WHERE token = $1`

const queryDeleteAuth = `DELETE FROM auth_tokens WHERE token = $1`

const gameColumns = `id, name, white_username, black_username, fen, playable, state_version, created_at, updated_at`

const queryInsertGame = `
INSERT INTO games (name, fen, playable, state_version, created_at, updated_at)
VALUES ($1, $2, TRUE, 0, $3, $3)
RETURNING ` + gameColumns

const queryGetGame = `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

const queryListGames = `SELECT ` + gameColumns + ` FROM games ORDER BY id ASC`

const querySaveIfVersion = `
UPDATE games SET
    name           = $1,
    white_username = $2,
    black_username = $3,
    fen            = $4,
    playable       = $5,
    state_version  = $6,
    updated_at     = $7
WHERE id = $8 AND state_version = $9`

const queryGameExists = `SELECT EXISTS(SELECT 1 FROM games WHERE id = $1)`

const queryClear = `TRUNCATE auth_tokens, users, games RESTART IDENTITY CASCADE`

// Store is a PostgreSQL-backed ports.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ ports.Store = (*Store)(nil)

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateUser(ctx context.Context, u account.User) error {
	_, err := s.pool.Exec(ctx, queryInsertUser, u.Username, u.PasswordHash, u.Email, u.CreatedAt)
	return mapUnique(err)
}

func (s *Store) GetUser(ctx context.Context, username string) (account.User, error) {
	var u account.User
	err := s.pool.QueryRow(ctx, queryGetUser, username).Scan(&u.Username, &u.PasswordHash, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return account.User{}, ports.ErrNotFound
	}
	return u, err
}

func (s *Store) CreateAuth(ctx context.Context, a account.Auth) error {
	_, err := s.pool.Exec(ctx, queryInsertAuth, a.Token, a.Username, a.CreatedAt)
	return mapUnique(err)
}

func (s *Store) GetAuth(ctx context.Context, token string) (account.Auth, error) {
	var a account.Auth
	err := s.pool.QueryRow(ctx, queryGetAuth, token).Scan(&a.Token, &a.Username, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return account.Auth{}, ports.ErrNotFound
	}
	return a, err
}

func (s *Store) DeleteAuth(ctx context.Context, token string) error {
	tag, err := s.pool.Exec(ctx, queryDeleteAuth, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) CreateGame(ctx context.Context, name string, now time.Time) (*game.Game, error) {
	fen := game.New(0, name, now).FEN()
	return scanGame(s.pool.QueryRow(ctx, queryInsertGame, name, fen, now))
}

func (s *Store) GetGame(ctx context.Context, id int) (*game.Game, error) {
	g, err := scanGame(s.pool.QueryRow(ctx, queryGetGame, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return g, err
}

func (s *Store) ListGames(ctx context.Context) ([]*game.Game, error) {
	rows, err := s.pool.Query(ctx, queryListGames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*game.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SaveIfVersion updates the row only when state_version still equals
// expectedVersion.
func (s *Store) SaveIfVersion(ctx context.Context, g *game.Game, expectedVersion int) error {
	tag, err := s.pool.Exec(ctx, querySaveIfVersion,
		g.Name,
		g.WhiteUsername,
		g.BlackUsername,
		g.FEN(),
		g.Match.Playable(),
		g.StateVersion,
		g.UpdatedAt,
		g.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, queryGameExists, g.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ports.ErrNotFound
	}
	return ports.ErrVersionConflict
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, queryClear)
	return err
}

func scanGame(row pgx.Row) (*game.Game, error) {
	var (
		id                      int
		name, white, black, fen string
		playable                bool
		version                 int
		createdAt, updatedAt    time.Time
	)
	if err := row.Scan(&id, &name, &white, &black, &fen, &playable, &version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return game.Restore(id, name, white, black, fen, playable, version, createdAt, updatedAt)
}

func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ports.ErrAlreadyTaken
	}
	return err
}

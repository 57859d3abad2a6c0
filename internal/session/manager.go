package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/randomtoy/live-chess/internal/domain/chess"
	"github.com/randomtoy/live-chess/internal/domain/game"
	"github.com/randomtoy/live-chess/internal/ports"
	"github.com/randomtoy/live-chess/internal/usecase"
)

// Conn is one live client connection. Send must not block on a slow peer.
type Conn interface {
	ID() string
	Send(ctx context.Context, msg ServerMessage) error
}

// Authorizer resolves an auth token to a username.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (string, error)
}

// GameRepository loads and persists games.
type GameRepository interface {
	Find(ctx context.Context, id int) (*game.Game, error)
	Save(ctx context.Context, g *game.Game, expectedVersion int) error
}

// Manager processes live-game commands and fans results out to every
// connection attached to the game. Commands for one game ID are serialized
// from load to fan-out; different games proceed in parallel.
type Manager struct {
	registry *Registry
	locks    gameLocks
	auth     Authorizer
	games    GameRepository
	log      *zap.Logger
	now      func() time.Time
}

func NewManager(auth Authorizer, games GameRepository, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		registry: NewRegistry(),
		auth:     auth,
		games:    games,
		log:      log,
		now:      time.Now,
	}
}

// Registry exposes the connection registry for inspection.
func (m *Manager) Registry() *Registry { return m.registry }

// Handle runs one command for c. Failures are reported to c alone as an
// ERROR message; the connection stays open.
func (m *Manager) Handle(ctx context.Context, c Conn, cmd Command) {
	if err := m.handle(ctx, c, cmd); err != nil {
		m.Reject(ctx, c, cmd, err)
	}
}

// Reject logs err and sends c the matching ERROR message.
func (m *Manager) Reject(ctx context.Context, c Conn, cmd Command, err error) {
	fields := []zap.Field{
		zap.String("conn_id", c.ID()),
		zap.Int("game_id", cmd.GameID),
		zap.String("command", string(cmd.CommandType)),
		zap.Error(err),
	}
	var ce *commandError
	if errors.As(err, &ce) {
		m.log.Info("command rejected", fields...)
	} else {
		m.log.Error("command failed", fields...)
	}
	m.send(ctx, c, ErrorMessage(clientMessage(err)))
}

// Disconnect drops c from every game it was attached to. It is safe to call
// more than once and sends no notifications.
func (m *Manager) Disconnect(c Conn) {
	if games := m.registry.DetachAll(c); len(games) > 0 {
		m.log.Debug("connection detached", zap.String("conn_id", c.ID()), zap.Ints("game_ids", games))
	}
}

func (m *Manager) handle(ctx context.Context, c Conn, cmd Command) error {
	switch cmd.CommandType {
	case Connect, MakeMove, Leave, Resign:
	default:
		return reject(reasonUnknownCommand, ErrUnknownCommand)
	}

	username, err := m.auth.Authorize(ctx, cmd.AuthToken)
	if errors.Is(err, usecase.ErrUnauthorized) {
		return reject(reasonUnauthorized, err)
	}
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}

	unlock := m.locks.lock(cmd.GameID)
	defer unlock()

	g, err := m.games.Find(ctx, cmd.GameID)
	if errors.Is(err, ports.ErrNotFound) {
		return reject(reasonInvalidGame, err)
	}
	if err != nil {
		return fmt.Errorf("find game %d: %w", cmd.GameID, err)
	}

	switch cmd.CommandType {
	case Connect:
		return m.connect(ctx, c, username, g)
	case MakeMove:
		return m.makeMove(ctx, c, username, g, cmd.Move)
	case Leave:
		return m.leave(ctx, c, username, g)
	default:
		return m.resign(ctx, c, username, g)
	}
}

func (m *Manager) connect(ctx context.Context, c Conn, username string, g *game.Game) error {
	m.registry.Attach(g.ID, c)
	m.send(ctx, c, LoadGameMessage(g))

	role := "an observer"
	if color, ok := g.SeatOf(username); ok {
		role = strings.ToLower(color.String())
	}
	m.broadcast(ctx, g.ID, c, NotificationMessage(username+" has joined as "+role))
	return nil
}

func (m *Manager) makeMove(ctx context.Context, c Conn, username string, g *game.Game, move *chess.Move) error {
	color, seated := g.SeatOf(username)
	if !seated {
		return reject(reasonObserverMove, ErrObserverForbidden)
	}
	if !m.registry.Attached(g.ID, c) {
		return reject(reasonNotAttached, ErrNotAttached)
	}
	if !g.Match.Playable() {
		return reject(reasonNotPlayable, chess.ErrGameOver)
	}
	if g.Match.Turn() != color {
		return reject(reasonNotYourTurn, chess.ErrIllegalMove)
	}
	if move == nil {
		return reject(reasonMissingMove, ErrMissingMove)
	}

	next, err := g.ApplyMove(*move, m.now())
	if err != nil {
		return reject(reasonIllegalMove, err)
	}
	if err := m.save(ctx, next, g.StateVersion); err != nil {
		return err
	}

	load := LoadGameMessage(next)
	moved := NotificationMessage(moveText(username, *move))
	status, hasStatus := statusText(next)
	for _, conn := range m.registry.Conns(g.ID) {
		m.send(ctx, conn, load)
		if conn.ID() != c.ID() {
			m.send(ctx, conn, moved)
		}
		if hasStatus {
			m.send(ctx, conn, NotificationMessage(status))
		}
	}
	return nil
}

func (m *Manager) leave(ctx context.Context, c Conn, username string, g *game.Game) error {
	if !m.registry.Attached(g.ID, c) {
		return reject(reasonNotAttached, ErrNotAttached)
	}
	if color, ok := g.SeatOf(username); ok {
		next, err := g.ClearSeat(color, m.now())
		if err != nil {
			return err
		}
		if err := m.save(ctx, next, g.StateVersion); err != nil {
			return err
		}
	}

	m.registry.Detach(g.ID, c)
	m.broadcast(ctx, g.ID, c, NotificationMessage(username+" has left the game"))
	return nil
}

func (m *Manager) resign(ctx context.Context, c Conn, username string, g *game.Game) error {
	if !m.registry.Attached(g.ID, c) {
		return reject(reasonNotAttached, ErrNotAttached)
	}
	if _, seated := g.SeatOf(username); !seated {
		return reject(reasonObserverResign, ErrObserverForbidden)
	}
	next, err := g.Resign(m.now())
	if err != nil {
		return reject(reasonNotPlayable, err)
	}
	if err := m.save(ctx, next, g.StateVersion); err != nil {
		return err
	}

	m.broadcast(ctx, g.ID, nil, NotificationMessage(username+" has resigned"))
	return nil
}

func (m *Manager) save(ctx context.Context, next *game.Game, expectedVersion int) error {
	err := m.games.Save(ctx, next, expectedVersion)
	if errors.Is(err, ports.ErrVersionConflict) {
		return reject(reasonConflict, err)
	}
	if err != nil {
		return fmt.Errorf("save game %d: %w", next.ID, err)
	}
	return nil
}

// broadcast sends msg to every connection on gameID except skip (nil skips none).
func (m *Manager) broadcast(ctx context.Context, gameID int, skip Conn, msg ServerMessage) {
	for _, conn := range m.registry.Conns(gameID) {
		if skip != nil && conn.ID() == skip.ID() {
			continue
		}
		m.send(ctx, conn, msg)
	}
}

func (m *Manager) send(ctx context.Context, c Conn, msg ServerMessage) {
	if err := c.Send(ctx, msg); err != nil {
		te := &TransportError{ConnID: c.ID(), Err: err}
		m.log.Warn("send failed",
			zap.String("conn_id", c.ID()),
			zap.String("message_type", string(msg.ServerMessageType)),
			zap.Error(te),
		)
	}
}

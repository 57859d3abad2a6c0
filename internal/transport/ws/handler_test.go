package ws_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/randomtoy/live-chess/internal/adapters/memory"
	"github.com/randomtoy/live-chess/internal/domain/chess"
	"github.com/randomtoy/live-chess/internal/session"
	"github.com/randomtoy/live-chess/internal/transport/ws"
	"github.com/randomtoy/live-chess/internal/usecase"
)

type env struct {
	srv    *httptest.Server
	h      *ws.Handler
	mgr    *session.Manager
	gameID int
	alice  string
	bob    string
}

func setup(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	rl := memory.AlwaysAllow{}
	accounts := usecase.NewAccounts(store, store, rl, bcrypt.MinCost)
	games := usecase.NewGames(store, accounts, rl)

	alice, err := accounts.Register(ctx, "ip", "alice", "pw", "a@example.com")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bob, err := accounts.Register(ctx, "ip", "bob", "pw", "b@example.com")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}
	g, err := games.Create(ctx, "ip", alice.Token, "live")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := games.Join(ctx, "ip", alice.Token, g.ID, chess.White); err != nil {
		t.Fatalf("join white: %v", err)
	}
	if err := games.Join(ctx, "ip", bob.Token, g.ID, chess.Black); err != nil {
		t.Fatalf("join black: %v", err)
	}

	mgr := session.NewManager(accounts, games, nil)
	h := ws.NewHandler(mgr, nil, ws.Options{PingInterval: time.Minute})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return env{srv: srv, h: h, mgr: mgr, gameID: g.ID, alice: alice.Token, bob: bob.Token}
}

func dial(t *testing.T, e env) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(e.srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func send(t *testing.T, c *websocket.Conn, cmd session.Command) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, c, cmd); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, c *websocket.Conn) session.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var msg session.ServerMessage
	if err := wsjson.Read(ctx, c, &msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestLiveGameOverWebsocket(t *testing.T) {
	e := setup(t)
	a, b := dial(t, e), dial(t, e)

	send(t, a, session.Command{CommandType: session.Connect, AuthToken: e.alice, GameID: e.gameID})
	if msg := recv(t, a); msg.ServerMessageType != session.TypeLoadGame || msg.Game.TeamTurn != chess.White {
		t.Fatalf("a: unexpected %+v", msg)
	}

	send(t, b, session.Command{CommandType: session.Connect, AuthToken: e.bob, GameID: e.gameID})
	if msg := recv(t, b); msg.ServerMessageType != session.TypeLoadGame {
		t.Fatalf("b: unexpected %+v", msg)
	}
	if msg := recv(t, a); msg.Message != "bob has joined as black" {
		t.Fatalf("a: unexpected %+v", msg)
	}

	move := &chess.Move{Start: chess.MustSquare("e2"), End: chess.MustSquare("e4")}
	send(t, a, session.Command{CommandType: session.MakeMove, AuthToken: e.alice, GameID: e.gameID, Move: move})

	if msg := recv(t, a); msg.ServerMessageType != session.TypeLoadGame || msg.Game.TeamTurn != chess.Black {
		t.Fatalf("a: unexpected %+v", msg)
	}
	if msg := recv(t, b); msg.ServerMessageType != session.TypeLoadGame {
		t.Fatalf("b: unexpected %+v", msg)
	}
	if msg := recv(t, b); msg.Message != "alice has moved from e2 to e4." {
		t.Fatalf("b: unexpected %+v", msg)
	}

	// Errors reach only the sender and leave the connection usable.
	send(t, b, session.Command{CommandType: session.MakeMove, AuthToken: e.bob, GameID: e.gameID, Move: move})
	if msg := recv(t, b); msg.ServerMessageType != session.TypeError || msg.ErrorMessage != "Error: illegal move" {
		t.Fatalf("b: unexpected %+v", msg)
	}
	send(t, b, session.Command{CommandType: session.Resign, AuthToken: e.bob, GameID: e.gameID})
	for _, c := range []*websocket.Conn{a, b} {
		if msg := recv(t, c); msg.Message != "bob has resigned" {
			t.Fatalf("unexpected %+v", msg)
		}
	}
}

func TestMalformedFrameKeepsConnectionOpen(t *testing.T) {
	e := setup(t)
	a := dial(t, e)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := recv(t, a); msg.ServerMessageType != session.TypeError || msg.ErrorMessage != "Error: malformed command" {
		t.Fatalf("unexpected %+v", msg)
	}

	send(t, a, session.Command{CommandType: session.Connect, AuthToken: e.alice, GameID: e.gameID})
	if msg := recv(t, a); msg.ServerMessageType != session.TypeLoadGame {
		t.Fatalf("unexpected %+v", msg)
	}
}

func TestCloseDetachesConnection(t *testing.T) {
	e := setup(t)
	a, b := dial(t, e), dial(t, e)

	send(t, a, session.Command{CommandType: session.Connect, AuthToken: e.alice, GameID: e.gameID})
	recv(t, a)
	send(t, b, session.Command{CommandType: session.Connect, AuthToken: e.bob, GameID: e.gameID})
	recv(t, b)
	recv(t, a)

	if got := len(e.mgr.Registry().Conns(e.gameID)); got != 2 {
		t.Fatalf("expected 2 attached, got %d", got)
	}

	_ = a.Close(websocket.StatusNormalClosure, "bye")

	deadline := time.Now().Add(5 * time.Second)
	for len(e.mgr.Registry().Conns(e.gameID)) != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("connection was not detached after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestShutdownClosesConnections(t *testing.T) {
	e := setup(t)
	c := dial(t, e)
	send(t, c, session.Command{CommandType: session.Connect, AuthToken: e.alice, GameID: e.gameID})
	if msg := recv(t, c); msg.ServerMessageType != session.TypeLoadGame {
		t.Fatalf("expected LOAD_GAME, got %+v", msg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- e.h.Shutdown(ctx) }()

	rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer rcancel()
	_, _, err := c.Read(rctx)
	if status := websocket.CloseStatus(err); status != websocket.StatusGoingAway {
		t.Fatalf("expected StatusGoingAway, got %v (%v)", status, err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := len(e.mgr.Registry().Conns(e.gameID)); got != 0 {
		t.Fatalf("expected no attached connections after shutdown, got %d", got)
	}

	dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dcancel()
	if _, _, err := websocket.Dial(dctx, "ws"+strings.TrimPrefix(e.srv.URL, "http"), nil); err == nil {
		t.Fatal("expected dial to fail after shutdown")
	}
}

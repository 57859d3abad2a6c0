package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/randomtoy/live-chess/internal/session"
)

var (
	ErrClosed       = errors.New("connection closed")
	ErrSlowConsumer = errors.New("send queue full")
)

// conn adapts a websocket to session.Conn. Send only enqueues; a dedicated
// writer goroutine drains the queue so one slow peer never stalls a fan-out.
type conn struct {
	id  string
	ws  *websocket.Conn
	log *zap.Logger

	writeTimeout time.Duration
	out          chan session.ServerMessage

	done        chan struct{}
	closeOnce   sync.Once
	closeStatus websocket.StatusCode
	closeReason string
}

func newConn(id string, c *websocket.Conn, buffer int, writeTimeout time.Duration, log *zap.Logger) *conn {
	return &conn{
		id:           id,
		ws:           c,
		log:          log,
		writeTimeout: writeTimeout,
		out:          make(chan session.ServerMessage, buffer),
		done:         make(chan struct{}),
	}
}

func (c *conn) ID() string { return c.id }

func (c *conn) Send(_ context.Context, msg session.ServerMessage) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.out <- msg:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		c.close(websocket.StatusPolicyViolation, "too slow")
		return ErrSlowConsumer
	}
}

// close marks the connection closed; the writer performs the close handshake.
func (c *conn) close(status websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.closeStatus = status
		c.closeReason = reason
		close(c.done)
	})
}

func (c *conn) writeLoop(ctx context.Context) {
	defer func() {
		c.close(websocket.StatusNormalClosure, "")
		_ = c.ws.Close(c.closeStatus, c.closeReason)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
			err := wsjson.Write(wctx, c.ws, msg)
			cancel()
			if err != nil {
				c.log.Warn("ws write failed", zap.String("conn_id", c.id), zap.Error(err))
				c.close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func (c *conn) pingLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, interval/2)
			err := c.ws.Ping(pctx)
			cancel()
			if err != nil {
				c.log.Info("ws ping failed", zap.String("conn_id", c.id), zap.Error(err))
				c.close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

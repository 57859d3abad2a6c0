package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/randomtoy/live-chess/internal/session"
)

// Options tunes the live-game endpoint.
type Options struct {
	// AllowedOrigins are host patterns accepted during the handshake; empty
	// accepts any origin.
	AllowedOrigins []string
	SendBuffer     int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	return o
}

// Handler upgrades requests to websockets and feeds each frame to the
// session manager.
type Handler struct {
	mgr  *session.Manager
	log  *zap.Logger
	opts Options

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	active sync.WaitGroup
}

func NewHandler(mgr *session.Manager, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{mgr: mgr, log: log, opts: opts.withDefaults(), done: make(chan struct{})}
}

// Shutdown closes every open connection with StatusGoingAway and waits for
// their handlers to finish or ctx to expire. New upgrades are refused.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
	h.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		h.active.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) enter() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.active.Add(1)
	return true
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.enter() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.active.Done()

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.opts.AllowedOrigins,
		InsecureSkipVerify: len(h.opts.AllowedOrigins) == 0,
	})
	if err != nil {
		h.log.Info("ws accept failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	c := newConn(uuid.NewString(), wsConn, h.opts.SendBuffer, h.opts.WriteTimeout, h.log)
	log := h.log.With(zap.String("conn_id", c.id))
	log.Debug("ws connected", zap.String("remote", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); c.writeLoop(ctx) }()
	go func() { defer wg.Done(); c.pingLoop(ctx, h.opts.PingInterval) }()
	go func() {
		defer wg.Done()
		select {
		case <-h.done:
			c.close(websocket.StatusGoingAway, "server shutting down")
		case <-ctx.Done():
		}
	}()

	defer func() {
		h.mgr.Disconnect(c)
		c.close(websocket.StatusNormalClosure, "")
		cancel()
		wg.Wait()
		log.Debug("ws disconnected")
	}()

	for {
		typ, data, err := wsConn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == -1 {
				log.Debug("ws read ended", zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		cmd, err := session.DecodeCommand(data)
		if err != nil {
			h.mgr.Reject(ctx, c, session.Command{}, err)
			continue
		}
		h.mgr.Handle(ctx, c, cmd)
	}
}

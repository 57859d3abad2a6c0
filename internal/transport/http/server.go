package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Options configures the router.
type Options struct {
	Logger *zap.Logger
	// CORSOrigins are allowed browser origins; empty allows any.
	CORSOrigins []string
	// LiveGame serves the websocket endpoint; nil leaves it unrouted.
	LiveGame http.Handler
}

// New constructs and returns a configured Echo instance.
func New(h *Handlers, opts Options) *echo.Echo {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if err, ok := c.Get(ctxKeyError).(error); ok {
				log.Error("request", append(fields, zap.Error(err))...)
				return nil
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	api := e.Group("/api/v1")
	api.GET("/healthz", h.handleHealthz)
	api.POST("/users", h.handleRegister)
	api.POST("/session", h.handleLogin)
	api.DELETE("/session", h.handleLogout)
	api.GET("/games", h.handleListGames)
	api.POST("/games", h.handleCreateGame)
	api.GET("/games/:game_id", h.handleGetGame)
	api.PUT("/games/:game_id/seat", h.handleJoinGame)
	api.DELETE("/db", h.handleClear)
	if opts.LiveGame != nil {
		api.GET("/ws", echo.WrapHandler(opts.LiveGame))
	}

	return e
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/randomtoy/live-chess/internal/adapters/memory"
	pgstore "github.com/randomtoy/live-chess/internal/adapters/postgres"
	redisstore "github.com/randomtoy/live-chess/internal/adapters/redis"
	"github.com/randomtoy/live-chess/internal/config"
	"github.com/randomtoy/live-chess/internal/logging"
	"github.com/randomtoy/live-chess/internal/ports"
	"github.com/randomtoy/live-chess/internal/session"
	transporthttp "github.com/randomtoy/live-chess/internal/transport/http"
	"github.com/randomtoy/live-chess/internal/transport/ws"
	"github.com/randomtoy/live-chess/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var rl ports.RateLimiter = memory.AlwaysAllow{}
	if cfg.RateLimit.RPS > 0 {
		rl = memory.NewTokenBucket(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	accounts := usecase.NewAccounts(store, store, rl, cfg.BcryptCost)
	games := usecase.NewGames(store, accounts, rl)
	admin := usecase.NewAdmin(store, rl)

	mgr := session.NewManager(accounts, games, log.Named("session"))
	live := ws.NewHandler(mgr, log.Named("ws"), ws.Options{
		AllowedOrigins: cfg.WS.AllowedOrigins,
		SendBuffer:     cfg.WS.SendBuffer,
		WriteTimeout:   cfg.WS.WriteTimeout,
		PingInterval:   cfg.WS.PingInterval,
	})

	e := transporthttp.New(transporthttp.NewHandlers(accounts, games, admin), transporthttp.Options{
		Logger:      log.Named("http"),
		CORSOrigins: cfg.CORSOrigins,
		LiveGame:    live,
	})

	errc := make(chan error, 1)
	go func() {
		log.Info("starting", zap.String("port", cfg.Port), zap.String("store", cfg.Store))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := live.Shutdown(shutdownCtx); err != nil {
		log.Warn("websocket shutdown", zap.Error(err))
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errc
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (ports.Store, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		if err := pool.Ping(connectCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		log.Info("connected to database")
		return pgstore.New(pool), pool.Close, nil
	case config.StoreRedis:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		rdb, err := redisstore.Dial(connectCtx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to redis")
		return redisstore.New(rdb), func() { _ = rdb.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}

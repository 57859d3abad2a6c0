package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/randomtoy/live-chess/internal/db"
	"github.com/randomtoy/live-chess/internal/logging"
)

// Usage: migrate [up|down|status|version|redo|reset|up-to N|down-to N]
func main() {
	log, err := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	cmd, args := "up", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		log.Fatal("open db", zap.Error(err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		log.Fatal("ping db", zap.Error(err))
	}

	goose.SetBaseFS(db.Migrations)
	goose.SetLogger(zap.NewStdLog(log.Named("goose")))
	if err := goose.SetDialect(db.Dialect); err != nil {
		log.Fatal("goose set dialect", zap.Error(err))
	}

	if err := goose.RunContext(ctx, cmd, conn, db.MigrationsDir, args...); err != nil {
		log.Fatal("goose "+cmd, zap.Error(err))
	}
	log.Info("migrations done", zap.String("command", cmd))
}

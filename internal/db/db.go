// Package db embeds the goose migrations for the postgres store.
package db

import "embed"

const (
	Dialect       = "postgres"
	MigrationsDir = "migrations"
)

// Migrations holds the SQL files applied by cmd/migrate and the postgres
// integration tests.
//
//go:embed migrations/*.sql
var Migrations embed.FS

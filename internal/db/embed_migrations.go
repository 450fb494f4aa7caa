package db

import "embed"

// MigrationFS holds the SQL migrations applied at startup or by cmd/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS

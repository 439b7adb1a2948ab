// Package db embeds the SQL schema migrations for the relational stores.
package db

import "embed"

//go:embed migrations/sqlite/*.sql
var SQLiteMigrations embed.FS

//go:embed migrations/postgres/*.sql
var PostgresMigrations embed.FS

// Package db embeds the schema migrations
package db

import "embed"

// Migrations holds the goose migration files
//
//go:embed migrations/*.sql
var Migrations embed.FS

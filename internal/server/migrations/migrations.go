// Package migrations embeds the PostgreSQL schema migrations of the server.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

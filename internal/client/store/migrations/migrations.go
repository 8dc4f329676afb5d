// Package migrations embeds the SQLite schema migrations for the local
// save-sync database. Applied with goose at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

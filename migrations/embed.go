// Package migrations embeds the versioned SQL migrations applied by golang-migrate.
package migrations

import "embed"

// Dir is the directory inside FS holding the SQLite migrations.
const Dir = "sqlite"

// FS holds the SQLite migrations.
//
//go:embed sqlite/*.sql
var FS embed.FS

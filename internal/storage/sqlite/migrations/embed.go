package migrations

import "embed"

// FS contains embedded SQLite migrations for ban storage.
//
//go:embed *.sql
var FS embed.FS

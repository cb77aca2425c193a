// Package migrations holds the SQLite schema migration files and the
// runner that applies them in lexical order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

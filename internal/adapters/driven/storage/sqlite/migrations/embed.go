// Package migrations ships the SQLite schema as numbered up/down scripts.
package migrations

import "embed"

// FS holds NNN_name.up.sql and NNN_name.down.sql pairs, applied in order.
//
//go:embed *.sql
var FS embed.FS

// Package migrations holds the embedded SQLite schema for the record store.
package migrations

import "embed"

// FS contains the ordered *.sql migrations.
//
//go:embed *.sql
var FS embed.FS

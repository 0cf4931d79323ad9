// Package migrations ships the SQL schema with the binary
package migrations

import "embed"

// FS holds the versioned migration files
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the versioned postgres schema.
package migrations

import "embed"

// FS holds every NNNNNN_name.{up,down}.sql file
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the versioned Postgres schema so binaries and
// tests apply the same files without depending on the working directory.
package migrations

import "embed"

// FS holds the NNNN_name.up.sql / NNNN_name.down.sql pairs.
//
//go:embed *.sql
var FS embed.FS

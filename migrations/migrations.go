// Package migrations embeds the SQL migrations for the Postgres job store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

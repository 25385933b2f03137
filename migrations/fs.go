// Package migrations embeds the SQL schema migrations for the turn service.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package migrations embeds the SQL schema for the PostgreSQL directory.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

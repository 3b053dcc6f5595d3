// Package migrations embeds the schema of the local store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

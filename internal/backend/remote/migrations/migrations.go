// Package migrations embeds the schema, roles and row-level policies of the
// remote store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

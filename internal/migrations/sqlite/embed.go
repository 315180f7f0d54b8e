// Package sqlite embeds the schema migrations for the terminal client's local
// database.
package sqlite

import "embed"

//go:embed *.sql
var Migrations embed.FS

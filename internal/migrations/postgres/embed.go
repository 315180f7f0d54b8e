// Package postgres embeds the schema migrations for the self-hosted
// credential and profile stores.
package postgres

import "embed"

//go:embed *.sql
var Migrations embed.FS

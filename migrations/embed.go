// Package migrations holds the PostgreSQL schema for the clinic store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

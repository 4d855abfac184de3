// Package migrations embeds the book service schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package migrations embeds the user store schema, applied with goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

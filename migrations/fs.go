package migrations

import "embed"

//go:embed *.sql analytics/*.sql
var FS embed.FS

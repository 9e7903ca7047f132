// migrations содержит goose-миграции схемы БД, встроенные в бинарь.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

// Package migrations embeds the goose SQL migrations.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

//go:embed *.sql
var FS embed.FS

// NewProvider returns a goose provider over the embedded migrations that records
// versions in table.
func NewProvider(dialect goose.Dialect, db *sql.DB, table string) (*goose.Provider, error) {
	store, err := database.NewStore(dialect, table)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider("", db, FS, goose.WithStore(store))
}

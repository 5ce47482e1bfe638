package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Column struct {
	Name     string `db:"column_name"`
	DataType string `db:"data_type"`
}

// SchemaDiff compares a table's live columns with the expected model.
type SchemaDiff struct {
	Missing    []string `json:"missing,omitempty"`
	Unexpected []string `json:"unexpected,omitempty"`
}

func (d SchemaDiff) Empty() bool {
	return len(d.Missing) == 0 && len(d.Unexpected) == 0
}

func (d SchemaDiff) String() string {
	return fmt.Sprintf("missing=%v unexpected=%v", d.Missing, d.Unexpected)
}

// Inspector reads catalog information for postgres (pgx) and sqlite connections.
type Inspector struct {
	db *sqlx.DB
}

func NewInspector(db *sqlx.DB) *Inspector {
	return &Inspector{db: db}
}

// InspectorFromGorm shares gorm's pool. driverName selects the dialect ("pgx" or "sqlite3").
func InspectorFromGorm(db *gorm.DB, driverName string) (*Inspector, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return NewInspector(sqlx.NewDb(sqlDB, driverName)), nil
}

func (i *Inspector) DB() *sqlx.DB {
	return i.db
}

func (i *Inspector) sqlite() bool {
	switch i.db.DriverName() {
	case "sqlite3", "sqlite":
		return true
	}
	return false
}

func (i *Inspector) Ping(ctx context.Context) error {
	return i.db.PingContext(ctx)
}

func (i *Inspector) ServerVersion(ctx context.Context) (string, error) {
	query := "SELECT version()"
	if i.sqlite() {
		query = "SELECT sqlite_version()"
	}
	var version string
	err := i.db.GetContext(ctx, &version, query)
	return version, err
}

func (i *Inspector) Tables(ctx context.Context) ([]string, error) {
	query := `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`
	if i.sqlite() {
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	}
	var tables []string
	err := i.db.SelectContext(ctx, &tables, query)
	return tables, err
}

func (i *Inspector) HasTable(ctx context.Context, table string) (bool, error) {
	tables, err := i.Tables(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if t == table {
			return true, nil
		}
	}
	return false, nil
}

func (i *Inspector) Columns(ctx context.Context, table string) ([]Column, error) {
	query := i.db.Rebind(`SELECT column_name, data_type FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position`)
	if i.sqlite() {
		query = `SELECT name AS column_name, type AS data_type FROM pragma_table_info(?) ORDER BY cid`
	}
	var columns []Column
	err := i.db.SelectContext(ctx, &columns, query, table)
	return columns, err
}

// Indexes lists index names on table, including those backing unique constraints.
func (i *Inspector) Indexes(ctx context.Context, table string) ([]string, error) {
	query := i.db.Rebind(`SELECT indexname FROM pg_indexes WHERE schemaname = current_schema() AND tablename = ? ORDER BY indexname`)
	if i.sqlite() {
		query = `SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name NOT LIKE 'sqlite_%' ORDER BY name`
	}
	var indexes []string
	err := i.db.SelectContext(ctx, &indexes, query, table)
	return indexes, err
}

// MigrationVersion returns the highest applied goose version recorded in table,
// or 0 when nothing has been applied.
func (i *Inspector) MigrationVersion(ctx context.Context, table string) (int64, error) {
	if !identifierPattern.MatchString(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}
	var version sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(version_id) FROM %s WHERE is_applied", table)
	if i.sqlite() {
		query = fmt.Sprintf("SELECT MAX(version_id) FROM %s WHERE is_applied = 1", table)
	}
	if err := i.db.GetContext(ctx, &version, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return version.Int64, nil
}

// VerifyColumns reports expected columns the table lacks and live columns the model does not know.
func (i *Inspector) VerifyColumns(ctx context.Context, table string, expected []string) (SchemaDiff, error) {
	columns, err := i.Columns(ctx, table)
	if err != nil {
		return SchemaDiff{}, err
	}
	if len(columns) == 0 {
		return SchemaDiff{}, fmt.Errorf("table %s does not exist", table)
	}

	live := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		live[c.Name] = struct{}{}
	}
	want := make(map[string]struct{}, len(expected))
	for _, name := range expected {
		want[name] = struct{}{}
	}

	var diff SchemaDiff
	for name := range want {
		if _, ok := live[name]; !ok {
			diff.Missing = append(diff.Missing, name)
		}
	}
	for name := range live {
		if _, ok := want[name]; !ok {
			diff.Unexpected = append(diff.Unexpected, name)
		}
	}
	sort.Strings(diff.Missing)
	sort.Strings(diff.Unexpected)
	return diff, nil
}

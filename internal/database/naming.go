package database

import (
	"strings"

	"gorm.io/gorm/schema"
)

// Constraint kinds used in generated names such as uq__users__email.
const (
	KindIndex      = "ix"
	KindUnique     = "uq"
	KindCheck      = "ck"
	KindForeignKey = "fk"
	KindPrimaryKey = "pk"
)

// ConstraintName joins kind, table and columns with double underscores.
// Primary keys take only the table: pk__users.
func ConstraintName(kind, table string, columns ...string) string {
	parts := append([]string{kind, table}, columns...)
	return strings.Join(parts, "__")
}

// ConventionNamer keeps gorm's default table and column naming and replaces the
// generated index, unique, check and foreign key names with the project convention.
type ConventionNamer struct {
	schema.NamingStrategy
}

func NewConventionNamer() ConventionNamer {
	return ConventionNamer{}
}

func (n ConventionNamer) IndexName(table, column string) string {
	return ConstraintName(KindIndex, table, n.ColumnName(table, column))
}

func (n ConventionNamer) UniqueName(table, column string) string {
	return ConstraintName(KindUnique, table, n.ColumnName(table, column))
}

func (n ConventionNamer) CheckerName(table, column string) string {
	return ConstraintName(KindCheck, table, n.ColumnName(table, column))
}

func (n ConventionNamer) RelationshipFKName(rel schema.Relationship) string {
	return ConstraintName(KindForeignKey, rel.Schema.Table, n.ColumnName(rel.Schema.Table, rel.Name))
}

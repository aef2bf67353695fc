// Package schema defines the portable schema model and the per-dialect
// introspectors that populate it from a live database.
//
// Introspection is the trust anchor of the whole engine: the dependency
// sorter, the dumper, and the migration guard all consume its output, so a
// failed metadata query aborts the run instead of degrading silently.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/sin5ddd/sqlew/internal/database"
)

// Introspector reads live schema metadata, normalized to one shape
// regardless of source dialect.
type Introspector interface {
	// ListTables returns every user table with columns, primary key,
	// foreign keys, and indexes, ordered by table name.
	ListTables(ctx context.Context) ([]TableDefinition, error)

	// ForeignKeys returns the outgoing foreign key edges of one table.
	ForeignKeys(ctx context.Context, table string) ([]ForeignKeyRef, error)

	// ObjectExists reports whether the named object exists. table is only
	// consulted for ObjectColumn and ObjectIndex kinds.
	ObjectExists(ctx context.Context, kind ObjectKind, name, table string) (bool, error)
}

// For returns the Introspector matching the connection's dialect.
func For(db database.DB) (Introspector, error) {
	switch db.Dialect() {
	case database.DialectSQLite:
		return &sqliteIntrospector{db: db}, nil
	case database.DialectMySQL:
		return &mysqlIntrospector{db: db}, nil
	case database.DialectPostgres:
		return &postgresIntrospector{db: db}, nil
	default:
		return nil, database.NewError(database.ErrKindInvalidInput,
			fmt.Sprintf("no introspector for dialect %q", db.Dialect()))
	}
}

// introspectionErr wraps a metadata query failure. Fatal by contract.
func introspectionErr(msg string, cause error) error {
	return database.WrapError(database.ErrKindIntrospection, msg, cause)
}

// mapNativeType converts a driver-reported type name to the logical type.
// Unrecognized names degrade to TypeText so a dump still round-trips the
// values as quoted literals.
func mapNativeType(native string) ColumnType {
	switch strings.ToLower(native) {
	case "integer", "int", "bigint", "smallint", "tinyint", "int4", "int8", "int2", "mediumint":
		return TypeInteger
	case "boolean", "bool", "tinyint(1)":
		return TypeBoolean
	case "real", "double", "float", "double precision", "numeric", "decimal", "float4", "float8":
		return TypeReal
	default:
		return TypeText
	}
}

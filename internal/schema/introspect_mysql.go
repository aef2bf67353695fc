package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sin5ddd/sqlew/internal/database"
)

// mysqlIntrospector reads schema metadata from information_schema, scoped to
// the connection's current database via DATABASE().
type mysqlIntrospector struct {
	db database.DB
}

func (m *mysqlIntrospector) ListTables(ctx context.Context) ([]TableDefinition, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	names, err := m.stringList(ctx, q)
	if err != nil {
		return nil, introspectionErr("list tables", err)
	}

	var tables []TableDefinition
	for _, name := range names {
		t, err := m.inspectTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, nil
}

func (m *mysqlIntrospector) inspectTable(ctx context.Context, table string) (*TableDefinition, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       is_nullable = 'YES',
		       column_default,
		       character_maximum_length,
		       column_key,
		       extra
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
		ORDER BY ordinal_position`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, introspectionErr(fmt.Sprintf("columns for %s", table), err)
	}
	defer rows.Close()

	t := &TableDefinition{Name: table}
	for rows.Next() {
		var (
			col        ColumnDefinition
			nativeType string
			defaultVal sql.NullString
			maxLen     sql.NullInt64
			columnKey  string
			extra      string
		)
		if err := rows.Scan(&col.Name, &nativeType, &col.Nullable, &defaultVal, &maxLen, &columnKey, &extra); err != nil {
			return nil, introspectionErr("scan column", err)
		}
		col.Type = mapNativeType(nativeType)
		if defaultVal.Valid {
			col.Default = defaultVal.String
		}
		if maxLen.Valid {
			col.MaxLength = int(maxLen.Int64)
		}
		if columnKey == "PRI" {
			t.PrimaryKey = append(t.PrimaryKey, col.Name)
			if extra == "auto_increment" {
				col.Type = TypeSerial
			}
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, introspectionErr("iterate columns", err)
	}

	fks, err := m.ForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	t.ForeignKeys = fks

	idxs, err := m.indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	t.Indexes = idxs

	return t, nil
}

func (m *mysqlIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKeyRef, error) {
	const q = `
		SELECT kcu.column_name,
		       kcu.referenced_table_name,
		       kcu.referenced_column_name,
		       rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_name   = kcu.constraint_name
		 AND rc.constraint_schema = kcu.table_schema
		WHERE kcu.table_schema           = DATABASE()
		  AND kcu.table_name             = ?
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.ordinal_position`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, introspectionErr(fmt.Sprintf("foreign keys for %s", table), err)
	}
	defer rows.Close()

	var fks []ForeignKeyRef
	for rows.Next() {
		var fk ForeignKeyRef
		var deleteRule string
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn, &deleteRule); err != nil {
			return nil, introspectionErr("scan foreign key", err)
		}
		fk.OnDelete = normalizeAction(deleteRule)
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func (m *mysqlIntrospector) indexes(ctx context.Context, table string) ([]IndexDefinition, error) {
	const q = `
		SELECT index_name,
		       column_name,
		       non_unique
		FROM information_schema.statistics
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
		  AND index_name  != 'PRIMARY'
		ORDER BY index_name, seq_in_index`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, introspectionErr(fmt.Sprintf("indexes for %s", table), err)
	}
	defer rows.Close()

	var idxs []IndexDefinition
	byName := map[string]int{}
	for rows.Next() {
		var name, column string
		var nonUnique int
		if err := rows.Scan(&name, &column, &nonUnique); err != nil {
			return nil, introspectionErr("scan index", err)
		}
		if pos, ok := byName[name]; ok {
			idxs[pos].Columns = append(idxs[pos].Columns, column)
			continue
		}
		byName[name] = len(idxs)
		idxs = append(idxs, IndexDefinition{
			Name:    name,
			Columns: []string{column},
			Unique:  nonUnique == 0,
		})
	}
	return idxs, rows.Err()
}

func (m *mysqlIntrospector) ObjectExists(ctx context.Context, kind ObjectKind, name, table string) (bool, error) {
	var q string
	var args []any

	switch kind {
	case ObjectTable:
		q = `SELECT COUNT(*) FROM information_schema.tables
		     WHERE table_schema = DATABASE() AND table_name = ?`
		args = []any{name}
	case ObjectView:
		q = `SELECT COUNT(*) FROM information_schema.views
		     WHERE table_schema = DATABASE() AND table_name = ?`
		args = []any{name}
	case ObjectColumn:
		q = `SELECT COUNT(*) FROM information_schema.columns
		     WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`
		args = []any{table, name}
	case ObjectIndex:
		q = `SELECT COUNT(*) FROM information_schema.statistics
		     WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`
		args = []any{table, name}
	default:
		return false, database.NewError(database.ErrKindInvalidInput,
			fmt.Sprintf("unknown object kind %d", kind))
	}

	var n int
	if err := m.db.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return false, introspectionErr(fmt.Sprintf("%s existence check for %s", kind, name), err)
	}
	return n > 0, nil
}

func (m *mysqlIntrospector) stringList(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := m.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

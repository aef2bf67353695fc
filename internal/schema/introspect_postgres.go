package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sin5ddd/sqlew/internal/database"
)

// postgresIntrospector reads schema metadata from information_schema and the
// pg_catalog views, scoped to the public schema.
type postgresIntrospector struct {
	db database.DB
}

func (p *postgresIntrospector) ListTables(ctx context.Context) ([]TableDefinition, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := p.db.Query(ctx, q)
	if err != nil {
		return nil, introspectionErr("list tables", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, introspectionErr("scan table name", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, introspectionErr("iterate tables", err)
	}

	var tables []TableDefinition
	for _, name := range names {
		t, err := p.inspectTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, nil
}

func (p *postgresIntrospector) inspectTable(ctx context.Context, table string) (*TableDefinition, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       is_nullable = 'YES',
		       column_default,
		       character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name   = $1
		ORDER BY ordinal_position`

	rows, err := p.db.Query(ctx, q, table)
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
		)
		if err := rows.Scan(&col.Name, &nativeType, &col.Nullable, &defaultVal, &maxLen); err != nil {
			return nil, introspectionErr("scan column", err)
		}
		col.Type = mapNativeType(nativeType)
		if defaultVal.Valid {
			col.Default = defaultVal.String
			// SERIAL columns surface as integer + nextval(...) default.
			if strings.HasPrefix(defaultVal.String, "nextval(") {
				col.Type = TypeSerial
				col.Default = ""
			}
		}
		if maxLen.Valid {
			col.MaxLength = int(maxLen.Int64)
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, introspectionErr("iterate columns", err)
	}

	pks, err := p.primaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	t.PrimaryKey = pks

	fks, err := p.ForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	t.ForeignKeys = fks

	idxs, err := p.indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	t.Indexes = idxs

	return t, nil
}

func (p *postgresIntrospector) primaryKey(ctx context.Context, table string) ([]string, error) {
	const q = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema    = 'public'
		  AND tc.table_name      = $1
		ORDER BY kcu.ordinal_position`

	rows, err := p.db.Query(ctx, q, table)
	if err != nil {
		return nil, introspectionErr(fmt.Sprintf("primary key for %s", table), err)
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, introspectionErr("scan primary key column", err)
		}
		pks = append(pks, col)
	}
	return pks, rows.Err()
}

func (p *postgresIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKeyRef, error) {
	const q = `
		SELECT kcu.column_name,
		       ccu.table_name  AS ref_table,
		       ccu.column_name AS ref_column,
		       rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		 AND tc.table_schema    = ccu.table_schema
		JOIN information_schema.referential_constraints rc
		  ON tc.constraint_name = rc.constraint_name
		 AND tc.table_schema    = rc.constraint_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema    = 'public'
		  AND tc.table_name      = $1
		ORDER BY kcu.ordinal_position`

	rows, err := p.db.Query(ctx, q, table)
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

func (p *postgresIntrospector) indexes(ctx context.Context, table string) ([]IndexDefinition, error) {
	const q = `
		SELECT i.relname,
		       ix.indisunique,
		       a.attname
		FROM pg_class t
		JOIN pg_index ix     ON t.oid = ix.indrelid
		JOIN pg_class i      ON i.oid = ix.indexrelid
		JOIN pg_attribute a  ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n  ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
		  AND n.nspname = 'public'
		  AND t.relname = $1
		  AND NOT ix.indisprimary
		ORDER BY i.relname, array_position(ix.indkey, a.attnum)`

	rows, err := p.db.Query(ctx, q, table)
	if err != nil {
		return nil, introspectionErr(fmt.Sprintf("indexes for %s", table), err)
	}
	defer rows.Close()

	var idxs []IndexDefinition
	byName := map[string]int{}
	for rows.Next() {
		var name, column string
		var unique bool
		if err := rows.Scan(&name, &unique, &column); err != nil {
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
			Unique:  unique,
		})
	}
	return idxs, rows.Err()
}

func (p *postgresIntrospector) ObjectExists(ctx context.Context, kind ObjectKind, name, table string) (bool, error) {
	var q string
	var args []any

	switch kind {
	case ObjectTable:
		q = `SELECT COUNT(*) FROM information_schema.tables
		     WHERE table_schema = 'public' AND table_name = $1`
		args = []any{name}
	case ObjectView:
		q = `SELECT COUNT(*) FROM information_schema.views
		     WHERE table_schema = 'public' AND table_name = $1`
		args = []any{name}
	case ObjectColumn:
		q = `SELECT COUNT(*) FROM information_schema.columns
		     WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2`
		args = []any{table, name}
	case ObjectIndex:
		q = `SELECT COUNT(*) FROM pg_indexes
		     WHERE schemaname = 'public' AND tablename = $1 AND indexname = $2`
		args = []any{table, name}
	default:
		return false, database.NewError(database.ErrKindInvalidInput,
			fmt.Sprintf("unknown object kind %d", kind))
	}

	var n int
	if err := p.db.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return false, introspectionErr(fmt.Sprintf("%s existence check for %s", kind, name), err)
	}
	return n > 0, nil
}

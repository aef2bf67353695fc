package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sin5ddd/sqlew/internal/database"
)

// sqliteIntrospector reads schema metadata through sqlite_master and the
// table_info / foreign_key_list / index_list PRAGMAs.
type sqliteIntrospector struct {
	db database.DB
}

func (s *sqliteIntrospector) ListTables(ctx context.Context) ([]TableDefinition, error) {
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := s.db.Query(ctx, q)
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
		t, err := s.inspectTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, nil
}

func (s *sqliteIntrospector) inspectTable(ctx context.Context, table string) (*TableDefinition, error) {
	t := &TableDefinition{Name: table}

	// PRAGMA statements do not take bound parameters.
	rows, err := s.db.Query(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, introspectionErr(fmt.Sprintf("table_info for %s", table), err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, introspectionErr("scan column", err)
		}

		col := ColumnDefinition{
			Name:     name,
			Type:     mapNativeType(typ),
			Nullable: notNull == 0,
		}
		if defaultVal.Valid {
			col.Default = strings.TrimSpace(defaultVal.String)
		}
		if pk > 0 {
			t.PrimaryKey = append(t.PrimaryKey, name)
			// A single INTEGER primary key is the rowid alias, i.e. serial.
			if pk == 1 && strings.EqualFold(typ, "INTEGER") {
				col.Type = TypeSerial
			}
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, introspectionErr("iterate columns", err)
	}

	fks, err := s.ForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	t.ForeignKeys = fks

	idxs, err := s.indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	t.Indexes = idxs

	return t, nil
}

func (s *sqliteIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKeyRef, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
	if err != nil {
		return nil, introspectionErr(fmt.Sprintf("foreign_key_list for %s", table), err)
	}
	defer rows.Close()

	var fks []ForeignKeyRef
	for rows.Next() {
		var (
			id, seq            int
			refTable, from     string
			to                 sql.NullString
			onUpdate, onDelete string
			match              string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, introspectionErr("scan foreign key", err)
		}
		fk := ForeignKeyRef{
			Column:   from,
			RefTable: refTable,
			OnDelete: normalizeAction(onDelete),
		}
		// "to" is NULL when the FK targets the referenced table's primary key.
		if to.Valid {
			fk.RefColumn = to.String
		} else {
			fk.RefColumn = "id"
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func (s *sqliteIntrospector) indexes(ctx context.Context, table string) ([]IndexDefinition, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf("PRAGMA index_list(%q)", table))
	if err != nil {
		return nil, introspectionErr(fmt.Sprintf("index_list for %s", table), err)
	}

	type listed struct {
		name   string
		unique bool
	}
	var names []listed
	for rows.Next() {
		var (
			seq             int
			name, origin    string
			unique, partial int
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, introspectionErr("scan index", err)
		}
		// Skip implicit indexes backing UNIQUE/PK constraints.
		if origin != "c" {
			continue
		}
		names = append(names, listed{name: name, unique: unique == 1})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, introspectionErr("iterate indexes", err)
	}

	var idxs []IndexDefinition
	for _, l := range names {
		cols, desc, err := s.indexColumns(ctx, l.name)
		if err != nil {
			return nil, err
		}
		idxs = append(idxs, IndexDefinition{Name: l.name, Columns: cols, Unique: l.unique, Descending: desc})
	}
	return idxs, nil
}

// indexColumns reads the key columns of one index. index_xinfo is used
// rather than index_info because only the former reports sort order.
func (s *sqliteIntrospector) indexColumns(ctx context.Context, index string) ([]string, bool, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf("PRAGMA index_xinfo(%q)", index))
	if err != nil {
		return nil, false, introspectionErr(fmt.Sprintf("index_xinfo for %s", index), err)
	}
	defer rows.Close()

	var (
		cols []string
		desc bool
	)
	for rows.Next() {
		var (
			seqno, cid, descending, key int
			name                        sql.NullString
			coll                        string
		)
		if err := rows.Scan(&seqno, &cid, &name, &descending, &coll, &key); err != nil {
			return nil, false, introspectionErr("scan index column", err)
		}
		// key = 0 marks trailing rowid/expression entries, not index keys.
		if key == 0 || !name.Valid {
			continue
		}
		cols = append(cols, name.String)
		if descending == 1 {
			desc = true
		}
	}
	return cols, desc, rows.Err()
}

func (s *sqliteIntrospector) ObjectExists(ctx context.Context, kind ObjectKind, name, table string) (bool, error) {
	switch kind {
	case ObjectTable, ObjectView, ObjectIndex:
		typ := map[ObjectKind]string{
			ObjectTable: "table",
			ObjectView:  "view",
			ObjectIndex: "index",
		}[kind]
		var n int
		err := s.db.QueryRow(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", typ, name,
		).Scan(&n)
		if err != nil {
			return false, introspectionErr(fmt.Sprintf("%s existence check for %s", typ, name), err)
		}
		return n > 0, nil

	case ObjectColumn:
		rows, err := s.db.Query(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
		if err != nil {
			return false, introspectionErr(fmt.Sprintf("column existence check for %s.%s", table, name), err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				cid        int
				col, typ   string
				notNull    int
				defaultVal sql.NullString
				pk         int
			)
			if err := rows.Scan(&cid, &col, &typ, &notNull, &defaultVal, &pk); err != nil {
				return false, introspectionErr("scan column", err)
			}
			if col == name {
				return true, nil
			}
		}
		return false, rows.Err()

	default:
		return false, database.NewError(database.ErrKindInvalidInput,
			fmt.Sprintf("unknown object kind %d", kind))
	}
}

func normalizeAction(a string) string {
	a = strings.ToUpper(strings.TrimSpace(a))
	if a == "" || a == "NO ACTION" {
		return ""
	}
	return a
}

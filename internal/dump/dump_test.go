package dump

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/logger"
	"github.com/sin5ddd/sqlew/internal/schema"
)

// fakeDB serves a single table's rows and honors the LIMIT/OFFSET argument
// pair the paginator appends to each query.
type fakeDB struct {
	dialect database.Dialect
	rows    [][]any
	queries []string
}

func (f *fakeDB) Dialect() database.Dialect       { return f.dialect }
func (f *fakeDB) Ping(ctx context.Context) error  { return nil }
func (f *fakeDB) Close()                          {}
func (f *fakeDB) Exec(ctx context.Context, q string, args ...any) error { return nil }
func (f *fakeDB) QueryRow(ctx context.Context, q string, args ...any) database.Row {
	panic("not used")
}

func (f *fakeDB) Query(ctx context.Context, q string, args ...any) (database.Rows, error) {
	f.queries = append(f.queries, q)
	if len(args) < 2 {
		return &fakeRows{idx: -1}, nil
	}
	limit := args[len(args)-2].(int)
	offset := args[len(args)-1].(int)

	var page [][]any
	for i := offset; i < len(f.rows) && i < offset+limit; i++ {
		page = append(page, f.rows[i])
	}
	return &fakeRows{rows: page, idx: -1}, nil
}

type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	for i, d := range dest {
		*(d.(*any)) = r.rows[r.idx][i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return nil, nil }
func (r *fakeRows) Close()                     {}
func (r *fakeRows) Err() error                 { return nil }

func taskTable() schema.TableDefinition {
	return schema.TableDefinition{
		Name: "tasks",
		Columns: []schema.ColumnDefinition{
			{Name: "id", Type: schema.TypeSerial},
			{Name: "title", Type: schema.TypeText},
		},
		PrimaryKey: []string{"id"},
	}
}

func TestDumpTable_ChunkedBatches(t *testing.T) {
	// 5 rows with chunk size 2 must produce 3 INSERTs of 2, 2, and 1 rows.
	db := &fakeDB{
		dialect: database.DialectSQLite,
		rows: [][]any{
			{int64(1), "one"},
			{int64(2), "two"},
			{int64(3), "three"},
			{int64(4), "four"},
			{int64(5), "five"},
		},
	}

	var buf bytes.Buffer
	n, err := New(db, logger.Nop()).DumpTable(context.Background(), &buf, taskTable(), database.DialectSQLite, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "INSERT INTO tasks"), out)

	// One "(" for the column list plus one per row.
	stmts := SplitStatements(out)
	require.Len(t, stmts, 3)
	assert.Equal(t, 3, strings.Count(stmts[0], "("), "first batch: 2 rows")
	assert.Equal(t, 3, strings.Count(stmts[1], "("), "second batch: 2 rows")
	assert.Equal(t, 2, strings.Count(stmts[2], "("), "last batch: 1 row")
	assert.Contains(t, stmts[2], "(5, 'five')")
	assert.NotContains(t, stmts[2], "'four'")
}

func TestDumpTable_ExactBatchBoundary(t *testing.T) {
	db := &fakeDB{
		dialect: database.DialectSQLite,
		rows: [][]any{
			{int64(1), "a"},
			{int64(2), "b"},
		},
	}

	var buf bytes.Buffer
	n, err := New(db, logger.Nop()).DumpTable(context.Background(), &buf, taskTable(), database.DialectSQLite, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, strings.Count(buf.String(), "INSERT INTO"))
}

func TestDumpTable_SchemaOnlyChunkZero(t *testing.T) {
	db := &fakeDB{dialect: database.DialectSQLite, rows: [][]any{{int64(1), "x"}}}

	var buf bytes.Buffer
	n, err := New(db, logger.Nop()).DumpTable(context.Background(), &buf, taskTable(), database.DialectSQLite, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, buf.String())
	assert.Empty(t, db.queries, "no data queries in schema-only mode")
}

func TestDumpTable_TargetDialectEncoding(t *testing.T) {
	// Source is SQLite, target MySQL: string escaping follows the target.
	db := &fakeDB{
		dialect: database.DialectSQLite,
		rows:    [][]any{{int64(1), `path\to`}},
	}

	var buf bytes.Buffer
	_, err := New(db, logger.Nop()).DumpTable(context.Background(), &buf, taskTable(), database.DialectMySQL, 10)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `'path\\to'`)
}

func TestDumpTable_OrdersByPrimaryKey(t *testing.T) {
	db := &fakeDB{dialect: database.DialectSQLite, rows: [][]any{{int64(1), "x"}}}

	var buf bytes.Buffer
	_, err := New(db, logger.Nop()).DumpTable(context.Background(), &buf, taskTable(), database.DialectSQLite, 2)
	require.NoError(t, err)
	require.NotEmpty(t, db.queries)
	assert.Contains(t, db.queries[0], "ORDER BY id")
}

func TestFilterTables(t *testing.T) {
	tables := []schema.TableDefinition{
		{Name: "agents"}, {Name: "tasks"}, {Name: "tags"},
	}

	t.Run("empty subset keeps all", func(t *testing.T) {
		out, err := filterTables(tables, nil)
		require.NoError(t, err)
		assert.Len(t, out, 3)
	})

	t.Run("subset preserves introspection order", func(t *testing.T) {
		out, err := filterTables(tables, []string{"tags", "agents"})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "agents", out[0].Name)
		assert.Equal(t, "tags", out[1].Name)
	})

	t.Run("unknown table rejected", func(t *testing.T) {
		_, err := filterTables(tables, []string{"nope"})
		require.Error(t, err)
		assert.True(t, database.IsInvalidInput(err))
	})
}

package migrate

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/logger"
	"github.com/sin5ddd/sqlew/internal/schema"
)

// fakeTarget tracks which objects exist and records executed DDL. Executing
// a CREATE or ALTER marks the object present, so a second guard run sees it.
type fakeTarget struct {
	dialect database.Dialect
	objects map[string]bool
	stmts   []string
}

func newFakeTarget(d database.Dialect) *fakeTarget {
	return &fakeTarget{dialect: d, objects: map[string]bool{}}
}

func key(kind schema.ObjectKind, name, table string) string {
	return kind.String() + ":" + table + ":" + name
}

func (f *fakeTarget) Dialect() database.Dialect      { return f.dialect }
func (f *fakeTarget) Ping(ctx context.Context) error { return nil }
func (f *fakeTarget) Close()                         {}

func (f *fakeTarget) Query(ctx context.Context, q string, args ...any) (database.Rows, error) {
	panic("not used")
}

func (f *fakeTarget) QueryRow(ctx context.Context, q string, args ...any) database.Row {
	panic("not used")
}

func (f *fakeTarget) Exec(ctx context.Context, q string, args ...any) error {
	f.stmts = append(f.stmts, q)
	return nil
}

// mark registers the DDL's object so ObjectExists reflects execution order.
func (f *fakeTarget) mark(kind schema.ObjectKind, name, table string) {
	f.objects[key(kind, name, table)] = true
}

type fakeIntrospector struct {
	target *fakeTarget
}

func (i *fakeIntrospector) ListTables(ctx context.Context) ([]schema.TableDefinition, error) {
	return nil, nil
}

func (i *fakeIntrospector) ForeignKeys(ctx context.Context, table string) ([]schema.ForeignKeyRef, error) {
	return nil, nil
}

func (i *fakeIntrospector) ObjectExists(ctx context.Context, kind schema.ObjectKind, name, table string) (bool, error) {
	return i.target.objects[key(kind, name, table)], nil
}

func newTestGuard(d database.Dialect) (*Guard, *fakeTarget) {
	target := newFakeTarget(d)
	g := &Guard{db: target, intro: &fakeIntrospector{target: target}, log: logger.Nop()}
	return g, target
}

func TestEnsureTable_Idempotent(t *testing.T) {
	g, target := newTestGuard(database.DialectPostgres)
	ctx := context.Background()

	tbl := schema.TableDefinition{
		Name: "tags",
		Columns: []schema.ColumnDefinition{
			{Name: "id", Type: schema.TypeSerial},
			{Name: "name", Type: schema.TypeText, MaxLength: 64},
		},
	}

	require.NoError(t, g.EnsureTable(ctx, tbl))
	require.Len(t, target.stmts, 1)
	assert.Contains(t, target.stmts[0], "CREATE TABLE IF NOT EXISTS tags")

	// Second run must be a no-op.
	target.mark(schema.ObjectTable, "tags", "")
	require.NoError(t, g.EnsureTable(ctx, tbl))
	assert.Len(t, target.stmts, 1)
}

func TestEnsureColumn_AddsOnlyMissing(t *testing.T) {
	g, target := newTestGuard(database.DialectMySQL)
	ctx := context.Background()

	col := schema.ColumnDefinition{Name: "priority", Type: schema.TypeInteger, Default: "2"}

	require.NoError(t, g.EnsureColumn(ctx, "tasks", col))
	require.Len(t, target.stmts, 1)
	assert.Equal(t, "ALTER TABLE tasks ADD COLUMN priority INT NOT NULL DEFAULT 2", target.stmts[0])

	target.mark(schema.ObjectColumn, "priority", "tasks")
	require.NoError(t, g.EnsureColumn(ctx, "tasks", col))
	assert.Len(t, target.stmts, 1)
}

func TestEnsureColumn_ReservedNameQuoted(t *testing.T) {
	g, target := newTestGuard(database.DialectMySQL)

	col := schema.ColumnDefinition{Name: "read", Type: schema.TypeBoolean, Default: "false"}
	require.NoError(t, g.EnsureColumn(context.Background(), "activity_log", col))
	require.Len(t, target.stmts, 1)
	assert.Contains(t, target.stmts[0], "ADD COLUMN `read` TINYINT(1)")
}

func TestEnsureIndex_Idempotent(t *testing.T) {
	g, target := newTestGuard(database.DialectPostgres)
	ctx := context.Background()

	idx := schema.IndexDefinition{Name: "idx_tasks_status", Columns: []string{"status"}}

	require.NoError(t, g.EnsureIndex(ctx, "tasks", idx))
	require.Len(t, target.stmts, 1)
	assert.Equal(t, "CREATE INDEX idx_tasks_status ON tasks (status)", target.stmts[0])

	target.mark(schema.ObjectIndex, "idx_tasks_status", "tasks")
	require.NoError(t, g.EnsureIndex(ctx, "tasks", idx))
	assert.Len(t, target.stmts, 1)
}

func TestEnsureView_SkipsExisting(t *testing.T) {
	g, target := newTestGuard(database.DialectMySQL)
	ctx := context.Background()

	v := schema.ViewDefinition{Name: "recent_activity", Body: "SELECT strftime('%s','now')"}

	require.NoError(t, g.EnsureView(ctx, v))
	require.Len(t, target.stmts, 1)
	assert.Contains(t, target.stmts[0], "CREATE VIEW recent_activity")
	assert.NotContains(t, target.stmts[0], "strftime")

	target.mark(schema.ObjectView, "recent_activity", "")
	require.NoError(t, g.EnsureView(ctx, v))
	assert.Len(t, target.stmts, 1)
}

func TestRunner_FullSchemaIsAcyclicAndOrdered(t *testing.T) {
	target := newFakeTarget(database.DialectSQLite)
	g := &Guard{db: target, intro: &fakeIntrospector{target: target}, log: logger.Nop()}
	r := &Runner{guard: g, log: logger.Nop()}

	cycles, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cycles)

	// agents must be created before every table referencing it.
	idxOf := func(substr string) int {
		for i, s := range target.stmts {
			if strings.HasPrefix(s, "CREATE TABLE") && strings.Contains(s, substr) {
				return i
			}
		}
		return -1
	}
	agents := idxOf("agents (")
	tasks := idxOf("tasks (")
	require.GreaterOrEqual(t, agents, 0)
	require.Greater(t, tasks, agents)

	// Views come last.
	last := target.stmts[len(target.stmts)-1]
	assert.Contains(t, last, "CREATE VIEW")
}

package migrate

import (
	"context"

	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/schema"
)

// AppSchema returns the coordination schema: the tables the engine exists to
// port between dialects. Definitions are written in logical form (logical
// column types, SQLite-form DEFAULT expressions) and translated per target.
//
// The slice is built fresh on every call so callers can mutate their copy.
func AppSchema() []schema.TableDefinition {
	return []schema.TableDefinition{
		{
			Name: "agents",
			Columns: []schema.ColumnDefinition{
				{Name: "name", Type: schema.TypeText, MaxLength: 64},
				{Name: "status", Type: schema.TypeText, Default: "'active'", MaxLength: 16},
				{Name: "last_active_ts", Type: schema.TypeInteger, Default: "strftime('%s','now')"},
			},
			PrimaryKey: []string{"name"},
		},
		{
			Name: "tags",
			Columns: []schema.ColumnDefinition{
				{Name: "id", Type: schema.TypeSerial},
				{Name: "name", Type: schema.TypeText, MaxLength: 64},
			},
			Indexes: []schema.IndexDefinition{
				{Name: "idx_tags_name", Columns: []string{"name"}, Unique: true},
			},
		},
		{
			Name: "decisions",
			Columns: []schema.ColumnDefinition{
				{Name: "id", Type: schema.TypeSerial},
				{Name: "key", Type: schema.TypeText, MaxLength: 128},
				{Name: "value", Type: schema.TypeText},
				{Name: "layer", Type: schema.TypeText, Default: "'project'", MaxLength: 32},
				{Name: "version", Type: schema.TypeInteger, Default: "1"},
				{Name: "agent_name", Type: schema.TypeText, Nullable: true, MaxLength: 64},
				{Name: "updated_ts", Type: schema.TypeInteger, Default: "strftime('%s','now')"},
			},
			ForeignKeys: []schema.ForeignKeyRef{
				{Column: "agent_name", RefTable: "agents", RefColumn: "name", OnDelete: "SET NULL"},
			},
			Indexes: []schema.IndexDefinition{
				{Name: "idx_decisions_key_layer", Columns: []string{"key", "layer"}, Unique: true},
			},
		},
		{
			Name: "decision_tags",
			Columns: []schema.ColumnDefinition{
				{Name: "decision_id", Type: schema.TypeInteger},
				{Name: "tag_id", Type: schema.TypeInteger},
			},
			PrimaryKey: []string{"decision_id", "tag_id"},
			ForeignKeys: []schema.ForeignKeyRef{
				{Column: "decision_id", RefTable: "decisions", RefColumn: "id", OnDelete: "CASCADE"},
				{Column: "tag_id", RefTable: "tags", RefColumn: "id", OnDelete: "CASCADE"},
			},
		},
		{
			Name: "tasks",
			Columns: []schema.ColumnDefinition{
				{Name: "id", Type: schema.TypeSerial},
				{Name: "title", Type: schema.TypeText, MaxLength: 255},
				{Name: "description", Type: schema.TypeText, Nullable: true},
				{Name: "status", Type: schema.TypeText, Default: "'todo'", MaxLength: 16},
				{Name: "priority", Type: schema.TypeInteger, Default: "2"},
				{Name: "assignee", Type: schema.TypeText, Nullable: true, MaxLength: 64},
				{Name: "created_ts", Type: schema.TypeInteger, Default: "strftime('%s','now')"},
				{Name: "updated_ts", Type: schema.TypeInteger, Default: "strftime('%s','now')"},
			},
			ForeignKeys: []schema.ForeignKeyRef{
				{Column: "assignee", RefTable: "agents", RefColumn: "name", OnDelete: "SET NULL"},
			},
			Indexes: []schema.IndexDefinition{
				{Name: "idx_tasks_status", Columns: []string{"status"}},
				{Name: "idx_tasks_assignee", Columns: []string{"assignee"}},
			},
		},
		{
			Name: "task_dependencies",
			Columns: []schema.ColumnDefinition{
				{Name: "task_id", Type: schema.TypeInteger},
				{Name: "depends_on_id", Type: schema.TypeInteger},
			},
			PrimaryKey: []string{"task_id", "depends_on_id"},
			ForeignKeys: []schema.ForeignKeyRef{
				{Column: "task_id", RefTable: "tasks", RefColumn: "id", OnDelete: "CASCADE"},
				{Column: "depends_on_id", RefTable: "tasks", RefColumn: "id", OnDelete: "CASCADE"},
			},
		},
		{
			Name: "constraints",
			Columns: []schema.ColumnDefinition{
				{Name: "id", Type: schema.TypeSerial},
				{Name: "rule", Type: schema.TypeText},
				{Name: "layer", Type: schema.TypeText, Default: "'project'", MaxLength: 32},
				{Name: "active", Type: schema.TypeBoolean, Default: "true"},
				{Name: "created_ts", Type: schema.TypeInteger, Default: "strftime('%s','now')"},
			},
		},
		{
			Name: "file_changes",
			Columns: []schema.ColumnDefinition{
				{Name: "id", Type: schema.TypeSerial},
				{Name: "path", Type: schema.TypeText},
				{Name: "agent_name", Type: schema.TypeText, Nullable: true, MaxLength: 64},
				{Name: "change_type", Type: schema.TypeText, Default: "'edit'", MaxLength: 16},
				{Name: "locked", Type: schema.TypeBoolean, Default: "false"},
				{Name: "changed_ts", Type: schema.TypeInteger, Default: "strftime('%s','now')"},
			},
			ForeignKeys: []schema.ForeignKeyRef{
				{Column: "agent_name", RefTable: "agents", RefColumn: "name", OnDelete: "SET NULL"},
			},
			Indexes: []schema.IndexDefinition{
				{Name: "idx_file_changes_path", Columns: []string{"path"}},
			},
		},
		{
			Name: "activity_log",
			Columns: []schema.ColumnDefinition{
				{Name: "id", Type: schema.TypeSerial},
				{Name: "agent_name", Type: schema.TypeText, Nullable: true, MaxLength: 64},
				{Name: "action", Type: schema.TypeText, MaxLength: 64},
				{Name: "detail", Type: schema.TypeText, Nullable: true},
				// "read" is reserved in MySQL and quoted-on-collision per
				// dialect profile; SQLite accepts it bare.
				{Name: "read", Type: schema.TypeBoolean, Default: "false"},
				{Name: "created_ts", Type: schema.TypeInteger, Default: "strftime('%s','now')"},
			},
			ForeignKeys: []schema.ForeignKeyRef{
				{Column: "agent_name", RefTable: "agents", RefColumn: "name", OnDelete: "SET NULL"},
			},
			Indexes: []schema.IndexDefinition{
				{Name: "idx_activity_log_ts", Columns: []string{"created_ts"}, Descending: true},
			},
		},
	}
}

// DetectAppViews returns AppViews when db carries every coordination table
// the view bodies read from, and nil otherwise. A dump of an unrelated
// database must not emit views over tables its script never creates.
func DetectAppViews(ctx context.Context, db database.DB) ([]schema.ViewDefinition, error) {
	intro, err := schema.For(db)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"tasks", "task_dependencies", "activity_log"} {
		ok, err := intro.ObjectExists(ctx, schema.ObjectTable, name, "")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}
	return AppViews(), nil
}

// AppViews returns the reporting views layered on the coordination tables.
// Bodies are written in SQLite form; the translator rewrites the aggregate
// and timestamp expressions per target.
func AppViews() []schema.ViewDefinition {
	return []schema.ViewDefinition{
		{
			Name: "task_overview",
			Body: "SELECT t.id, t.title, t.status, t.assignee,\n" +
				"  (SELECT GROUP_CONCAT(d.title) FROM task_dependencies td\n" +
				"     JOIN tasks d ON d.id = td.depends_on_id\n" +
				"    WHERE td.task_id = t.id) AS depends_on\n" +
				"FROM tasks t",
		},
		{
			Name: "recent_activity",
			Body: "SELECT a.agent_name, a.action, a.detail, a.created_ts\n" +
				"FROM activity_log a\n" +
				"WHERE a.created_ts >= strftime('%s','now') - 86400",
		},
	}
}

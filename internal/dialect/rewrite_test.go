package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sin5ddd/sqlew/internal/database"
)

func TestRewriteDefault_EpochForms(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		dialect database.Dialect
		want    string
	}{
		{"strftime epoch sqlite", "strftime('%s','now')", database.DialectSQLite, "strftime('%s','now')"},
		{"strftime epoch mysql", "strftime('%s','now')", database.DialectMySQL, "UNIX_TIMESTAMP()"},
		{"strftime epoch postgres", "strftime('%s','now')", database.DialectPostgres, "EXTRACT(epoch FROM NOW())::INTEGER"},
		{"strftime epoch spaced mysql", "strftime('%s', 'now')", database.DialectMySQL, "UNIX_TIMESTAMP()"},
		{"unixepoch mysql", "unixepoch()", database.DialectMySQL, "UNIX_TIMESTAMP()"},
		{"unixepoch postgres", "unixepoch()", database.DialectPostgres, "EXTRACT(epoch FROM NOW())::INTEGER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw, err := RewriteDefault(tt.expr, tt.dialect)
			require.NoError(t, err)
			assert.False(t, rw.Dropped)
			assert.Equal(t, tt.want, rw.Expr)
		})
	}
}

func TestRewriteDefault_DatetimeFormat(t *testing.T) {
	const expr = "strftime('%Y-%m-%d %H:%M:%S','now')"

	t.Run("sqlite keeps expression", func(t *testing.T) {
		rw, err := RewriteDefault(expr, database.DialectSQLite)
		require.NoError(t, err)
		assert.Equal(t, expr, rw.Expr)
	})

	t.Run("mysql drops the default", func(t *testing.T) {
		rw, err := RewriteDefault(expr, database.DialectMySQL)
		require.NoError(t, err)
		assert.True(t, rw.Dropped)
	})

	t.Run("postgres rewrites to NOW()", func(t *testing.T) {
		rw, err := RewriteDefault(expr, database.DialectPostgres)
		require.NoError(t, err)
		assert.False(t, rw.Dropped)
		assert.Equal(t, "NOW()", rw.Expr)
	})
}

func TestRewriteDefault_Literals(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		dialect database.Dialect
		want    string
	}{
		{"integer", "42", database.DialectMySQL, "42"},
		{"float", "1.5", database.DialectPostgres, "1.5"},
		{"string", "'pending'", database.DialectMySQL, "'pending'"},
		{"string with escape", "'it''s'", database.DialectPostgres, "'it''s'"},
		{"null", "NULL", database.DialectMySQL, "NULL"},
		{"current_timestamp", "CURRENT_TIMESTAMP", database.DialectPostgres, "CURRENT_TIMESTAMP"},
		{"true sqlite", "true", database.DialectSQLite, "1"},
		{"true mysql", "true", database.DialectMySQL, "1"},
		{"true postgres", "true", database.DialectPostgres, "TRUE"},
		{"false postgres", "false", database.DialectPostgres, "FALSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw, err := RewriteDefault(tt.expr, tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rw.Expr)
		})
	}
}

func TestRewriteDefault_UnknownExpressionFails(t *testing.T) {
	tests := []string{
		"datetime('now')",
		"random()",
		"strftime('%s','now','localtime')",
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := RewriteDefault(expr, database.DialectMySQL)
			require.Error(t, err)
			assert.True(t, database.IsUnsupportedConstruct(err))
		})
	}
}

func TestRewriteViewBody(t *testing.T) {
	body := "SELECT GROUP_CONCAT(title), strftime('%s','now') - 3600 FROM tasks"

	t.Run("sqlite unchanged", func(t *testing.T) {
		out := RewriteViewBody(body, database.DialectSQLite)
		assert.Equal(t, body, out)
	})

	t.Run("mysql", func(t *testing.T) {
		out := RewriteViewBody(body, database.DialectMySQL)
		assert.Equal(t, "SELECT GROUP_CONCAT(title), UNIX_TIMESTAMP() - 3600 FROM tasks", out)
		assert.NotContains(t, out, "strftime")
	})

	t.Run("postgres adds separator", func(t *testing.T) {
		out := RewriteViewBody(body, database.DialectPostgres)
		assert.Equal(t, "SELECT STRING_AGG(title, ','), EXTRACT(epoch FROM NOW())::INTEGER - 3600 FROM tasks", out)
		assert.NotContains(t, out, "strftime")
	})

	t.Run("postgres keeps explicit separator", func(t *testing.T) {
		out := RewriteViewBody("SELECT GROUP_CONCAT(name, '; ') FROM tags", database.DialectPostgres)
		assert.Equal(t, "SELECT STRING_AGG(name, '; ') FROM tags", out)
	})

	t.Run("nested parens survive", func(t *testing.T) {
		out := RewriteViewBody("SELECT GROUP_CONCAT(COALESCE(name, '')) FROM tags", database.DialectPostgres)
		assert.Equal(t, "SELECT STRING_AGG(COALESCE(name, ''), ',') FROM tags", out)
	})
}

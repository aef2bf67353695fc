// Package migrate applies schema changes idempotently against a live target.
// Installations may have reached the current table set through different
// historical upgrade paths, so every step re-checks existence and skips
// work already done; re-running the same migration is always safe.
package migrate

import (
	"context"

	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/dialect"
	"github.com/sin5ddd/sqlew/internal/logger"
	"github.com/sin5ddd/sqlew/internal/schema"
	"github.com/sin5ddd/sqlew/internal/translate"
)

// Guard executes guarded DDL against one connection. Each Ensure method is
// idempotent: the second run of an identical step is a logged no-op.
type Guard struct {
	db    database.DB
	intro schema.Introspector
	log   *logger.Logger
}

// NewGuard creates a Guard over the target connection.
func NewGuard(db database.DB, log *logger.Logger) (*Guard, error) {
	intro, err := schema.For(db)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Guard{db: db, intro: intro, log: log}, nil
}

// EnsureTable creates the table unless it already exists.
func (g *Guard) EnsureTable(ctx context.Context, t schema.TableDefinition) error {
	exists, err := g.intro.ObjectExists(ctx, schema.ObjectTable, t.Name, "")
	if err != nil {
		return err
	}
	if exists {
		g.log.With().Str("table", t.Name).Logger().Debug("table present, skipped")
		return nil
	}

	stmt, err := translate.CreateTable(t, g.db.Dialect())
	if err != nil {
		return err
	}
	if err := g.db.Exec(ctx, stmt); err != nil {
		return err
	}
	g.log.With().Str("table", t.Name).Logger().Info("table created")
	return nil
}

// EnsureColumn adds the column via ALTER TABLE unless it already exists.
// Column-level granularity matters: a table may predate columns added by
// later revisions.
func (g *Guard) EnsureColumn(ctx context.Context, table string, col schema.ColumnDefinition) error {
	exists, err := g.intro.ObjectExists(ctx, schema.ObjectColumn, col.Name, table)
	if err != nil {
		return err
	}
	if exists {
		g.log.With().Str("table", table).Str("column", col.Name).Logger().
			Debug("column present, skipped")
		return nil
	}

	clause, err := translate.ColumnClause(col, g.db.Dialect())
	if err != nil {
		return err
	}
	stmt := "ALTER TABLE " + quote(g.db.Dialect(), table) + " ADD COLUMN " + clause
	if err := g.db.Exec(ctx, stmt); err != nil {
		return err
	}
	g.log.With().Str("table", table).Str("column", col.Name).Logger().
		Info("column added")
	return nil
}

// EnsureIndex creates the index unless it already exists. Only SQLite has a
// universal CREATE INDEX IF NOT EXISTS, so the existence pre-check does the
// guarding on the other dialects.
func (g *Guard) EnsureIndex(ctx context.Context, table string, idx schema.IndexDefinition) error {
	exists, err := g.intro.ObjectExists(ctx, schema.ObjectIndex, idx.Name, table)
	if err != nil {
		return err
	}
	if exists {
		g.log.With().Str("index", idx.Name).Logger().Debug("index present, skipped")
		return nil
	}

	if err := g.db.Exec(ctx, translate.CreateIndex(table, idx, g.db.Dialect())); err != nil {
		return err
	}
	g.log.With().Str("index", idx.Name).Logger().Info("index created")
	return nil
}

// EnsureView creates the view unless one with the same name already exists.
// An existing view is never replaced; changing a view body ships as a new
// view name.
func (g *Guard) EnsureView(ctx context.Context, v schema.ViewDefinition) error {
	exists, err := g.intro.ObjectExists(ctx, schema.ObjectView, v.Name, "")
	if err != nil {
		return err
	}
	if exists {
		g.log.With().Str("view", v.Name).Logger().Debug("view present, skipped")
		return nil
	}

	stmt, err := translate.CreateView(v, g.db.Dialect())
	if err != nil {
		return err
	}
	if err := g.db.Exec(ctx, stmt); err != nil {
		return err
	}
	g.log.With().Str("view", v.Name).Logger().Info("view created")
	return nil
}

func quote(d database.Dialect, name string) string {
	return dialect.Get(d).QuoteIdent(name)
}

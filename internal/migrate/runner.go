package migrate

import (
	"context"

	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/depgraph"
	"github.com/sin5ddd/sqlew/internal/logger"
	"github.com/sin5ddd/sqlew/internal/schema"
)

// Runner sequences the guard over the full coordination schema. The order is
// fixed: tables in dependency order, then columns (an existing table may be
// missing columns added by later revisions), then indexes, then views.
// Every step is guarded, so re-running a partially applied migration
// resumes where it stopped.
type Runner struct {
	guard *Guard
	log   *logger.Logger
}

// NewRunner creates a Runner over the target connection.
func NewRunner(db database.DB, log *logger.Logger) (*Runner, error) {
	guard, err := NewGuard(db, log)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{guard: guard, log: log}, nil
}

// Run applies the coordination schema to the target. Dependency cycles in
// the schema would indicate a schema definition bug; they are returned for
// the caller to surface.
func (r *Runner) Run(ctx context.Context) ([]depgraph.CycleReport, error) {
	tables, cycles := depgraph.SortTables(AppSchema())
	for _, c := range cycles {
		r.log.With().Str("table", c.Table).Logger().
			Warn("dependency cycle broken during sort")
	}

	for _, t := range tables {
		if err := r.guard.EnsureTable(ctx, t); err != nil {
			return cycles, err
		}
	}
	for _, t := range tables {
		for _, col := range t.Columns {
			// A serial primary key always predates any later revision and
			// cannot be added by ALTER anyway.
			if col.Type == schema.TypeSerial {
				continue
			}
			if err := r.guard.EnsureColumn(ctx, t.Name, col); err != nil {
				return cycles, err
			}
		}
	}
	for _, t := range tables {
		for _, idx := range t.Indexes {
			if err := r.guard.EnsureIndex(ctx, t.Name, idx); err != nil {
				return cycles, err
			}
		}
	}
	for _, v := range AppViews() {
		if err := r.guard.EnsureView(ctx, v); err != nil {
			return cycles, err
		}
	}

	r.log.With().Int("tables", len(tables)).Logger().Info("migration complete")
	return cycles, nil
}

// Package dump exports schema and data as a replayable SQL script. Tables
// are emitted strictly in dependency order so sequential replay against an
// empty target never violates a foreign key.
package dump

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/depgraph"
	"github.com/sin5ddd/sqlew/internal/dialect"
	"github.com/sin5ddd/sqlew/internal/logger"
	"github.com/sin5ddd/sqlew/internal/schema"
	"github.com/sin5ddd/sqlew/internal/translate"
)

// Options controls what DumpAll emits.
type Options struct {
	// IncludeHeader prepends a banner comment. The banner carries no
	// timestamp so repeated dumps of an unchanged database stay diffable.
	IncludeHeader bool

	// IncludeSchema emits CREATE TABLE / CREATE INDEX statements before the
	// data of each table.
	IncludeSchema bool

	// ChunkSize is the number of rows per INSERT batch. 0 means schema-only:
	// no data is emitted at all.
	ChunkSize int

	// Tables restricts the dump to a subset. Empty means every table.
	// Foreign keys leaving the subset are ignored during ordering.
	Tables []string

	// Views are emitted after all tables, with their bodies rewritten for
	// the target dialect. Views are supplied by the caller because they are
	// defined statically, not discovered from the source.
	Views []schema.ViewDefinition
}

// Report summarizes one dump run.
type Report struct {
	Tables int
	Rows   int
	Cycles []depgraph.CycleReport
}

// Dumper reads from one source connection and writes a script targeting a
// (possibly different) dialect.
type Dumper struct {
	db  database.DB
	log *logger.Logger
}

// New creates a Dumper over the given source connection.
func New(db database.DB, log *logger.Logger) *Dumper {
	if log == nil {
		log = logger.Nop()
	}
	return &Dumper{db: db, log: log}
}

// DumpAll introspects the source, sorts the working set by dependency, and
// writes the full script to w. Cycles detected during sorting are reported
// in the Report and logged at warn level; they do not abort the dump.
func (d *Dumper) DumpAll(ctx context.Context, w io.Writer, target database.Dialect, opts Options) (*Report, error) {
	intro, err := schema.For(d.db)
	if err != nil {
		return nil, err
	}
	tables, err := intro.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	tables, err = filterTables(tables, opts.Tables)
	if err != nil {
		return nil, err
	}

	sorted, cycles := depgraph.SortTables(tables)
	for _, c := range cycles {
		d.log.With().Str("table", c.Table).Logger().
			Warn("dependency cycle broken during sort")
	}

	if opts.IncludeHeader {
		if err := writeHeader(w, d.db.Dialect(), target); err != nil {
			return nil, err
		}
	}

	report := &Report{Tables: len(sorted), Cycles: cycles}
	for _, t := range sorted {
		if opts.IncludeSchema {
			if err := d.writeTableDDL(w, t, target); err != nil {
				return nil, err
			}
		}
		if opts.ChunkSize > 0 {
			n, err := d.DumpTable(ctx, w, t, target, opts.ChunkSize)
			if err != nil {
				return nil, err
			}
			report.Rows += n
		}
	}

	if opts.IncludeSchema {
		for _, v := range opts.Views {
			stmt, err := translate.CreateView(v, target)
			if err != nil {
				return nil, err
			}
			if _, err := fmt.Fprintf(w, "%s;\n\n", stmt); err != nil {
				return nil, err
			}
		}
	}

	d.log.With().
		Int("tables", report.Tables).
		Int("rows", report.Rows).
		Int("cycles", len(report.Cycles)).
		Logger().Info("dump complete")
	return report, nil
}

// DumpTable pages one table's rows in batches of chunkSize and writes one
// multi-row INSERT per batch. Paging is strictly sequential and ordered by
// primary key so the output is stable under repeated runs. Returns the row
// count written.
func (d *Dumper) DumpTable(ctx context.Context, w io.Writer, t schema.TableDefinition, target database.Dialect, chunkSize int) (int, error) {
	if chunkSize <= 0 {
		return 0, nil
	}

	source := dialect.Get(d.db.Dialect())
	tp := dialect.Get(target)

	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Name
	}
	orderBy := t.PrimaryKey
	if len(orderBy) == 0 {
		orderBy = cols[:1]
	}

	total := 0
	for offset := 0; ; offset += chunkSize {
		query, args, err := database.Select(t.Name, d.db.Dialect()).
			Quoter(source.Quoter()).
			Columns(cols...).
			OrderBy(orderBy...).
			Limit(chunkSize).
			Offset(offset).
			Build()
		if err != nil {
			return total, err
		}

		batch, err := d.fetchBatch(ctx, query, args, len(cols), tp)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			break
		}

		if err := writeInsert(w, tp, t.Name, cols, batch); err != nil {
			return total, err
		}
		total += len(batch)

		if len(batch) < chunkSize {
			break
		}
	}

	d.log.With().Str("table", t.Name).Int("rows", total).Logger().
		Debug("table dumped")
	return total, nil
}

// fetchBatch runs one page query and encodes every value as a target-dialect
// literal. Rows are fully materialized before encoding so the result set is
// closed promptly.
func (d *Dumper) fetchBatch(ctx context.Context, query string, args []any, ncols int, tp dialect.Profile) ([][]string, error) {
	rows, err := d.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch [][]string
	for rows.Next() {
		raw := make([]any, ncols)
		ptrs := make([]any, ncols)
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, database.WrapError(database.ErrKindQueryFailed, "scan row", err)
		}
		encoded := make([]string, ncols)
		for i, v := range raw {
			encoded[i] = tp.EncodeValue(v)
		}
		batch = append(batch, encoded)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapError(database.ErrKindQueryFailed, "row iteration", err)
	}
	return batch, nil
}

// writeTableDDL emits CREATE TABLE followed by the table's secondary indexes.
func (d *Dumper) writeTableDDL(w io.Writer, t schema.TableDefinition, target database.Dialect) error {
	stmt, err := translate.CreateTable(t, target)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s;\n\n", stmt); err != nil {
		return err
	}
	for _, idx := range t.Indexes {
		if _, err := fmt.Fprintf(w, "%s;\n", translate.CreateIndex(t.Name, idx, target)); err != nil {
			return err
		}
	}
	if len(t.Indexes) > 0 {
		if _, err := fmt.Fprint(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeInsert(w io.Writer, tp dialect.Profile, table string, cols []string, batch [][]string) error {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = tp.QuoteIdent(c)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(tp.QuoteIdent(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES\n")
	for i, row := range batch {
		sb.WriteString("  (")
		sb.WriteString(strings.Join(row, ", "))
		sb.WriteString(")")
		if i < len(batch)-1 {
			sb.WriteString(",\n")
		}
	}
	sb.WriteString(";\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeHeader(w io.Writer, source, target database.Dialect) error {
	_, err := fmt.Fprintf(w,
		"-- sqlew dump\n-- source dialect: %s\n-- target dialect: %s\n\n",
		source, target)
	return err
}

// filterTables restricts the working set to the requested subset while
// preserving introspection order. Requesting an unknown table is an input
// error, not a silent no-op.
func filterTables(tables []schema.TableDefinition, subset []string) ([]schema.TableDefinition, error) {
	if len(subset) == 0 {
		return tables, nil
	}
	want := make(map[string]bool, len(subset))
	for _, n := range subset {
		want[n] = true
	}
	var out []schema.TableDefinition
	for _, t := range tables {
		if want[t.Name] {
			out = append(out, t)
			delete(want, t.Name)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for n := range want {
			missing = append(missing, n)
		}
		return nil, database.NewError(database.ErrKindInvalidInput,
			fmt.Sprintf("unknown tables in subset: %s", strings.Join(missing, ", ")))
	}
	return out, nil
}

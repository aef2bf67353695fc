// Package translate converts portable table, index, and view definitions
// into dialect-correct DDL text. It supports the closed set of constructs
// the coordination schema actually uses; it is not a general SQL generator.
package translate

import (
	"fmt"
	"strings"

	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/dialect"
	"github.com/sin5ddd/sqlew/internal/schema"
)

// CreateTable emits a CREATE TABLE statement for the target dialect.
// Logical column types map to native syntax; DEFAULT expressions go
// through the fixed rewrite table and fail loudly when uncovered.
func CreateTable(t schema.TableDefinition, d database.Dialect) (string, error) {
	p := dialect.Get(d)

	var defs []string
	for _, col := range t.Columns {
		clause, err := ColumnClause(col, d)
		if err != nil {
			return "", database.WrapError(database.ErrKindUnsupportedConstruct,
				fmt.Sprintf("table %s, column %s", t.Name, col.Name), err)
		}
		defs = append(defs, "  "+clause)
	}

	// A serial column already carries PRIMARY KEY inline.
	if len(t.PrimaryKey) > 0 && !hasSerial(t) {
		quoted := make([]string, len(t.PrimaryKey))
		for i, c := range t.PrimaryKey {
			quoted[i] = p.QuoteIdent(c)
		}
		defs = append(defs, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	for _, fk := range t.ForeignKeys {
		clause := fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s(%s)",
			p.QuoteIdent(fk.Column), p.QuoteIdent(fk.RefTable), p.QuoteIdent(fk.RefColumn))
		if fk.OnDelete != "" {
			clause += " ON DELETE " + fk.OnDelete
		}
		defs = append(defs, clause)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)",
		p.QuoteIdent(t.Name), strings.Join(defs, ",\n")), nil
}

// ColumnClause emits one column definition (used by CreateTable and by
// MigrationGuard's ALTER TABLE ADD COLUMN path).
func ColumnClause(col schema.ColumnDefinition, d database.Dialect) (string, error) {
	p := dialect.Get(d)

	var sb strings.Builder
	sb.WriteString(p.QuoteIdent(col.Name))
	sb.WriteString(" ")
	sb.WriteString(nativeType(col, d))

	if col.Type != schema.TypeSerial {
		if !col.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if col.Default != "" {
			rw, err := dialect.RewriteDefault(col.Default, d)
			if err != nil {
				return "", err
			}
			if !rw.Dropped {
				sb.WriteString(" DEFAULT ")
				sb.WriteString(defaultExpr(rw.Expr))
			}
		}
	}
	return sb.String(), nil
}

// defaultExpr embeds a rewritten DEFAULT expression into DDL. SQLite and
// MySQL reject bare function-expression defaults, so anything that is not a
// plain literal or a bare keyword gets wrapped in parentheses. String
// literals may contain parentheses and must stay unwrapped.
func defaultExpr(expr string) string {
	if strings.HasPrefix(expr, "'") || !strings.Contains(expr, "(") {
		return expr
	}
	return "(" + expr + ")"
}

// nativeType maps a logical column type to the dialect's native syntax.
func nativeType(col schema.ColumnDefinition, d database.Dialect) string {
	switch col.Type {
	case schema.TypeSerial:
		switch d {
		case database.DialectSQLite:
			return "INTEGER PRIMARY KEY AUTOINCREMENT"
		case database.DialectMySQL:
			return "INT NOT NULL AUTO_INCREMENT PRIMARY KEY"
		default:
			return "SERIAL PRIMARY KEY"
		}
	case schema.TypeInteger:
		if d == database.DialectMySQL {
			return "INT"
		}
		return "INTEGER"
	case schema.TypeText:
		if col.MaxLength > 0 && d != database.DialectSQLite {
			return fmt.Sprintf("VARCHAR(%d)", col.MaxLength)
		}
		return "TEXT"
	case schema.TypeBoolean:
		switch d {
		case database.DialectSQLite:
			return "INTEGER"
		case database.DialectMySQL:
			return "TINYINT(1)"
		default:
			return "BOOLEAN"
		}
	case schema.TypeReal:
		switch d {
		case database.DialectSQLite:
			return "REAL"
		case database.DialectMySQL:
			return "DOUBLE"
		default:
			return "DOUBLE PRECISION"
		}
	default:
		return "TEXT"
	}
}

// CreateIndex emits a CREATE INDEX statement. Dialects without a native
// IF NOT EXISTS guard rely on the caller (MigrationGuard) to pre-check
// existence before executing.
func CreateIndex(table string, idx schema.IndexDefinition, d database.Dialect) string {
	p := dialect.Get(d)

	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	guard := ""
	if p.IndexIfNotExists {
		guard = "IF NOT EXISTS "
	}

	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = p.QuoteIdent(c)
		if idx.Descending {
			cols[i] += " DESC"
		}
	}

	return fmt.Sprintf("CREATE %sINDEX %s%s ON %s (%s)",
		unique, guard, p.QuoteIdent(idx.Name), p.QuoteIdent(table), strings.Join(cols, ", "))
}

// CreateView emits a CREATE VIEW statement, rewriting the SQLite-form body's
// aggregate and timestamp expressions for the target dialect.
func CreateView(v schema.ViewDefinition, d database.Dialect) (string, error) {
	p := dialect.Get(d)
	body := dialect.RewriteViewBody(v.Body, d)

	// The rewrite mechanism shares the DEFAULT table's contract: source
	// constructs it does not know must never leak into the output.
	if d != database.DialectSQLite && strings.Contains(body, "strftime") {
		return "", database.NewError(database.ErrKindUnsupportedConstruct,
			fmt.Sprintf("view %s: unrewritten strftime expression in body", v.Name))
	}

	return fmt.Sprintf("CREATE VIEW %s AS\n%s", p.QuoteIdent(v.Name), body), nil
}

func hasSerial(t schema.TableDefinition) bool {
	for _, c := range t.Columns {
		if c.Type == schema.TypeSerial {
			return true
		}
	}
	return false
}

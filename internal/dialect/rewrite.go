package dialect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sin5ddd/sqlew/internal/database"
)

// The DEFAULT-expression rewrite table. Source expressions are the SQLite
// forms used by the coordination schema; each maps to its MySQL and
// PostgreSQL equivalents. The table is closed on purpose: an expression not
// covered here raises ErrKindUnsupportedConstruct instead of being guessed
// at or silently dropped.
//
//	strftime('%s','now')   -> UNIX_TIMESTAMP()            | EXTRACT(epoch FROM NOW())::INTEGER
//	unixepoch()            -> UNIX_TIMESTAMP()            | EXTRACT(epoch FROM NOW())::INTEGER
//	strftime('<fmt>','now')-> (dropped: TEXT default)     | NOW()
//
// The third row covers text-datetime defaults with any format other than
// '%s'. MySQL TEXT columns cannot carry a DEFAULT, so the clause is dropped
// there; callers surface that in the dump header.

var (
	// strftime with any single-quoted format applied to 'now'.
	strftimeNowRe = regexp.MustCompile(`^strftime\('([^']+)',\s*'now'\)$`)

	// quoted string literal, with doubled-quote escapes allowed
	stringLitRe = regexp.MustCompile(`^'(?:[^']|'')*'$`)
)

// Rewritten is the outcome of translating one DEFAULT expression.
type Rewritten struct {
	// Expr is the dialect-correct expression. Ignored when Dropped is set.
	Expr string

	// Dropped marks a default that the target dialect cannot carry
	// (MySQL TEXT default). The column is emitted without a DEFAULT clause.
	Dropped bool
}

// RewriteDefault translates a logical DEFAULT expression for the target
// dialect. It accepts the closed set of constructs the coordination schema
// uses: numeric literals, string literals, boolean tokens,
// CURRENT_TIMESTAMP, and the epoch/datetime strftime forms above.
func RewriteDefault(expr string, d database.Dialect) (Rewritten, error) {
	expr = strings.TrimSpace(expr)
	p := Get(d)

	// Literals pass through with dialect-correct boolean forms.
	switch strings.ToLower(expr) {
	case "true":
		return Rewritten{Expr: p.BoolTrue}, nil
	case "false":
		return Rewritten{Expr: p.BoolFalse}, nil
	case "null":
		return Rewritten{Expr: "NULL"}, nil
	case "current_timestamp":
		return Rewritten{Expr: "CURRENT_TIMESTAMP"}, nil
	}
	if _, err := strconv.ParseFloat(expr, 64); err == nil {
		return Rewritten{Expr: expr}, nil
	}
	if stringLitRe.MatchString(expr) {
		return Rewritten{Expr: expr}, nil
	}

	// Epoch expressions.
	if expr == "unixepoch()" || expr == "strftime('%s','now')" || expr == "strftime('%s', 'now')" {
		return Rewritten{Expr: p.EpochNow}, nil
	}

	// Text-datetime strftime with a non-epoch format.
	if m := strftimeNowRe.FindStringSubmatch(expr); m != nil && m[1] != "%s" {
		switch d {
		case database.DialectSQLite:
			return Rewritten{Expr: expr}, nil
		case database.DialectMySQL:
			return Rewritten{Dropped: true}, nil
		case database.DialectPostgres:
			return Rewritten{Expr: "NOW()"}, nil
		}
	}

	return Rewritten{}, database.NewError(database.ErrKindUnsupportedConstruct,
		fmt.Sprintf("no rewrite rule for DEFAULT expression %q (dialect %s)", expr, d))
}

// RewriteViewBody substitutes dialect-specific aggregate and timestamp
// expressions inside a view body. View bodies are written in SQLite form;
// the substitution set mirrors the DEFAULT rewrite table plus the
// string-aggregate function name.
func RewriteViewBody(body string, d database.Dialect) string {
	p := Get(d)

	r := strings.NewReplacer(
		"strftime('%s','now')", p.EpochNow,
		"strftime('%s', 'now')", p.EpochNow,
		"unixepoch()", p.EpochNow,
		"GROUP_CONCAT(", p.StringAgg+"(",
	)
	out := r.Replace(body)

	// STRING_AGG requires an explicit separator where GROUP_CONCAT
	// defaults to a comma.
	if d == database.DialectPostgres {
		out = fixStringAggSeparator(out)
	}
	return out
}

// fixStringAggSeparator appends ", ','" to single-argument STRING_AGG calls.
// Only flat argument lists appear in the schema's views, so a paren scan is
// sufficient; this is not a SQL parser.
func fixStringAggSeparator(body string) string {
	const fn = "STRING_AGG("
	var sb strings.Builder
	rest := body
	for {
		i := strings.Index(rest, fn)
		if i < 0 {
			sb.WriteString(rest)
			return sb.String()
		}
		sb.WriteString(rest[:i+len(fn)])
		rest = rest[i+len(fn):]

		depth := 1
		j := 0
		hasComma := false
		for ; j < len(rest) && depth > 0; j++ {
			switch rest[j] {
			case '(':
				depth++
			case ')':
				depth--
			case ',':
				if depth == 1 {
					hasComma = true
				}
			}
		}
		arg := rest[:j-1]
		sb.WriteString(arg)
		if !hasComma {
			sb.WriteString(", ','")
		}
		sb.WriteString(")")
		rest = rest[j:]
	}
}

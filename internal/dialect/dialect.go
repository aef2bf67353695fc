// Package dialect holds the per-dialect syntax profiles and the fixed
// DEFAULT-expression rewrite table. Dialect behavior differs only in data
// (literals, function names, capability flags), not in shape, so each
// profile is a plain immutable record with no polymorphism and no mutation.
package dialect

import (
	"strings"

	"github.com/sin5ddd/sqlew/internal/database"
)

// Profile describes the syntax and capability differences of one dialect.
// Profiles are fixed, stateless constants: created once, never mutated.
type Profile struct {
	Dialect database.Dialect

	// QuoteChar wraps identifiers that collide with reserved words.
	QuoteChar string

	// Reserved is a deliberately narrow, curated word set addressing known
	// collisions in the coordination schema (e.g. a column named "read"),
	// not the dialect's full reserved-word list. Quoting only on collision
	// keeps generated SQL minimal.
	Reserved map[string]bool

	// BoolTrue / BoolFalse are the boolean literal forms.
	BoolTrue  string
	BoolFalse string

	// EpochNow is the "current time as integer epoch" expression.
	EpochNow string

	// StringAgg is the string-aggregate function name.
	StringAgg string

	// IndexIfNotExists reports whether CREATE INDEX supports a native
	// IF NOT EXISTS guard. Where it doesn't, MigrationGuard pre-checks
	// existence instead.
	IndexIfNotExists bool
}

var profiles = map[database.Dialect]Profile{
	database.DialectSQLite: {
		Dialect:          database.DialectSQLite,
		QuoteChar:        `"`,
		Reserved:         map[string]bool{},
		BoolTrue:         "1",
		BoolFalse:        "0",
		EpochNow:         "strftime('%s','now')",
		StringAgg:        "GROUP_CONCAT",
		IndexIfNotExists: true,
	},
	database.DialectMySQL: {
		Dialect:   database.DialectMySQL,
		QuoteChar: "`",
		Reserved: map[string]bool{
			"read":  true,
			"order": true,
			"group": true,
			"key":   true,
		},
		BoolTrue:         "1",
		BoolFalse:        "0",
		EpochNow:         "UNIX_TIMESTAMP()",
		StringAgg:        "GROUP_CONCAT",
		IndexIfNotExists: false,
	},
	database.DialectPostgres: {
		Dialect:   database.DialectPostgres,
		QuoteChar: `"`,
		Reserved: map[string]bool{
			"read":  true,
			"order": true,
			"group": true,
			"user":  true,
		},
		BoolTrue:         "TRUE",
		BoolFalse:        "FALSE",
		EpochNow:         "EXTRACT(epoch FROM NOW())::INTEGER",
		StringAgg:        "STRING_AGG",
		IndexIfNotExists: false,
	},
}

// Get returns the profile for d. Panics on an unknown dialect: the Dialect
// type is closed and a miss is a programming error, not a runtime condition.
func Get(d database.Dialect) Profile {
	p, ok := profiles[d]
	if !ok {
		panic("dialect: no profile for " + string(d))
	}
	return p
}

// QuoteIdent wraps name in the profile's quote character only when the name
// collides with the curated reserved-word set; otherwise it is emitted bare.
func (p Profile) QuoteIdent(name string) string {
	if p.Reserved[strings.ToLower(name)] {
		return p.QuoteChar + name + p.QuoteChar
	}
	return name
}

// Quoter returns QuoteIdent as a database.QuoteFunc for the query builder.
func (p Profile) Quoter() database.QuoteFunc {
	return p.QuoteIdent
}

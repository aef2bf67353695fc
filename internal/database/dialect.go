package database

import "fmt"

// Dialect identifies one of the three supported SQL dialects.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect converts a config/CLI string into a Dialect.
// "mariadb" is accepted as an alias for mysql.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	default:
		return "", errInvalidInput(fmt.Sprintf("unknown dialect %q", s))
	}
}

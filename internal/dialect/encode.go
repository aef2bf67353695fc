package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sin5ddd/sqlew/internal/database"
)

// EncodeValue renders one scanned row value as a SQL literal for this
// profile's dialect. Numeric values are emitted unquoted; strings are quoted
// and escaped per dialect; NULL and booleans use the profile's literal forms.
func (p Profile) EncodeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return p.BoolTrue
		}
		return p.BoolFalse
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case []byte:
		return p.quoteString(string(x))
	case string:
		return p.quoteString(x)
	default:
		return p.quoteString(fmt.Sprint(x))
	}
}

// quoteString escapes a string literal per dialect convention: SQLite and
// PostgreSQL double the single quote; MySQL additionally escapes backslashes
// because its default sql_mode treats them as escape characters.
func (p Profile) quoteString(s string) string {
	if p.Dialect == database.DialectMySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

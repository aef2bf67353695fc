package schema

// ColumnType is the logical, dialect-independent column type. The translator
// maps it to native syntax per dialect; the introspectors map native types
// back to it on a best-effort basis.
type ColumnType int

const (
	// TypeSerial is an auto-incrementing integer primary key
	// (AUTOINCREMENT / AUTO_INCREMENT / SERIAL).
	TypeSerial ColumnType = iota
	TypeInteger
	TypeText
	TypeBoolean
	TypeReal
)

func (t ColumnType) String() string {
	switch t {
	case TypeSerial:
		return "serial"
	case TypeInteger:
		return "integer"
	case TypeText:
		return "text"
	case TypeBoolean:
		return "boolean"
	case TypeReal:
		return "real"
	default:
		return "unknown"
	}
}

// ColumnDefinition describes a single column.
//
// Default holds the logical default expression in its SQLite source form
// (e.g. "strftime('%s','now')", "0", "'pending'"). The dialect package owns
// the rewrite table that converts it per target; an empty string means no
// default.
type ColumnDefinition struct {
	Name      string
	Type      ColumnType
	Nullable  bool
	Default   string
	MaxLength int // 0 = unbounded; >0 emits VARCHAR(n) on MySQL/Postgres
}

// ForeignKeyRef describes one foreign key edge. It may reference a table
// outside the working set (subset exports): such edges are ignored during
// dependency sorting, never treated as errors.
type ForeignKeyRef struct {
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string // "", CASCADE, SET NULL, RESTRICT
}

// IndexDefinition describes a secondary index.
type IndexDefinition struct {
	Name       string
	Columns    []string
	Unique     bool
	Descending bool
}

// ViewDefinition describes a view. Body is the SELECT statement in its
// SQLite source form; dialect-specific aggregate and timestamp expressions
// inside it are rewritten by the same mechanism as DEFAULT expressions.
type ViewDefinition struct {
	Name string
	Body string
}

// TableDefinition is the unit the whole engine operates on. Definitions are
// produced fresh on each introspection or migration invocation and consumed
// within a single run, never persisted.
//
// Invariant: Name is unique within one schema snapshot.
type TableDefinition struct {
	Name        string
	Columns     []ColumnDefinition
	PrimaryKey  []string
	ForeignKeys []ForeignKeyRef
	Indexes     []IndexDefinition
}

// Column returns the named column definition, or nil.
func (t *TableDefinition) Column(name string) *ColumnDefinition {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ObjectKind selects the object class for existence checks.
type ObjectKind int

const (
	ObjectTable ObjectKind = iota
	ObjectColumn
	ObjectIndex
	ObjectView
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectTable:
		return "table"
	case ObjectColumn:
		return "column"
	case ObjectIndex:
		return "index"
	case ObjectView:
		return "view"
	default:
		return "unknown"
	}
}

package queryir

// Table names a stored relation.
type Table string

// Stored tables.
const (
	TableRuns  Table = "runs"
	TableSteps Table = "steps"
)

// Catalog lists the queryable columns of each table in schema order.
var Catalog = map[Table][]string{
	TableRuns: {
		"id", "definition_hash", "definition", "initial",
		"final", "status", "steps", "engine_version",
	},
	TableSteps: {
		"run_id", "seq", "rule_index", "rule",
		"line_before", "line_after", "start_pos", "end_pos",
	},
}

// Columns returns the catalog columns of t, or nil for an unknown table.
func Columns(t Table) []string {
	cols := Catalog[t]
	if cols == nil {
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// HasColumn reports whether t has a column named field.
func HasColumn(t Table, field string) bool {
	for _, c := range Catalog[t] {
		if c == field {
			return true
		}
	}
	return false
}

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select reads rows of one table.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter>
//
// An empty Columns list selects every catalog column in schema order.
// A nil Filter selects every row.
type Select struct {
	From    Table
	Filter  Predicate
	Columns []string
}

func (Select) queryNode() {}

// Equals is a field-equals-literal predicate.
//
// Value must be a string, int, int64 or bool.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// HasPrefix matches text fields starting with Prefix.
//
// Used for abbreviated run ids and definition hashes.
type HasPrefix struct {
	Field  string
	Prefix string
}

func (HasPrefix) predicateNode() {}

// And is a conjunction of predicates. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// AllOf builds a conjunction, dropping nil predicates. It returns nil if
// nothing remains and the single predicate if only one does.
func AllOf(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}

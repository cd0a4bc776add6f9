package querysql

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/postsys/internal/queryir"
)

// orderKeys is the ORDER BY of each table. Every stored-run query ends in
// one so listings and traces come back in the same order on every call.
// COLLATE BINARY keeps text ordering identical across SQLite builds.
var orderKeys = map[queryir.Table]string{
	queryir.TableRuns:  "id COLLATE BINARY ASC",
	queryir.TableSteps: "run_id COLLATE BINARY ASC, seq ASC",
}

// SQLCompiler compiles query IR to parameterized SQLite SQL.
// Values are always bound as parameters, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile returns the SQL text and its parameters.
//
// The query is validated against the catalog first; field names are only
// emitted after they are known to be columns.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	var sel queryir.Select
	switch query := q.(type) {
	case queryir.Select:
		sel = query
	case *queryir.Select:
		sel = *query
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}

	columns := sel.Columns
	if len(columns) == 0 {
		columns = queryir.Columns(sel.From)
	}

	b := &builder{}
	b.sql.WriteString("SELECT " + strings.Join(columns, ", ") + " FROM " + string(sel.From))
	if sel.Filter != nil {
		b.sql.WriteString(" WHERE ")
		if err := b.predicate(sel.Filter); err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
	}
	b.sql.WriteString(" ORDER BY " + orderKeys[sel.From])

	return b.sql.String(), b.params, nil
}

// builder accumulates SQL text and the parameters its placeholders bind.
type builder struct {
	sql    strings.Builder
	params []any
}

func (b *builder) predicate(p queryir.Predicate) error {
	switch pred := p.(type) {
	case queryir.Equals:
		b.equals(pred)
	case *queryir.Equals:
		b.equals(*pred)
	case queryir.HasPrefix:
		b.hasPrefix(pred)
	case *queryir.HasPrefix:
		b.hasPrefix(*pred)
	case queryir.And:
		return b.and(pred)
	case *queryir.And:
		return b.and(*pred)
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
	return nil
}

func (b *builder) equals(eq queryir.Equals) {
	b.sql.WriteString(eq.Field + " = ?")
	b.params = append(b.params, eq.Value)
}

// hasPrefix uses substr rather than LIKE so the prefix needs no escaping.
// SQLite substr counts characters, not bytes.
func (b *builder) hasPrefix(hp queryir.HasPrefix) {
	b.sql.WriteString("substr(" + hp.Field + ", 1, ?) = ?")
	b.params = append(b.params, utf8.RuneCountInString(hp.Prefix), hp.Prefix)
}

// and joins its operands with AND. An empty conjunction is true; a
// single operand is written without parentheses.
func (b *builder) and(and queryir.And) error {
	switch len(and.Predicates) {
	case 0:
		b.sql.WriteString("1 = 1")
		return nil
	case 1:
		return b.predicate(and.Predicates[0])
	}

	b.sql.WriteString("(")
	for i, pred := range and.Predicates {
		if i > 0 {
			b.sql.WriteString(" AND ")
		}
		if err := b.predicate(pred); err != nil {
			return err
		}
	}
	b.sql.WriteString(")")
	return nil
}

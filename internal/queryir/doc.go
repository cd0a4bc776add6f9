// Package queryir provides a small query intermediate representation for
// filtering stored runs and steps.
//
// QueryIR is the boundary between callers that want "runs with this status"
// or "steps that applied rule 2" and the SQL that answers them. Callers
// build a Select; the querysql package compiles it to parameterized SQL.
//
// ARCHITECTURE:
//
//	[CLI filters] → [Query IR] → [querysql] → [store]
//
// A Select names one table, an optional column list and an optional
// predicate. Predicates are Equals, HasPrefix and And. There are no joins,
// no OR and no aggregation.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, so backends can switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	    // field = ?
//	case HasPrefix:
//	    // substr(field, 1, n) = ?
//	case And:
//	    // p1 AND p2 ...
//	}
//
// CRITICAL PATTERNS:
//
// Closed Catalog:
// Every table and field must appear in Catalog. Field names are emitted into
// SQL verbatim, so Validate rejects anything outside the catalog.
//
// Literal Values Only:
// Equals values are strings, integers or booleans. Floats and nil are
// rejected so that comparisons stay exact.
package queryir

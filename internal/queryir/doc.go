// Package queryir is the backend-neutral query representation the
// relational adapter compiles to SQL.
//
// An index query is always a single-table Select:
//
//	Select{
//	  From:    "events",
//	  Filter:  And{Predicates: []Predicate{
//	    Equals{Field: "context_type", Value: Text("Course")},
//	    Equals{Field: "context_id", Value: Text("42")},
//	    Before{Field: "created_at", Value: Int(1704067200000000000)},
//	  }},
//	  OrderBy: []Order{{Field: "created_at", Descending: true}},
//	  Limit:   11,
//	}
//
// Query, Predicate and Value are sealed interfaces using the marker method
// pattern, so compilers can switch over them exhaustively.
//
// Values are restricted to text, integers and booleans. Floats are rejected
// because equality on them is not deterministic across stores; timestamps
// are carried as integer nanoseconds since the Unix epoch.
//
// Identifiers (table and field names) are interpolated into SQL by the
// compiler, so Validate rejects anything that is not a plain identifier.
// Values are never interpolated.
package queryir

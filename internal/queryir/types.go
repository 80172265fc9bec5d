package queryir

// Query is a sealed interface implemented only by Select.
type Query interface {
	queryNode()
}

// Predicate is a sealed interface for row filters.
//
// Predicate types:
//   - Equals: field = value
//   - JSONEquals: top-level key of a JSON document column = value
//   - Before: field < value (keyset resume)
//   - And: all predicates must hold
type Predicate interface {
	predicateNode()
}

// Select reads rows of one table.
//
// Semantics:
//
//	SELECT * FROM <from> WHERE <filter> ORDER BY <order_by> LIMIT <limit>
//
// Limit 0 means unlimited.
type Select struct {
	From    string
	Filter  Predicate // nil = no filter
	OrderBy []Order
	Limit   int
}

func (Select) queryNode() {}

// Order is one ORDER BY term.
type Order struct {
	Field      string
	Descending bool
}

// Equals matches rows whose field equals the value.
type Equals struct {
	Field string
	Value Value
}

func (Equals) predicateNode() {}

// JSONEquals matches rows whose JSON document column holds value under the
// top-level key. Attributes kept outside dedicated columns are filtered this way.
type JSONEquals struct {
	Column string
	Key    string
	Value  Value
}

func (JSONEquals) predicateNode() {}

// Before matches rows whose field is strictly less than the value.
// With a descending order it resumes a page after a bookmark.
type Before struct {
	Field string
	Value Value
}

func (Before) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// With returns a copy of s whose filter also requires p.
// The receiver's predicate slice is never shared with the copy.
func (s Select) With(p Predicate) Select {
	switch f := s.Filter.(type) {
	case nil:
		s.Filter = p
	case And:
		preds := make([]Predicate, 0, len(f.Predicates)+1)
		preds = append(preds, f.Predicates...)
		s.Filter = And{Predicates: append(preds, p)}
	default:
		s.Filter = And{Predicates: []Predicate{f, p}}
	}
	return s
}

package queryir

import (
	"fmt"
	"regexp"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationResult lists every problem found in a query.
type ValidationResult struct {
	// IsValid is true when Problems is empty.
	IsValid bool

	// Problems describes each violation in traversal order.
	Problems []string
}

// Err returns the first problem as an error, or nil.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	if len(r.Problems) == 1 {
		return fmt.Errorf("invalid query: %s", r.Problems[0])
	}
	return fmt.Errorf("invalid query: %s (and %d more)", r.Problems[0], len(r.Problems)-1)
}

// Validate checks that a query can be compiled safely.
//
// Rules:
//  1. Table, field and JSON key names are plain identifiers
//  2. Every predicate carries a non-nil value
//  3. Limit is not negative
//  4. At least one ORDER BY term (results must be ordered)
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)
	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if !identifier.MatchString(sel.From) {
		v.addProblem("invalid table name %q", sel.From)
	}
	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}
	if len(sel.OrderBy) == 0 {
		v.addProblem("missing ORDER BY")
	}
	for _, o := range sel.OrderBy {
		v.validateField(o.Field)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.validateField(pred.Field)
		v.validateValue(pred.Field, pred.Value)
	case JSONEquals:
		v.validateField(pred.Column)
		v.validateField(pred.Key)
		v.validateValue(pred.Key, pred.Value)
	case Before:
		v.validateField(pred.Field)
		v.validateValue(pred.Field, pred.Value)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case nil:
		v.addProblem("nil predicate")
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateField(name string) {
	if !identifier.MatchString(name) {
		v.addProblem("invalid field name %q", name)
	}
}

func (v *validator) validateValue(field string, val Value) {
	if val == nil {
		v.addProblem("field %q compared to nil", field)
	}
}

package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/eventstream/internal/queryir"
)

// SQLCompiler compiles queryir queries to parameterized SQLite SQL.
//
// Every query carries an ORDER BY (Validate enforces it) and every value is
// a ? parameter. Identifiers are validated, then always double-quoted, so
// keywords such as "table" or "order" work as names.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to SQL plus its ordered parameters.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// compileSelect renders SELECT * FROM t [WHERE ...] ORDER BY ... [LIMIT ?].
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var b strings.Builder
	var params []any

	b.WriteString("SELECT * FROM ")
	b.WriteString(QuoteIdent(q.From))

	if q.Filter != nil {
		where, whereParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = append(params, whereParams...)
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(c.compileOrder(q.OrderBy))

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, int64(q.Limit))
	}

	return b.String(), params, nil
}

// compileOrder renders ORDER BY terms in declaration order.
func (c *SQLCompiler) compileOrder(terms []queryir.Order) string {
	parts := make([]string, len(terms))
	for i, o := range terms {
		dir := "ASC"
		if o.Descending {
			dir = "DESC"
		}
		parts[i] = QuoteIdent(o.Field) + " " + dir
	}
	return strings.Join(parts, ", ")
}

// compilePredicate renders a WHERE fragment and its parameters.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileComparison(pred.Field, "=", pred.Value)
	case queryir.JSONEquals:
		return c.compileJSONEquals(pred)
	case queryir.Before:
		return c.compileComparison(pred.Field, "<", pred.Value)
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileComparison(field, op string, v queryir.Value) (string, []any, error) {
	param, err := queryir.Param(v)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", field, err)
	}
	return fmt.Sprintf("%s %s ?", QuoteIdent(field), op), []any{param}, nil
}

// compileJSONEquals renders json_extract(column, ?) = ? with the JSON path
// bound as a parameter.
func (c *SQLCompiler) compileJSONEquals(p queryir.JSONEquals) (string, []any, error) {
	param, err := queryir.Param(p.Value)
	if err != nil {
		return "", nil, fmt.Errorf("key %s: %w", p.Key, err)
	}
	sql := fmt.Sprintf("json_extract(%s, ?) = ?", QuoteIdent(p.Column))
	return sql, []any{"$." + p.Key, param}, nil
}

// compileAnd joins sub-predicates with AND. An empty And is always true.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if sub, ok := pred.(queryir.And); ok && len(sub.Predicates) > 1 {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// QuoteIdent quotes name as an SQLite identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

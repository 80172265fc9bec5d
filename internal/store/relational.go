package store

import (
	"context"
	"fmt"

	"github.com/roach88/eventstream/internal/eventstream"
	"github.com/roach88/eventstream/internal/queryir"
	"github.com/roach88/eventstream/internal/querysql"
)

// Relational is the relational StrategyAdapter over a Store.
//
// Predicates compile to parameterized SQL through queryir and querysql.
// Attribute columns compare directly; any other field is read from the
// payload document:
//
//	SELECT * FROM "<table>" WHERE "user_id" = ? AND json_extract("payload", '$.f') = ?
//	[AND "created_at" < ?] ORDER BY "created_at" DESC LIMIT ?
//
// The LIMIT is one more than the page size; the extra row only decides
// HasMore and is never returned.
type Relational struct {
	store    *Store
	compiler *querysql.SQLCompiler
}

// NewRelational binds a relational adapter to s.
func NewRelational(s *Store) *Relational {
	return &Relational{store: s, compiler: querysql.NewSQLCompiler()}
}

// relationalHandle carries the query being built. It is a value so each
// builder step returns a new handle.
type relationalHandle struct {
	sel queryir.Select
}

func (h relationalHandle) Target() string { return h.sel.From }

// Kind implements eventstream.StrategyAdapter.
func (r *Relational) Kind() eventstream.Kind { return eventstream.KindRelational }

// Bookmarker implements eventstream.StrategyAdapter.
func (r *Relational) Bookmarker() eventstream.Bookmarker {
	return eventstream.TimestampBookmarker{}
}

// ApplyPredicate implements eventstream.Backend.
// Fields become equality terms in sorted field order.
func (r *Relational) ApplyPredicate(target string, p eventstream.Predicate) (eventstream.QueryHandle, error) {
	if !eventstream.ValidIdentifier(target) {
		return nil, eventstream.NewArgumentError("invalid table name %q", target)
	}

	sel := queryir.Select{From: target}
	if len(p) > 0 {
		terms := make([]queryir.Predicate, 0, len(p))
		for _, field := range p.Fields() {
			if !eventstream.ValidIdentifier(field) {
				return nil, eventstream.NewArgumentError("invalid predicate field %q", field)
			}
			v, err := queryir.ValueOf(p[field])
			if err != nil {
				return nil, eventstream.NewArgumentError("predicate field %s: %v", field, err)
			}
			if isAttributeColumn(field) {
				terms = append(terms, queryir.Equals{Field: field, Value: v})
			} else {
				terms = append(terms, queryir.JSONEquals{Column: "payload", Key: field, Value: v})
			}
		}
		sel.Filter = queryir.And{Predicates: terms}
	}
	return relationalHandle{sel: sel}, nil
}

// OrderDescendingBy implements eventstream.Backend.
// Only the timestamp column can order a relational index, since bookmarks
// are timestamps.
func (r *Relational) OrderDescendingBy(h eventstream.QueryHandle, field string) (eventstream.QueryHandle, error) {
	rh, ok := h.(relationalHandle)
	if !ok {
		return nil, eventstream.NewInvariantViolation("relational backend received foreign handle %T", h)
	}
	if field != eventstream.DefaultOrderField {
		return nil, eventstream.NewArgumentError("relational backend orders by %s only, got %q", eventstream.DefaultOrderField, field)
	}
	rh.sel.OrderBy = []queryir.Order{{Field: field, Descending: true}}
	return rh, nil
}

// FetchPage implements eventstream.Backend.
func (r *Relational) FetchPage(ctx context.Context, h eventstream.QueryHandle, req eventstream.PageRequest) (eventstream.Page, error) {
	rh, ok := h.(relationalHandle)
	if !ok {
		return eventstream.Page{}, eventstream.NewInvariantViolation("relational backend received foreign handle %T", h)
	}
	if req.Limit < 1 {
		return eventstream.Page{}, eventstream.NewArgumentError("page limit must be positive, got %d", req.Limit)
	}

	sel := rh.sel
	if req.After != "" {
		t, err := eventstream.TimestampBookmarker{}.Time(req.After)
		if err != nil {
			return eventstream.Page{}, eventstream.NewInvalidBookmarkError("", r.Kind(), req.After)
		}
		sel = sel.With(queryir.Before{Field: eventstream.DefaultOrderField, Value: queryir.Int(t.UnixNano())})
	}
	sel.Limit = req.Limit + 1

	query, params, err := r.compiler.Compile(sel)
	if err != nil {
		return eventstream.Page{}, fmt.Errorf("compile page query: %w", err)
	}

	rows, err := r.store.db.QueryContext(ctx, query, params...)
	if err != nil {
		return eventstream.Page{}, fmt.Errorf("query %s: %w", sel.From, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return eventstream.Page{}, err
	}

	page := eventstream.Page{Rows: records}
	if len(records) > req.Limit {
		page.Rows = records[:req.Limit]
		page.HasMore = true
	}
	return page, nil
}

package memstore

import (
	"context"

	"github.com/roach88/eventstream/internal/eventstream"
)

// Adapter is the in-memory StrategyAdapter. It filters by predicate
// equality on record fields and uses timestamp bookmarks, matching the
// relational adapter's resume semantics.
type Adapter struct {
	store *Store
}

// NewAdapter binds an in-memory adapter to s.
func NewAdapter(s *Store) *Adapter {
	return &Adapter{store: s}
}

type memHandle struct {
	table   string
	pred    eventstream.Predicate
	ordered bool
}

func (h memHandle) Target() string { return h.table }

// Kind implements eventstream.StrategyAdapter.
func (a *Adapter) Kind() eventstream.Kind { return eventstream.KindMemory }

// Bookmarker implements eventstream.StrategyAdapter.
func (a *Adapter) Bookmarker() eventstream.Bookmarker { return eventstream.TimestampBookmarker{} }

// ApplyPredicate implements eventstream.Backend.
func (a *Adapter) ApplyPredicate(target string, p eventstream.Predicate) (eventstream.QueryHandle, error) {
	if !eventstream.ValidIdentifier(target) {
		return nil, eventstream.NewArgumentError("invalid table name %q", target)
	}
	pred := make(eventstream.Predicate, len(p))
	for k, v := range p {
		pred[k] = v
	}
	return memHandle{table: target, pred: pred}, nil
}

// OrderDescendingBy implements eventstream.Backend.
func (a *Adapter) OrderDescendingBy(h eventstream.QueryHandle, field string) (eventstream.QueryHandle, error) {
	mh, ok := h.(memHandle)
	if !ok {
		return nil, eventstream.NewInvariantViolation("memory backend received foreign handle %T", h)
	}
	if field != eventstream.DefaultOrderField {
		return nil, eventstream.NewArgumentError("memory backend orders by %s only, got %q", eventstream.DefaultOrderField, field)
	}
	mh.ordered = true
	return mh, nil
}

// FetchPage implements eventstream.Backend.
func (a *Adapter) FetchPage(ctx context.Context, h eventstream.QueryHandle, req eventstream.PageRequest) (eventstream.Page, error) {
	mh, ok := h.(memHandle)
	if !ok || !mh.ordered {
		return eventstream.Page{}, eventstream.NewInvariantViolation("memory handle is not an ordered scan")
	}
	if req.Limit < 1 {
		return eventstream.Page{}, eventstream.NewArgumentError("page limit must be positive, got %d", req.Limit)
	}
	if err := ctx.Err(); err != nil {
		return eventstream.Page{}, err
	}

	var before int64
	resume := req.After != ""
	if resume {
		t, err := eventstream.TimestampBookmarker{}.Time(req.After)
		if err != nil {
			return eventstream.Page{}, eventstream.NewInvalidBookmarkError("", a.Kind(), req.After)
		}
		before = t.UnixNano()
	}

	page := eventstream.Page{Rows: []eventstream.Record{}}
	a.store.scan(mh.table, mh.pred, resume, before, func(rec eventstream.Record) bool {
		if len(page.Rows) == req.Limit {
			page.HasMore = true
			return false
		}
		page.Rows = append(page.Rows, rec)
		return true
	})
	return page, nil
}

package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roach88/eventstream/internal/eventstream"
)

// RecordingBackend is an in-process StrategyAdapter that records every call
// it receives. Rows are served newest first and paged with the timestamp
// bookmarker, so it behaves like the relational adapter without a database.
//
// Thread-safety: safe for concurrent use via internal mutex.
type RecordingBackend struct {
	mu sync.Mutex

	kind eventstream.Kind
	rows []eventstream.Record

	// FetchErr, when set, is returned by every FetchPage call.
	FetchErr error

	// ApplyErr, when set, is returned by every ApplyPredicate call.
	ApplyErr error

	Targets     []string
	Predicates  []eventstream.Predicate
	OrderFields []string
	Requests    []eventstream.PageRequest
}

// RecordingHandle is the handle type issued by RecordingBackend.
type RecordingHandle struct {
	Table     string
	Predicate eventstream.Predicate
	OrderBy   string
}

// Target implements eventstream.QueryHandle.
func (h RecordingHandle) Target() string { return h.Table }

// NewRecordingBackend creates a backend reporting kind.
func NewRecordingBackend(kind eventstream.Kind) *RecordingBackend {
	return &RecordingBackend{kind: kind}
}

// Kind implements eventstream.StrategyAdapter.
func (b *RecordingBackend) Kind() eventstream.Kind { return b.kind }

// Bookmarker implements eventstream.StrategyAdapter.
func (b *RecordingBackend) Bookmarker() eventstream.Bookmarker {
	return eventstream.TimestampBookmarker{}
}

// Add stores rows. Rows are matched against predicates by Fields equality.
func (b *RecordingBackend) Add(rows ...eventstream.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = append(b.rows, rows...)
}

// AddSeries adds n rows sharing fields, timestamped by clock.
func (b *RecordingBackend) AddSeries(clock *StepClock, n int, fields map[string]any) []eventstream.Record {
	rows := make([]eventstream.Record, n)
	for i := range rows {
		f := make(map[string]any, len(fields))
		for k, v := range fields {
			f[k] = v
		}
		rows[i] = eventstream.Record{
			ID:        eventstream.NewRecordID(),
			CreatedAt: clock.Now(),
			Fields:    f,
		}
	}
	b.Add(rows...)
	return rows
}

// ApplyPredicate implements eventstream.Backend.
func (b *RecordingBackend) ApplyPredicate(target string, p eventstream.Predicate) (eventstream.QueryHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Targets = append(b.Targets, target)
	b.Predicates = append(b.Predicates, p)
	if b.ApplyErr != nil {
		return nil, b.ApplyErr
	}
	return RecordingHandle{Table: target, Predicate: p}, nil
}

// OrderDescendingBy implements eventstream.Backend.
func (b *RecordingBackend) OrderDescendingBy(h eventstream.QueryHandle, field string) (eventstream.QueryHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.OrderFields = append(b.OrderFields, field)
	rh := h.(RecordingHandle)
	rh.OrderBy = field
	return rh, nil
}

// FetchPage implements eventstream.Backend.
func (b *RecordingBackend) FetchPage(ctx context.Context, h eventstream.QueryHandle, req eventstream.PageRequest) (eventstream.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Requests = append(b.Requests, req)
	if b.FetchErr != nil {
		return eventstream.Page{}, b.FetchErr
	}
	if err := ctx.Err(); err != nil {
		return eventstream.Page{}, err
	}

	rh := h.(RecordingHandle)
	var after time.Time
	if req.After != "" {
		t, err := eventstream.TimestampBookmarker{}.Time(req.After)
		if err != nil {
			return eventstream.Page{}, err
		}
		after = t
	}

	var matched []eventstream.Record
	for _, r := range b.rows {
		if !matches(r, rh.Predicate) {
			continue
		}
		if req.After != "" && !r.CreatedAt.Before(after) {
			continue
		}
		matched = append(matched, r)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := eventstream.Page{Rows: []eventstream.Record{}}
	if len(matched) > req.Limit {
		page.Rows = matched[:req.Limit]
		page.HasMore = true
	} else {
		page.Rows = append(page.Rows, matched...)
	}
	return page, nil
}

func matches(r eventstream.Record, p eventstream.Predicate) bool {
	for field, want := range p {
		if r.Get(field) != want {
			return false
		}
	}
	return true
}

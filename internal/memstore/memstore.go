// Package memstore is an in-memory event store ordered by a B-tree, and the
// in-memory strategy adapter over it. It serves tests and embedding
// programs; nothing survives the process, so the CLI never opens it.
package memstore

import (
	"context"
	"maps"
	"reflect"
	"sync"

	"github.com/google/btree"

	"github.com/roach88/eventstream/internal/clock"
	"github.com/roach88/eventstream/internal/eventstream"
)

// degree is the B-tree node width.
const degree = 32

// row is one stored record keyed by (created_at nanos, id).
type row struct {
	nanos int64
	rec   eventstream.Record
}

func rowLess(a, b *row) bool {
	if a.nanos != b.nanos {
		return a.nanos < b.nanos
	}
	return a.rec.ID < b.rec.ID
}

// table is one B-tree of rows plus the set of IDs stored in it.
type table struct {
	rows *btree.BTreeG[*row]
	ids  map[string]struct{}
}

// Store keeps one B-tree per table.
//
// Thread-safety: safe for concurrent use via internal RWMutex.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	clock  *clock.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock that stamps appended records.
func WithClock(c *clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{tables: make(map[string]*table)}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	return s
}

// Append stores rec in name and returns the record. An empty ID gets a
// UUIDv7 and a zero CreatedAt the next clock tick. Appending an ID that is
// already stored keeps the first record, like the relational store.
func (s *Store) Append(ctx context.Context, name string, rec eventstream.Record) (eventstream.Record, error) {
	if !eventstream.ValidIdentifier(name) {
		return eventstream.Record{}, eventstream.NewArgumentError("invalid table name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return eventstream.Record{}, err
	}
	if rec.ID == "" {
		rec.ID = eventstream.NewRecordID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock.Next()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.Fields = maps.Clone(rec.Fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: btree.NewG(degree, rowLess), ids: make(map[string]struct{})}
		s.tables[name] = t
	}
	if _, dup := t.ids[rec.ID]; dup {
		return rec, nil
	}
	t.ids[rec.ID] = struct{}{}
	t.rows.ReplaceOrInsert(&row{nanos: rec.CreatedAt.UnixNano(), rec: rec})
	return rec, nil
}

// Len returns the number of records in the named table.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[name]; ok {
		return t.rows.Len()
	}
	return 0
}

// scan walks table newest first, starting strictly before beforeNanos when
// resume is set, and calls fn for each record matching p until fn returns
// false.
func (s *Store) scan(name string, p eventstream.Predicate, resume bool, beforeNanos int64, fn func(eventstream.Record) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return
	}
	tree := t.rows
	visit := func(r *row) bool {
		if !matches(r.rec, p) {
			return true
		}
		rec := r.rec
		rec.Fields = maps.Clone(rec.Fields)
		return fn(rec)
	}
	if resume {
		tree.DescendLessOrEqual(&row{nanos: beforeNanos}, visit)
		return
	}
	tree.Descend(visit)
}

func matches(rec eventstream.Record, p eventstream.Predicate) bool {
	for field, want := range p {
		if !reflect.DeepEqual(rec.Get(field), want) {
			return false
		}
	}
	return true
}

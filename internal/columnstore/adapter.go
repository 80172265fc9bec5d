package columnstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/roach88/eventstream/internal/codec"
	"github.com/roach88/eventstream/internal/eventstream"
)

// Adapter is the column-store StrategyAdapter. A predicate names exactly one
// partition; rows in it are clustered by (created_at, id), the only order
// the store can serve.
type Adapter struct {
	store      *Store
	bookmarker ClusteringBookmarker
}

// NewAdapter binds a column-store adapter to s.
func NewAdapter(s *Store) *Adapter {
	return &Adapter{store: s}
}

type partitionHandle struct {
	table   string
	prefix  []byte
	ordered bool
}

func (h partitionHandle) Target() string { return h.table }

// Kind implements eventstream.StrategyAdapter.
func (a *Adapter) Kind() eventstream.Kind { return eventstream.KindColumnStore }

// Bookmarker implements eventstream.StrategyAdapter.
func (a *Adapter) Bookmarker() eventstream.Bookmarker { return a.bookmarker }

// ApplyPredicate implements eventstream.Backend.
func (a *Adapter) ApplyPredicate(target string, p eventstream.Predicate) (eventstream.QueryHandle, error) {
	if !eventstream.ValidIdentifier(target) {
		return nil, eventstream.NewArgumentError("invalid table name %q", target)
	}
	part, err := partitionKey(p)
	if err != nil {
		return nil, err
	}
	return partitionHandle{table: target, prefix: keyPartitionPrefix(target, part)}, nil
}

// OrderDescendingBy implements eventstream.Backend.
func (a *Adapter) OrderDescendingBy(h eventstream.QueryHandle, field string) (eventstream.QueryHandle, error) {
	ph, ok := h.(partitionHandle)
	if !ok {
		return nil, eventstream.NewInvariantViolation("column store received foreign handle %T", h)
	}
	if field != eventstream.DefaultOrderField {
		return nil, eventstream.NewArgumentError("column store clusters by %s only, got %q", eventstream.DefaultOrderField, field)
	}
	ph.ordered = true
	return ph, nil
}

// FetchPage implements eventstream.Backend.
func (a *Adapter) FetchPage(ctx context.Context, h eventstream.QueryHandle, req eventstream.PageRequest) (eventstream.Page, error) {
	ph, ok := h.(partitionHandle)
	if !ok || !ph.ordered {
		return eventstream.Page{}, eventstream.NewInvariantViolation("column store handle is not an ordered partition scan")
	}
	if req.Limit < 1 {
		return eventstream.Page{}, eventstream.NewArgumentError("page limit must be positive, got %d", req.Limit)
	}

	seek := append(append([]byte{}, ph.prefix...), seekTail...)
	var resume []byte
	if req.After != "" {
		ck, err := a.bookmarker.clusteringKey(req.After)
		if err != nil {
			return eventstream.Page{}, eventstream.NewInvalidBookmarkError("", a.Kind(), req.After)
		}
		resume = append(append([]byte{}, ph.prefix...), ck...)
		seek = resume
	}

	page := eventstream.Page{Rows: []eventstream.Record{}}
	err := a.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = ph.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(ph.prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			if resume != nil && bytes.Equal(item.Key(), resume) {
				continue
			}
			if len(page.Rows) == req.Limit {
				page.HasMore = true
				return nil
			}
			rec, err := decodeRow(item, len(ph.prefix))
			if err != nil {
				return err
			}
			page.Rows = append(page.Rows, rec)
		}
		return nil
	})
	if err != nil {
		return eventstream.Page{}, fmt.Errorf("scan %s: %w", ph.table, err)
	}
	return page, nil
}

// decodeRow rebuilds a record from its key and canonical JSON value.
func decodeRow(item *badger.Item, prefixLen int) (eventstream.Record, error) {
	nanos, id, err := splitClustering(item.Key()[prefixLen:])
	if err != nil {
		return eventstream.Record{}, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return eventstream.Record{}, fmt.Errorf("read row %s: %w", id, err)
	}
	fields, err := codec.Unmarshal(value)
	if err != nil {
		return eventstream.Record{}, fmt.Errorf("decode row %s: %w", id, err)
	}
	return eventstream.Record{
		ID:        id,
		CreatedAt: time.Unix(0, int64(nanos)).UTC(),
		Fields:    fields,
	}, nil
}

// Package columnstore is a partition-keyed wide-row event store on BadgerDB
// and the column-store strategy adapter over it.
//
// Each record is written once per partition it belongs to. A partition is
// identified by a predicate (field -> value); an index query reads exactly
// the partition named by its predicate, newest first, with one reverse
// prefix scan per page.
package columnstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/roach88/eventstream/internal/clock"
	"github.com/roach88/eventstream/internal/codec"
	"github.com/roach88/eventstream/internal/eventstream"
)

// Store is a column store backed by BadgerDB.
//
// Thread Safety: safe for concurrent use.
type Store struct {
	db    *badger.DB
	clock *clock.Clock
	gc    *gcRunner
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock that stamps appended records.
func WithClock(c *clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open opens a column store at cfg.Dir, or in memory.
// Starts value log GC when cfg.GCInterval is set on a persistent store.
func Open(cfg Config, opts ...Option) (*Store, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("dir is required for persistent column store")
	}

	var bopts badger.Options
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
			return nil, fmt.Errorf("create column store directory %s: %w", cfg.Dir, err)
		}
		bopts = badger.DefaultOptions(cfg.Dir)
	}
	bopts = bopts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		bopts = bopts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clock.New()
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		logger := cfg.Logger
		if logger == nil {
			logger = slog.Default()
		}
		s.gc = startGC(db, cfg.GCInterval, cfg.GCDiscardRatio, logger)
	}
	return s, nil
}

// Close stops GC and closes the database.
func (s *Store) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}

// Append writes rec into table once per partition. Each partition lists the
// fields whose record values form the partition predicate; with no
// partitions the record goes to the table-wide partition.
//
// An empty ID gets a UUIDv7 and a zero CreatedAt the next clock tick.
// Appending an ID already stored in table keeps the first record.
// Returns the record.
func (s *Store) Append(ctx context.Context, table string, rec eventstream.Record, partitions ...[]string) (eventstream.Record, error) {
	if !eventstream.ValidIdentifier(table) {
		return eventstream.Record{}, eventstream.NewArgumentError("invalid table name %q", table)
	}
	if rec.ID == "" {
		rec.ID = eventstream.NewRecordID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock.Next()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if rec.CreatedAt.UnixNano() < 0 {
		return eventstream.Record{}, eventstream.NewArgumentError("created_at %s precedes the Unix epoch", rec.CreatedAt)
	}

	fields := rec.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	value, err := codec.Marshal(fields)
	if err != nil {
		return eventstream.Record{}, eventstream.NewArgumentError("fields: %v", err)
	}

	if len(partitions) == 0 {
		partitions = [][]string{nil}
	}
	keys := make([][]byte, 0, len(partitions))
	for _, fieldNames := range partitions {
		pred := eventstream.Predicate{}
		for _, f := range fieldNames {
			v, ok := fields[f]
			if !ok {
				return eventstream.Record{}, eventstream.NewArgumentError("partition field %s missing from record", f)
			}
			pred[f] = v
		}
		part, err := partitionKey(pred)
		if err != nil {
			return eventstream.Record{}, err
		}
		keys = append(keys, keyEntry(table, part, uint64(rec.CreatedAt.UnixNano()), rec.ID))
	}

	if err := ctx.Err(); err != nil {
		return eventstream.Record{}, err
	}
	nanos := uint64(rec.CreatedAt.UnixNano())
	idKey := keyRecordID(table, rec.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(idKey)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(idKey, clusteringKey(nanos, rec.ID)); err != nil {
			return err
		}
		for _, k := range keys {
			if err := txn.Set(k, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return eventstream.Record{}, fmt.Errorf("append to %s: %w", table, err)
	}
	return rec, nil
}

// partitionKey encodes a predicate as canonical JSON.
func partitionKey(p eventstream.Predicate) ([]byte, error) {
	for f := range p {
		if !eventstream.ValidIdentifier(f) {
			return nil, eventstream.NewArgumentError("invalid partition field %q", f)
		}
	}
	data, err := codec.Marshal(map[string]any(p))
	if err != nil {
		return nil, eventstream.NewArgumentError("partition: %v", err)
	}
	return data, nil
}

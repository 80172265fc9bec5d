package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/eventstream/internal/codec"
	"github.com/roach88/eventstream/internal/eventstream"
	"github.com/roach88/eventstream/internal/querysql"
)

// attributeColumns are the indexed TEXT columns of an event table. Any
// other field is stored in the payload column and filtered with
// json_extract.
var attributeColumns = []string{
	"stream",
	"event_type",
	"context_type",
	"context_id",
	"user_id",
	"request_id",
}

func isAttributeColumn(name string) bool {
	for _, c := range attributeColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Append inserts rec into table and returns the stored record.
//
// An empty ID gets a UUIDv7 and a zero CreatedAt gets the next tick of the
// store clock. Uses ON CONFLICT(id) DO NOTHING, so appending the same ID
// twice keeps the first record.
func (s *Store) Append(ctx context.Context, table string, rec eventstream.Record) (eventstream.Record, error) {
	if err := s.EnsureTable(ctx, table); err != nil {
		return eventstream.Record{}, err
	}

	if rec.ID == "" {
		rec.ID = eventstream.NewRecordID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock.Next()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	cols := []string{`"id"`, `"created_at"`}
	args := []any{rec.ID, rec.CreatedAt.UnixNano()}
	payload := make(map[string]any)
	for name, v := range rec.Fields {
		if !isAttributeColumn(name) {
			payload[name] = v
			continue
		}
		str, ok := v.(string)
		if !ok && v != nil {
			return eventstream.Record{}, eventstream.NewArgumentError("column %s must be a string, got %T", name, v)
		}
		cols = append(cols, querysql.QuoteIdent(name))
		if v == nil {
			args = append(args, nil)
		} else {
			args = append(args, str)
		}
	}

	data, err := codec.Marshal(payload)
	if err != nil {
		return eventstream.Record{}, eventstream.NewArgumentError("payload: %v", err)
	}
	cols = append(cols, `"payload"`)
	args = append(args, string(data))

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(\"id\") DO NOTHING",
		querysql.QuoteIdent(table), strings.Join(cols, ", "), placeholders)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return eventstream.Record{}, fmt.Errorf("append to %s: %w", table, err)
	}
	return rec, nil
}

// Count returns the number of records in table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	if !eventstream.ValidIdentifier(table) {
		return 0, eventstream.NewArgumentError("invalid table name %q", table)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+querysql.QuoteIdent(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/eventstream/internal/codec"
	"github.com/roach88/eventstream/internal/eventstream"
)

// scanRecords reads every row of a SELECT * over an event table.
// Returns an empty slice (not nil) when there are no rows.
func scanRecords(rows *sql.Rows) ([]eventstream.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	records := []eventstream.Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := recordFromColumns(cols, values)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// recordFromColumns maps one row onto a Record. Payload attributes are
// merged into Fields; NULL columns are omitted.
func recordFromColumns(cols []string, values []any) (eventstream.Record, error) {
	rec := eventstream.Record{Fields: make(map[string]any)}
	for i, col := range cols {
		v := values[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		switch col {
		case "id":
			id, ok := v.(string)
			if !ok {
				return rec, fmt.Errorf("scan record: id is %T", v)
			}
			rec.ID = id
		case "created_at":
			nanos, ok := v.(int64)
			if !ok {
				return rec, fmt.Errorf("scan record %s: created_at is %T", rec.ID, v)
			}
			rec.CreatedAt = time.Unix(0, nanos).UTC()
		case "payload":
			text, _ := v.(string)
			payload, err := codec.Unmarshal([]byte(text))
			if err != nil {
				return rec, fmt.Errorf("scan record %s: payload: %w", rec.ID, err)
			}
			for k, pv := range payload {
				if _, taken := rec.Fields[k]; !taken {
					rec.Fields[k] = pv
				}
			}
		default:
			if v != nil {
				rec.Fields[col] = v
			}
		}
	}
	return rec, nil
}

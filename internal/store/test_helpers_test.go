package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/eventstream/internal/clock"
	"github.com/roach88/eventstream/internal/eventstream"
	"github.com/roach88/eventstream/internal/testutil"
)

// createTestStore opens a store in a temp dir stamped by a step clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clock.NewWithSource(testutil.NewStepClock().Now)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// appendContextEvents appends n events for one context, oldest first.
func appendContextEvents(t *testing.T, s *Store, contextType, contextID string, n int) []eventstream.Record {
	t.Helper()
	out := make([]eventstream.Record, n)
	for i := range out {
		rec, err := s.Append(context.Background(), DefaultTable, eventstream.Record{
			Fields: map[string]any{
				"context_type": contextType,
				"context_id":   contextID,
				"event_type":   "updated",
				"seq":          int64(i),
			},
		})
		require.NoError(t, err)
		out[i] = rec
	}
	return out
}

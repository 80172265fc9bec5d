package eventstream_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/eventstream/internal/eventstream"
	"github.com/roach88/eventstream/internal/testutil"
)

// idKey is a key-bearing argument distinct from StringKey.
type idKey struct {
	id string
}

func (k idKey) ID() string { return k.id }

// newTestStrategy wires an index over "events" to a fresh recording backend.
func newTestStrategy(t *testing.T, fields ...string) (*eventstream.Strategy, *testutil.RecordingBackend) {
	t.Helper()
	backend := testutil.NewRecordingBackend(eventstream.KindRelational)
	reg := eventstream.NewRegistry()
	require.NoError(t, reg.Register(backend))

	idx, err := eventstream.NewIndex("by_context", eventstream.IndexConfig{
		Table:      "events",
		Conditions: eventstream.FieldConditions(fields...),
		Registry:   reg,
	})
	require.NoError(t, err)

	s, err := idx.WithStrategy(eventstream.KindRelational)
	require.NoError(t, err)
	return s, backend
}

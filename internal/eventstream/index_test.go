package eventstream_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventstream/internal/eventstream"
	"github.com/roach88/eventstream/internal/testutil"
)

func TestNewIndex_Defaults(t *testing.T) {
	idx, err := eventstream.NewIndex("by_user", eventstream.IndexConfig{
		Table:      "events",
		Conditions: eventstream.FieldConditions("user_id"),
	})
	require.NoError(t, err)

	assert.Equal(t, "by_user", idx.Name())
	assert.Equal(t, "events", idx.Table())
	assert.Equal(t, eventstream.DefaultOrderField, idx.OrderBy())
	assert.Equal(t, 1, idx.Arity())
}

func TestNewIndex_ConfigurationErrors(t *testing.T) {
	valid := eventstream.FieldConditions("user_id")

	tests := []struct {
		name  string
		index string
		cfg   eventstream.IndexConfig
		want  string
	}{
		{"missing name", "", eventstream.IndexConfig{Table: "events", Conditions: valid}, "index name is required"},
		{"missing table", "i", eventstream.IndexConfig{Conditions: valid}, "table is required"},
		{"bad table", "i", eventstream.IndexConfig{Table: "events; drop", Conditions: valid}, "invalid table name"},
		{"bad order field", "i", eventstream.IndexConfig{Table: "events", OrderBy: "1x", Conditions: valid}, "invalid order field"},
		{"missing builder", "i", eventstream.IndexConfig{Table: "events"}, "condition builder is required"},
		{"nil func helper", "i", eventstream.IndexConfig{Table: "events", Conditions: eventstream.Conditions2(nil)}, "condition builder is required"},
		{"zero arity", "i", eventstream.IndexConfig{Table: "events", Conditions: eventstream.FieldConditions()}, "arity must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eventstream.NewIndex(tt.index, tt.cfg)
			require.Error(t, err)
			assert.True(t, eventstream.IsConfigurationError(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMustIndex_PanicsOnInvalidConfig(t *testing.T) {
	assert.Panics(t, func() {
		eventstream.MustIndex("broken", eventstream.IndexConfig{})
	})
}

func TestConditionHelpers_FixArity(t *testing.T) {
	c1 := eventstream.Conditions1(func(a eventstream.Key) eventstream.Predicate {
		return eventstream.Predicate{"a": a.ID()}
	})
	c3 := eventstream.Conditions3(func(a, b, c eventstream.Key) eventstream.Predicate {
		return eventstream.Predicate{"a": a.ID(), "b": b.ID(), "c": c.ID()}
	})

	assert.Equal(t, 1, c1.Arity)
	assert.Equal(t, 3, c3.Arity)
	assert.Equal(t, eventstream.Predicate{"a": "x"}, c1.Build(eventstream.Keys("x")))
	assert.Equal(t,
		eventstream.Predicate{"a": "x", "b": "y", "c": "z"},
		c3.Build(eventstream.Keys("x", "y", "z")))
}

func TestFieldConditions_CopiesFields(t *testing.T) {
	fields := []string{"context_type", "context_id"}
	conds := eventstream.FieldConditions(fields...)
	fields[0] = "mutated"

	got := conds.Build(eventstream.Keys("Course", "42"))
	assert.Equal(t, eventstream.Predicate{"context_type": "Course", "context_id": "42"}, got)
}

func TestWithStrategy_UnknownKind(t *testing.T) {
	reg := eventstream.NewRegistry()
	idx, err := eventstream.NewIndex("i", eventstream.IndexConfig{
		Table:      "events",
		Conditions: eventstream.FieldConditions("user_id"),
		Registry:   reg,
	})
	require.NoError(t, err)

	_, err = idx.WithStrategy(eventstream.KindColumnStore)
	require.Error(t, err)
	assert.True(t, eventstream.IsUnknownStrategy(err))
	assert.Contains(t, err.Error(), "columnstore")
}

func TestWithStrategy_OneStrategyPerKind(t *testing.T) {
	reg := eventstream.NewRegistry()
	require.NoError(t, reg.Register(testutil.NewRecordingBackend(eventstream.KindRelational)))
	require.NoError(t, reg.Register(testutil.NewRecordingBackend(eventstream.KindMemory)))

	idx := eventstream.MustIndex("i", eventstream.IndexConfig{
		Table:      "events",
		Conditions: eventstream.FieldConditions("user_id"),
		Registry:   reg,
	})

	s1, err := idx.WithStrategy(eventstream.KindRelational)
	require.NoError(t, err)
	s2, err := idx.WithStrategy(eventstream.KindRelational)
	require.NoError(t, err)
	s3, err := idx.WithStrategy(eventstream.KindMemory)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.NotSame(t, s1, s3)
	assert.Equal(t, eventstream.KindMemory, s3.Kind())
	assert.Same(t, idx, s1.Index())
}

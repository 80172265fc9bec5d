package eventstream

import "sync"

// ConditionBuilder turns the ordered scope arguments of a query into a
// predicate. Build must be a pure function of its arguments.
type ConditionBuilder struct {
	Arity int
	Build func(args []Key) Predicate
}

// Conditions1 builds a single-argument condition builder.
func Conditions1(f func(a Key) Predicate) ConditionBuilder {
	if f == nil {
		return ConditionBuilder{Arity: 1}
	}
	return ConditionBuilder{Arity: 1, Build: func(args []Key) Predicate {
		return f(args[0])
	}}
}

// Conditions2 builds a two-argument condition builder.
func Conditions2(f func(a, b Key) Predicate) ConditionBuilder {
	if f == nil {
		return ConditionBuilder{Arity: 2}
	}
	return ConditionBuilder{Arity: 2, Build: func(args []Key) Predicate {
		return f(args[0], args[1])
	}}
}

// Conditions3 builds a three-argument condition builder.
func Conditions3(f func(a, b, c Key) Predicate) ConditionBuilder {
	if f == nil {
		return ConditionBuilder{Arity: 3}
	}
	return ConditionBuilder{Arity: 3, Build: func(args []Key) Predicate {
		return f(args[0], args[1], args[2])
	}}
}

// FieldConditions maps positional argument i to fields[i] = args[i].ID().
func FieldConditions(fields ...string) ConditionBuilder {
	cols := append([]string(nil), fields...)
	return ConditionBuilder{Arity: len(cols), Build: func(args []Key) Predicate {
		p := make(Predicate, len(cols))
		for i, f := range cols {
			p[f] = args[i].ID()
		}
		return p
	}}
}

// EntryBuilder materializes a stored row into the record handed to callers.
// It must not fail on any row its table can hold.
type EntryBuilder func(row Record) Record

// IndexConfig is the one-time configuration of an Index.
type IndexConfig struct {
	// Table is the storage target (table, collection, keyspace prefix).
	Table string

	// OrderBy is the monotonic ordering field. Defaults to created_at.
	OrderBy string

	// Conditions builds the backend predicate from the scope arguments.
	Conditions ConditionBuilder

	// Entry maps rows to records. Nil means rows are returned as is.
	Entry EntryBuilder

	// Registry resolves strategy kinds. Nil means DefaultRegistry.
	Registry *Registry
}

// Index is an immutable, named description of one secondary index over an
// event table. It is safe for concurrent use.
type Index struct {
	name    string
	table   string
	orderBy string
	conds   ConditionBuilder
	entry   EntryBuilder
	reg     *Registry

	mu         sync.Mutex
	strategies map[Kind]*Strategy
}

// NewIndex validates cfg and returns the index. Every problem is a
// ConfigurationError; these indicate programming errors and should fail fast.
func NewIndex(name string, cfg IndexConfig) (*Index, error) {
	if name == "" {
		return nil, NewConfigurationError(name, "index name is required")
	}
	if cfg.Table == "" {
		return nil, NewConfigurationError(name, "table is required")
	}
	if !ValidIdentifier(cfg.Table) {
		return nil, NewConfigurationError(name, "invalid table name %q", cfg.Table)
	}
	orderBy := cfg.OrderBy
	if orderBy == "" {
		orderBy = DefaultOrderField
	}
	if !ValidIdentifier(orderBy) {
		return nil, NewConfigurationError(name, "invalid order field %q", orderBy)
	}
	if cfg.Conditions.Build == nil {
		return nil, NewConfigurationError(name, "condition builder is required")
	}
	if cfg.Conditions.Arity < 1 {
		return nil, NewConfigurationError(name, "condition builder arity must be at least 1, got %d", cfg.Conditions.Arity)
	}
	entry := cfg.Entry
	if entry == nil {
		entry = func(row Record) Record { return row }
	}
	reg := cfg.Registry
	if reg == nil {
		reg = DefaultRegistry
	}

	return &Index{
		name:       name,
		table:      cfg.Table,
		orderBy:    orderBy,
		conds:      cfg.Conditions,
		entry:      entry,
		reg:        reg,
		strategies: make(map[Kind]*Strategy),
	}, nil
}

// MustIndex is NewIndex for package-level definitions; it panics on error.
func MustIndex(name string, cfg IndexConfig) *Index {
	idx, err := NewIndex(name, cfg)
	if err != nil {
		panic(err)
	}
	return idx
}

// Name returns the index name.
func (i *Index) Name() string { return i.name }

// Table returns the storage target.
func (i *Index) Table() string { return i.table }

// OrderBy returns the ordering field.
func (i *Index) OrderBy() string { return i.orderBy }

// Arity returns the number of scope arguments the index expects.
func (i *Index) Arity() int { return i.conds.Arity }

// WithStrategy returns the strategy binding this index to the adapter
// registered for kind. Repeated calls return the same *Strategy.
func (i *Index) WithStrategy(kind Kind) (*Strategy, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if s, ok := i.strategies[kind]; ok {
		return s, nil
	}
	adapter, ok := i.reg.Lookup(kind)
	if !ok {
		return nil, NewUnknownStrategyError(i.name, kind)
	}
	s := &Strategy{
		index:      i,
		adapter:    adapter,
		bookmarker: adapter.Bookmarker(),
	}
	i.strategies[kind] = s
	return s, nil
}

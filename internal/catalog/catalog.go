// Package catalog builds named indexes from declarative stream files.
//
// A catalog is loaded once at startup (YAML or CUE), validated, turned into
// eventstream indexes bound to one registry, and sealed.
package catalog

import (
	"sync"

	"github.com/roach88/eventstream/internal/eventstream"
)

// Stream is a built stream: its table and its named indexes.
type Stream struct {
	name    string
	table   string
	specs   []IndexSpec
	indexes map[string]*eventstream.Index
}

// Name returns the stream name.
func (s *Stream) Name() string { return s.name }

// Table returns the stream's event table.
func (s *Stream) Table() string { return s.table }

// Index returns the named index.
func (s *Stream) Index(name string) (*eventstream.Index, bool) {
	idx, ok := s.indexes[name]
	return idx, ok
}

// Specs returns the index declarations in file order.
func (s *Stream) Specs() []IndexSpec {
	return append([]IndexSpec(nil), s.specs...)
}

// Partitions returns the key fields of every index, in file order. Column
// stores write each record once per partition.
func (s *Stream) Partitions() [][]string {
	out := make([][]string, len(s.specs))
	for i, spec := range s.specs {
		out[i] = append([]string(nil), spec.Keys...)
	}
	return out
}

// Catalog holds the streams of one deployment.
//
// Thread-safety: safe for concurrent use; Add fails once sealed.
type Catalog struct {
	mu      sync.RWMutex
	reg     *eventstream.Registry
	streams map[string]*Stream
	order   []string
	sealed  bool
}

// New creates an empty catalog whose indexes resolve strategies through reg.
// A nil reg means eventstream.DefaultRegistry.
func New(reg *eventstream.Registry) *Catalog {
	return &Catalog{reg: reg, streams: make(map[string]*Stream)}
}

// Build validates every stream of f and returns a sealed catalog.
func Build(f File, reg *eventstream.Registry) (*Catalog, error) {
	c := New(reg)
	for _, spec := range f.Streams {
		if err := c.Add(spec); err != nil {
			return nil, err
		}
	}
	c.Seal()
	return c, nil
}

// Add validates spec and builds its indexes.
func (c *Catalog) Add(spec StreamSpec) error {
	if err := Validate(spec); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return eventstream.NewInvariantViolation("catalog sealed: cannot add stream %s", spec.Name)
	}
	if _, exists := c.streams[spec.Name]; exists {
		return eventstream.NewConfigurationError("", "duplicate stream name %s", spec.Name)
	}

	stream := &Stream{
		name:    spec.Name,
		table:   spec.Table,
		specs:   append([]IndexSpec(nil), spec.Indexes...),
		indexes: make(map[string]*eventstream.Index, len(spec.Indexes)),
	}
	for _, is := range spec.Indexes {
		idx, err := eventstream.NewIndex(qualifiedName(spec.Name, is.Name), eventstream.IndexConfig{
			Table:      spec.Table,
			OrderBy:    is.OrderBy,
			Conditions: eventstream.FieldConditions(is.Keys...),
			Registry:   c.reg,
		})
		if err != nil {
			return err
		}
		stream.indexes[is.Name] = idx
	}

	c.streams[spec.Name] = stream
	c.order = append(c.order, spec.Name)
	return nil
}

// Seal forbids further Add calls.
func (c *Catalog) Seal() {
	c.mu.Lock()
	c.sealed = true
	c.mu.Unlock()
}

// Sealed reports whether the catalog is sealed.
func (c *Catalog) Sealed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sealed
}

// Stream returns the named stream.
func (c *Catalog) Stream(name string) (*Stream, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.streams[name]
	return s, ok
}

// Streams returns all streams in declaration order.
func (c *Catalog) Streams() []*Stream {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Stream, len(c.order))
	for i, name := range c.order {
		out[i] = c.streams[name]
	}
	return out
}

// Lookup resolves stream and index names to an index. Unknown names are
// argument errors: they come from the caller, not the catalog file.
func (c *Catalog) Lookup(stream, index string) (*eventstream.Index, error) {
	s, ok := c.Stream(stream)
	if !ok {
		return nil, eventstream.NewArgumentError("unknown stream %q", stream)
	}
	idx, ok := s.Index(index)
	if !ok {
		return nil, eventstream.NewArgumentError("stream %s has no index %q", stream, index)
	}
	return idx, nil
}

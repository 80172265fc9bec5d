package catalog

// File is the declarative form of a catalog, as read from YAML or CUE.
type File struct {
	Streams []StreamSpec `yaml:"streams" json:"streams"`
}

// StreamSpec declares one event stream: a table and the indexes over it.
type StreamSpec struct {
	// Name identifies the stream on the command line.
	Name string `yaml:"name" json:"name"`

	// Table is the event table every index of the stream reads.
	Table string `yaml:"table" json:"table"`

	// Indexes lists the secondary indexes of the stream.
	Indexes []IndexSpec `yaml:"indexes" json:"indexes"`
}

// IndexSpec declares one index. Keys[i] is the field matched against the
// i-th scope argument, so the index arity is len(Keys).
type IndexSpec struct {
	Name    string   `yaml:"name" json:"name"`
	Keys    []string `yaml:"keys" json:"keys"`
	OrderBy string   `yaml:"order_by,omitempty" json:"order_by,omitempty"`
}

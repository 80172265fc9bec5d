package catalog

import (
	"github.com/roach88/eventstream/internal/eventstream"
)

// Validate checks a stream declaration without building it.
// Every problem is a ConfigurationError naming the offending index.
func Validate(spec StreamSpec) error {
	if spec.Name == "" {
		return eventstream.NewConfigurationError("", "stream name is required")
	}
	if spec.Table == "" {
		return eventstream.NewConfigurationError("", "stream %s: table is required", spec.Name)
	}
	if !eventstream.ValidIdentifier(spec.Table) {
		return eventstream.NewConfigurationError("", "stream %s: invalid table name %q", spec.Name, spec.Table)
	}
	if len(spec.Indexes) == 0 {
		return eventstream.NewConfigurationError("", "stream %s: at least one index is required", spec.Name)
	}

	seen := make(map[string]bool, len(spec.Indexes))
	for i, idx := range spec.Indexes {
		if idx.Name == "" {
			return eventstream.NewConfigurationError("", "stream %s: index %d has no name", spec.Name, i)
		}
		name := qualifiedName(spec.Name, idx.Name)
		if seen[idx.Name] {
			return eventstream.NewConfigurationError(name, "duplicate index name")
		}
		seen[idx.Name] = true

		if len(idx.Keys) == 0 {
			return eventstream.NewConfigurationError(name, "at least one key is required")
		}
		keys := make(map[string]bool, len(idx.Keys))
		for _, k := range idx.Keys {
			if !eventstream.ValidIdentifier(k) {
				return eventstream.NewConfigurationError(name, "invalid key field %q", k)
			}
			if keys[k] {
				return eventstream.NewConfigurationError(name, "duplicate key field %q", k)
			}
			keys[k] = true
		}
		if idx.OrderBy != "" && !eventstream.ValidIdentifier(idx.OrderBy) {
			return eventstream.NewConfigurationError(name, "invalid order field %q", idx.OrderBy)
		}
	}
	return nil
}

func qualifiedName(stream, index string) string {
	return stream + "." + index
}

package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"

	"github.com/roach88/eventstream/internal/eventstream"
)

// Load reads a catalog file and builds a sealed catalog bound to reg.
// .yaml and .yml files are read as YAML; .cue files and directories as CUE.
func Load(path string, reg *eventstream.Registry) (*Catalog, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(f, reg)
}

// ReadFile reads a catalog file without validating it.
func ReadFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, eventstream.NewConfigurationError("", "catalog %s: %v", path, err)
	}
	if info.IsDir() {
		return LoadCUE(path)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return File{}, eventstream.NewConfigurationError("", "read catalog %s: %v", path, err)
		}
		return ParseYAML(data)
	case ".cue":
		return LoadCUE(path)
	default:
		return File{}, eventstream.NewConfigurationError("", "catalog %s: unsupported extension %q", path, filepath.Ext(path))
	}
}

// ParseYAML parses a YAML catalog. Unknown fields are rejected so typos
// like "order-by" fail instead of silently defaulting.
func ParseYAML(data []byte) (File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return File{}, eventstream.NewConfigurationError("", "parse YAML catalog: %v", err)
	}
	return f, nil
}

// LoadCUE evaluates a CUE catalog file, or the package in a directory, and
// decodes its top-level streams field.
func LoadCUE(path string) (File, error) {
	dir, args := path, []string{"."}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir, args = filepath.Dir(path), []string{filepath.Base(path)}
	}

	ctx := cuecontext.New()
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return File{}, eventstream.NewConfigurationError("", "no CUE instances loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return File{}, eventstream.NewConfigurationError("", "loading CUE catalog: %v", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return File{}, eventstream.NewConfigurationError("", "building CUE catalog: %v", err)
	}

	streams := value.LookupPath(cue.ParsePath("streams"))
	if !streams.Exists() {
		return File{}, eventstream.NewConfigurationError("", "%s: CUE catalog has no streams field", path)
	}

	var f File
	if err := streams.Decode(&f.Streams); err != nil {
		return File{}, eventstream.NewConfigurationError("", "%s: decode streams: %v", positionOf(err, streams), err)
	}
	return f, nil
}

// positionOf returns "file:line:col" for the first CUE error position, or
// the position of fallback.
func positionOf(err error, fallback cue.Value) string {
	pos := fallback.Pos()
	for _, e := range cueerrors.Errors(err) {
		if p := e.Position(); p.IsValid() {
			pos = p
			break
		}
	}
	if !pos.IsValid() {
		return "catalog"
	}
	return fmt.Sprintf("%s:%d:%d", pos.Filename(), pos.Line(), pos.Column())
}

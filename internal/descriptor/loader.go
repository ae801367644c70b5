package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// DefaultEnvVar is the environment variable the default loader reads the
// descriptor document from. It holds a single JSON descriptor object or a
// JSON array of them.
const DefaultEnvVar = "SECRETFILL_DEPLOY"

// Loader discovers and parses deployment descriptors from a source.
type Loader interface {
	Load() ([]Descriptor, error)
}

const (
	// LoaderEnv reads descriptors from an environment variable.
	LoaderEnv = "env"
	// LoaderFile reads descriptors from a JSON or YAML file.
	LoaderFile = "file"
)

// Closed registry of loader variants.
var loaders = map[string]func(source string) Loader{
	LoaderEnv:  func(source string) Loader { return &EnvLoader{Var: source} },
	LoaderFile: func(source string) Loader { return &FileLoader{Path: source} },
}

// NewLoader constructs the loader registered for a kind. The source is the
// environment variable name for the env loader and the file path for the file
// loader.
func NewLoader(kind, source string) (Loader, error) {
	factory, ok := loaders[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported descriptor loader %q", kind)
	}
	return factory(source), nil
}

// EnvLoader is the default loader. It parses the JSON document held by a
// single environment variable.
type EnvLoader struct {
	Var string
}

// Load reads and validates the descriptors from the environment variable.
func (l *EnvLoader) Load() ([]Descriptor, error) {
	name := l.Var
	if name == "" {
		name = DefaultEnvVar
	}

	raw, ok := os.LookupEnv(name)
	if !ok {
		return nil, &DescriptorError{
			Source: "$" + name,
			Err:    fmt.Errorf("environment variable is not set"),
		}
	}

	ds, err := parseJSON([]byte(raw))
	if err != nil {
		return nil, &DescriptorError{Source: "$" + name, Err: err}
	}

	return finish(ds)
}

// FileLoader reads descriptors from a file. The format follows the file
// extension: .yaml/.yml files must hold a list of descriptors, anything else
// is parsed as a JSON document or array.
type FileLoader struct {
	Path string
}

// Load reads and validates the descriptors from the file.
func (l *FileLoader) Load() ([]Descriptor, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, &DescriptorError{Source: l.Path, Err: err}
	}

	var ds []Descriptor
	switch filepath.Ext(l.Path) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, &ds, yaml.Strict()); err != nil {
			return nil, &DescriptorError{Source: l.Path, Err: err}
		}
	default:
		ds, err = parseJSON(data)
		if err != nil {
			return nil, &DescriptorError{Source: l.Path, Err: err}
		}
	}

	return finish(ds)
}

// parseJSON decodes a single descriptor object or an array of them. Unknown
// fields are rejected.
func parseJSON(data []byte) ([]Descriptor, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var ds []Descriptor
		if err := dec.Decode(&ds); err != nil {
			return nil, err
		}
		return ds, nil
	}

	var d Descriptor
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	return []Descriptor{d}, nil
}

// finish applies defaults and validates every loaded descriptor.
func finish(ds []Descriptor) ([]Descriptor, error) {
	for i := range ds {
		ds[i].applyDefaults()
		if err := ds[i].Validate(); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

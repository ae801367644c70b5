// Package descriptor defines the deployment descriptor, its validation rules,
// and the loaders that discover descriptors at startup.
//
// A deployment descriptor names one configuration file and how to populate it:
// which variables to templatize, which provider keys to resolve them from, and
// whether the derived template is persisted next to the configuration.
package descriptor

import (
	"path/filepath"

	"github.com/secretfill-dev/secretfill/internal/conf"
	"github.com/secretfill-dev/secretfill/internal/provider"
)

// Descriptor describes the deployment of secrets and values into a single
// configuration file. The serialized field names are the external contract;
// unknown fields are rejected during loading to catch typos early.
type Descriptor struct {
	// Config is the absolute path of the configuration file to deploy into.
	Config string `json:"config" yaml:"config"`

	// Type selects the configuration handler. Defaults to "ini".
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Provider selects the secret provider. Defaults to "env".
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Templatize controls whether a template is derived from the current
	// configuration. When false, a previously persisted template is used
	// verbatim and Assign must be empty. Defaults to true.
	Templatize *bool `json:"templatize,omitempty" yaml:"templatize,omitempty"`

	// Assign maps configuration variable names to provider keys.
	Assign map[string]string `json:"assign,omitempty" yaml:"assign,omitempty"`

	// Persist writes the derived template back to disk as a secret-free
	// artifact suitable for change tracking.
	Persist bool `json:"persist,omitempty" yaml:"persist,omitempty"`

	// Tags are free-form labels usable in filter expressions.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Options specific to the ini configuration type.
	AssignmentOp         string `json:"assignment_op,omitempty" yaml:"assignment_op,omitempty"`
	AssignmentShellStyle bool   `json:"assignment_shell_style,omitempty" yaml:"assignment_shell_style,omitempty"`
	AllowMultiOccurrence bool   `json:"allow_multi_occurrence,omitempty" yaml:"allow_multi_occurrence,omitempty"`
}

// TemplatizeEnabled reports whether a template is derived from the current
// configuration (the default) rather than read from disk.
func (d Descriptor) TemplatizeEnabled() bool {
	return d.Templatize == nil || *d.Templatize
}

// Name is the short identifier used in logs and filter expressions.
func (d Descriptor) Name() string {
	return filepath.Base(d.Config)
}

// HandlerOptions maps the ini-specific descriptor fields onto codec options.
func (d Descriptor) HandlerOptions() conf.Options {
	return conf.Options{
		AssignmentOp:         d.AssignmentOp,
		ShellStyle:           d.AssignmentShellStyle,
		AllowMultiOccurrence: d.AllowMultiOccurrence,
	}
}

// applyDefaults fills the documented defaults after decoding.
func (d *Descriptor) applyDefaults() {
	if d.Type == "" {
		d.Type = conf.TypeIni
	}
	if d.Provider == "" {
		d.Provider = provider.NameEnv
	}
	if d.AssignmentOp == "" {
		d.AssignmentOp = "="
	}
}

// Validate enforces the descriptor invariants. It runs before any file I/O.
func (d Descriptor) Validate() error {
	if d.Config == "" {
		return &ValidationError{Field: "config", Reason: "is required"}
	}
	if !filepath.IsAbs(d.Config) {
		return &ValidationError{Field: "config", Reason: "must be an absolute path"}
	}
	if !d.TemplatizeEnabled() && len(d.Assign) > 0 {
		return &ValidationError{Field: "assign", Reason: "must be empty when templatize is false"}
	}
	for name, key := range d.Assign {
		if key == "" {
			return &ValidationError{Field: "assign", Reason: "provider key for variable " + name + " is empty"}
		}
	}
	if d.AssignmentOp != "=" && d.AssignmentOp != ":" {
		return &ValidationError{Field: "assignment_op", Reason: "must be \"=\" or \":\""}
	}
	return nil
}

// Package conf contains the format-preserving configuration codecs. A codec
// parses a raw configuration file into an ordered line model, renders the model
// back to text, and can swap chosen values for placeholder tokens so the same
// file doubles as a template.
package conf

import "regexp"

// EntryKind tags a model entry as structural or as a variable assignment.
type EntryKind int

const (
	// KindStructural covers comments, blank lines, section markers and
	// anything else that is carried through parse and render untouched.
	KindStructural EntryKind = iota
	// KindAssignment is a `variable <op> value` line.
	KindAssignment
)

// Entry is a single line of a configuration file. Structural entries render
// from Raw verbatim. Assignment entries keep the original text up to the value
// in prefix so an untouched line renders byte-identical to its input.
type Entry struct {
	Kind  EntryKind
	Raw   string
	Name  string
	Value string

	prefix string
}

// Model is the ordered, format-preserving representation of one configuration
// file. Models are transient; they are rebuilt from disk on every run and
// never cached.
type Model struct {
	entries []Entry
	index   map[string][]int
}

// Entries returns the entries in file order.
func (m *Model) Entries() []Entry {
	return m.entries
}

// Lookup returns the indexes of all assignment entries for a variable name.
func (m *Model) Lookup(name string) []int {
	return m.index[name]
}

func (m *Model) clone() *Model {
	entries := make([]Entry, len(m.entries))
	copy(entries, m.entries)
	return &Model{entries: entries, index: m.index}
}

// placeholderRe matches the template token syntax `{{.KEY}}`, where KEY is the
// provider key to resolve at instantiation time.
var placeholderRe = regexp.MustCompile(`\{\{\.([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// Placeholder returns the template token for a provider key.
func Placeholder(key string) string {
	return "{{." + key + "}}"
}

package conf

import "fmt"

// Handler is a type-specific configuration codec. Implementations must
// guarantee that Render(Parse(text)) == text for any entry that was not
// rewritten in between.
type Handler interface {
	// Parse builds a format-preserving model from raw configuration text.
	Parse(raw string) (*Model, error)

	// Render is the inverse of Parse.
	Render(m *Model) string

	// Templatize replaces the value of every variable named in assign with
	// the placeholder token for its provider key. All other entries pass
	// through unchanged.
	Templatize(m *Model, assign map[string]string) (*Model, error)

	// Instantiate replaces every placeholder token with the resolved value
	// for its provider key.
	Instantiate(m *Model, resolved map[string]string) (*Model, error)

	// Keys lists the distinct provider keys referenced by placeholders, in
	// order of first occurrence.
	Keys(m *Model) []string
}

// Options carries the descriptor-level tuning for a handler. Only the ini
// variant reads these today, but the set is shared so registries stay simple.
type Options struct {
	AssignmentOp         string
	ShellStyle           bool
	AllowMultiOccurrence bool
}

type handlerFactory func(opts Options) Handler

// Closed registry of configuration types. Selection happens through the
// descriptor's `type` field, never by sniffing file extensions.
var handlers = map[string]handlerFactory{
	TypeIni: func(opts Options) Handler { return NewIniHandler(opts) },
}

// TypeIni is the default, line-oriented `key <op> value` configuration type.
const TypeIni = "ini"

// New constructs the handler registered for a configuration type tag.
func New(typeTag string, opts Options) (Handler, error) {
	factory, ok := handlers[typeTag]
	if !ok {
		return nil, fmt.Errorf("unsupported configuration type %q", typeTag)
	}
	return factory(opts), nil
}

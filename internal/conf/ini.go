package conf

import (
	"regexp"
	"strings"
)

// IniHandler implements the line-oriented `key <op> value` configuration
// syntax. The handler is stateless; the configuration itself only ever lives
// on disk or in a Model passed through it.
type IniHandler struct {
	opts   Options
	lineRe *regexp.Regexp
}

// NewIniHandler builds a handler for the given options. An empty assignment
// operator defaults to "=".
func NewIniHandler(opts Options) *IniHandler {
	if opts.AssignmentOp == "" {
		opts.AssignmentOp = "="
	}

	// Capture groups: leading whitespace, name, whitespace, operator,
	// whitespace, value. Everything before the value is kept verbatim as the
	// entry prefix so rendering an untouched line reproduces it exactly.
	re := regexp.MustCompile(`^(\s*)([A-Za-z_][A-Za-z0-9_.-]*)(\s*)(` +
		regexp.QuoteMeta(opts.AssignmentOp) + `)(\s*)(.*)$`)

	return &IniHandler{opts: opts, lineRe: re}
}

// Parse splits raw text into lines and classifies each as structural or as an
// assignment. Duplicate variable names fail unless multiple occurrences were
// allowed for this configuration.
func (h *IniHandler) Parse(raw string) (*Model, error) {
	lines := strings.Split(raw, "\n")

	m := &Model{
		entries: make([]Entry, 0, len(lines)),
		index:   make(map[string][]int),
	}

	for i, line := range lines {
		groups := h.lineRe.FindStringSubmatch(line)
		if groups == nil {
			m.entries = append(m.entries, Entry{Kind: KindStructural, Raw: line})
			continue
		}

		name := groups[2]
		value := groups[6]
		if h.opts.ShellStyle {
			value = shellUnquote(value)
		}

		if len(m.index[name]) > 0 && !h.opts.AllowMultiOccurrence {
			return nil, &DuplicateVariableError{Name: name}
		}

		m.entries = append(m.entries, Entry{
			Kind:   KindAssignment,
			Raw:    line,
			Name:   name,
			Value:  value,
			prefix: line[:len(line)-len(value)],
		})
		m.index[name] = append(m.index[name], i)
	}

	return m, nil
}

// Render joins the model back into text. Because Parse splits on "\n", a file
// without a trailing newline round-trips without one.
func (h *IniHandler) Render(m *Model) string {
	var sb strings.Builder

	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(h.renderEntry(e))
	}

	return sb.String()
}

func (h *IniHandler) renderEntry(e Entry) string {
	if e.Kind == KindStructural {
		return e.Raw
	}

	if h.opts.ShellStyle {
		return e.Name + h.opts.AssignmentOp + shellQuote(e.Value)
	}

	return e.prefix + e.Value
}

// shellQuote wraps values containing whitespace in double quotes, escaping
// embedded quotes, so the rendered line stays a single shell-sourceable
// assignment.
func shellQuote(value string) string {
	if !strings.ContainsAny(value, " \t\"") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}

// shellUnquote reverses shellQuote during parsing so a shell-style file
// renders the same bytes on every cycle instead of gaining a quote layer.
func shellUnquote(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return strings.ReplaceAll(value[1:len(value)-1], `\"`, `"`)
	}
	return value
}

// Templatize swaps the value of each assigned variable for the placeholder of
// its provider key. The target must exist exactly once: a missing variable or
// one with multiple occurrences is rejected.
func (h *IniHandler) Templatize(m *Model, assign map[string]string) (*Model, error) {
	tmpl := m.clone()

	for name, key := range assign {
		idxs := m.Lookup(name)
		switch {
		case len(idxs) == 0:
			return nil, &UnknownVariableError{Name: name}
		case len(idxs) > 1:
			return nil, &UnknownVariableError{Name: name, Ambiguous: true}
		}

		tmpl.entries[idxs[0]].Value = Placeholder(key)
	}

	return tmpl, nil
}

// Instantiate replaces every placeholder token with its resolved value. Every
// referenced key must have been resolved; there is no defaulting, a blank or
// missing secret is never silently written.
func (h *IniHandler) Instantiate(m *Model, resolved map[string]string) (*Model, error) {
	for _, key := range h.Keys(m) {
		if _, ok := resolved[key]; !ok {
			return nil, &UnresolvedPlaceholderError{Key: key}
		}
	}

	substitute := func(s string) string {
		return placeholderRe.ReplaceAllStringFunc(s, func(token string) string {
			key := placeholderRe.FindStringSubmatch(token)[1]
			return resolved[key]
		})
	}

	out := m.clone()
	for i, e := range out.entries {
		if e.Kind == KindStructural {
			out.entries[i].Raw = substitute(e.Raw)
			continue
		}
		out.entries[i].Value = substitute(e.Value)
	}

	return out, nil
}

// Keys lists the distinct provider keys referenced anywhere in the model, in
// order of first occurrence. Placeholders may appear in structural lines of a
// hand-written template, so those are scanned too.
func (h *IniHandler) Keys(m *Model) []string {
	var keys []string
	seen := make(map[string]bool)

	for _, e := range m.entries {
		text := e.Value
		if e.Kind == KindStructural {
			text = e.Raw
		}

		for _, groups := range placeholderRe.FindAllStringSubmatch(text, -1) {
			if !seen[groups[1]] {
				seen[groups[1]] = true
				keys = append(keys, groups[1])
			}
		}
	}

	return keys
}

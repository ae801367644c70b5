package conf

import "fmt"

// DuplicateVariableError is returned when a variable occurs more than once in
// a configuration and multiple occurrences have not been allowed.
type DuplicateVariableError struct {
	Name string
}

func (e *DuplicateVariableError) Error() string {
	return fmt.Sprintf("variable %q occurs multiple times in configuration", e.Name)
}

// UnknownVariableError is returned when an assignment references a variable
// that is missing from the configuration, or that occurs more than once and is
// therefore an ambiguous target.
type UnknownVariableError struct {
	Name      string
	Ambiguous bool
}

func (e *UnknownVariableError) Error() string {
	if e.Ambiguous {
		return fmt.Sprintf("variable %q occurs multiple times and is an ambiguous assignment target", e.Name)
	}
	return fmt.Sprintf("variable %q not found in configuration", e.Name)
}

// UnresolvedPlaceholderError is returned when a template references a provider
// key that no resolved value was supplied for.
type UnresolvedPlaceholderError struct {
	Key string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("template placeholder %s has no resolved value", Placeholder(e.Key))
}

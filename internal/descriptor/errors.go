package descriptor

import "fmt"

// DescriptorError reports a descriptor source that could not be read or whose
// syntax could not be parsed.
type DescriptorError struct {
	Source string
	Err    error
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("failed to load deployment descriptors from %s: %v", e.Source, e.Err)
}

func (e *DescriptorError) Unwrap() error {
	return e.Err
}

// ValidationError reports a well-formed descriptor that violates a schema
// invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid deployment descriptor: %s %s", e.Field, e.Reason)
}

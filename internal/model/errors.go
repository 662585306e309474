package model

import "fmt"

// InputError signals malformed or missing required data at a component
// boundary: a non-numeric value for a numeric attribute, a non-positive
// population size. It aborts only the offending record or operation, never
// the surrounding batch.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input for %s: %s", e.Field, e.Reason)
}

// NewInputError creates an InputError for the named field.
func NewInputError(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

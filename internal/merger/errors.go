package merger

import (
	"errors"
	"fmt"
)

var (
	// ErrRunNotFound means the container of a run does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrUnrecognizedFormat means neither layout marker is present.
	ErrUnrecognizedFormat = errors.New("unrecognized merger format")

	// ErrMissingField means a table, row or column required by the layout
	// is absent.
	ErrMissingField = errors.New("missing field")
)

// FieldError reports a required field missing from a container.
type FieldError struct {
	Variant Variant
	Field   string
	Err     error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s container: missing field %s: %v", e.Variant, e.Field, e.Err)
	}
	return fmt.Sprintf("%s container: missing field %s", e.Variant, e.Field)
}

// Unwrap exposes both ErrMissingField and the cause.
func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingField}
	}
	return []error{ErrMissingField, e.Err}
}

func missingField(v Variant, field string, err error) *FieldError {
	return &FieldError{Variant: v, Field: field, Err: err}
}

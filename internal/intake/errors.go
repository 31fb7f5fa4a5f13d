package intake

import (
	"errors"
	"fmt"

	"fridge/internal/forms"
)

// ErrAlreadyApplied is returned when a volunteer application already exists
// for the user. The first record stays untouched.
var ErrAlreadyApplied = errors.New("volunteer application already exists")

// ValidationError carries the field-keyed messages for a rejected form.
type ValidationError struct {
	Fields forms.Errors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("submission failed validation on %d field(s)", len(e.Fields))
}

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

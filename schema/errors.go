package schema

import (
	"errors"
	"fmt"
)

// ErrDuplicateField is returned when two contributions declare the same
// field for one table.
var ErrDuplicateField = errors.New("schema: duplicate field")

// DuplicateFieldError reports a field declared twice for one table.
type DuplicateFieldError struct {
	Table string
	Field string
}

// Error implements the error interface.
func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("schema: table %q declares field %q more than once (use alters to override a field)", e.Table, e.Field)
}

// Is reports whether the target matches ErrDuplicateField.
func (e *DuplicateFieldError) Is(target error) bool {
	return target == ErrDuplicateField
}

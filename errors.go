// Package tablegen holds the runtime errors returned by generated
// data-access code.
package tablegen

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("tablegen: record not found")
	// ErrNotSingular matches every *NotSingularError.
	ErrNotSingular = errors.New("tablegen: record not singular")
)

// NotFoundError reports a lookup, update or delete that matched no row.
type NotFoundError struct {
	// Table is the queried table.
	Table string
	// ID is the requested id, nil for queries not keyed by id.
	ID any
}

// NewNotFoundError returns a NotFoundError for table.
func NewNotFoundError(table string) *NotFoundError {
	return &NotFoundError{Table: table}
}

// NewNotFoundErrorWithID returns a NotFoundError for the row of table
// with the given id.
func NewNotFoundErrorWithID(table string, id any) *NotFoundError {
	return &NotFoundError{Table: table, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("tablegen: %s not found (id=%v)", e.Table, e.ID)
	}
	return "tablegen: " + e.Table + " not found"
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IsNotFound reports if err is or wraps a *NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// NotSingularError reports a single-row query that matched more than one
// row.
type NotSingularError struct {
	Table string
	// Count is the number of rows fetched before giving up.
	Count int
}

// NewNotSingularErrorWithCount returns a NotSingularError for table.
func NewNotSingularErrorWithCount(table string, count int) *NotSingularError {
	return &NotSingularError{Table: table, Count: count}
}

func (e *NotSingularError) Error() string {
	return fmt.Sprintf("tablegen: %s not singular (got %d rows)", e.Table, e.Count)
}

func (e *NotSingularError) Is(target error) bool { return target == ErrNotSingular }

// IsNotSingular reports if err is or wraps a *NotSingularError.
func IsNotSingular(err error) bool { return errors.Is(err, ErrNotSingular) }

// ConstraintError reports a constraint violation raised by an insert,
// update or delete. It wraps the driver error.
type ConstraintError struct {
	msg  string
	wrap error
}

// NewConstraintError returns a ConstraintError wrapping the driver error.
func NewConstraintError(msg string, wrap error) error {
	return &ConstraintError{msg: msg, wrap: wrap}
}

func (e *ConstraintError) Error() string { return "tablegen: constraint failed: " + e.msg }

func (e *ConstraintError) Unwrap() error { return e.wrap }

// IsConstraintError reports if err is or wraps a *ConstraintError.
func IsConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e)
}

package sql

import (
	"errors"
	"fmt"
)

var (
	// ErrReleased is recorded when a builder is used after Release.
	ErrReleased = errors.New("sql: builder used after release")
	// ErrExecuted is recorded when an executed builder is modified or
	// executed again without a Reset.
	ErrExecuted = errors.New("sql: builder already executed (call Reset to reuse it)")
)

// QueryError wraps an executor failure with the statement that was
// attempted. The executor error is kept verbatim.
type QueryError struct {
	SQL    string
	Params int
	Err    error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("sql: query failed: %v (sql: %q, params: %d)", e.Err, e.SQL, e.Params)
}

// Unwrap returns the executor error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

func queryError(query string, args []any, err error) error {
	return &QueryError{SQL: query, Params: len(args), Err: err}
}

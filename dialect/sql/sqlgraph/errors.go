package sqlgraph

import (
	"errors"
	"slices"
	"strings"

	"github.com/syssam/tablegen"
)

// constraint is the kind of a constraint violation.
type constraint uint8

const (
	noConstraint constraint = iota
	uniqueConstraint
	foreignKeyConstraint
	checkConstraint
)

// violation describes how each driver reports one constraint kind.
type violation struct {
	kind     constraint
	sqlState string   // Postgres class 23
	mysql    []uint16 // MySQL error numbers
	messages []string // text fallback, SQLite reports nothing else
}

var violations = []violation{
	{
		kind:     uniqueConstraint,
		sqlState: "23505",
		mysql:    []uint16{1062},
		messages: []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed"},
	},
	{
		kind:     foreignKeyConstraint,
		sqlState: "23503",
		mysql:    []uint16{1451, 1452},
		messages: []string{"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"},
	},
	{
		kind:     checkConstraint,
		sqlState: "23514",
		mysql:    []uint16{3819},
		messages: []string{"Error 3819", "violates check constraint", "CHECK constraint failed"},
	},
}

// Driver errors are matched by behavior so the runtime does not import
// the drivers: pq and pgconn expose SQLState, pq also Code.
type (
	sqlStater interface{ SQLState() string }
	coder     interface{ Code() string }
	numberer  interface{ Number() uint16 }
)

// classify returns the constraint kind of err.
func classify(err error) constraint {
	if err == nil {
		return noConstraint
	}
	var (
		state string
		num   uint16
	)
	if e, ok := find[sqlStater](err); ok {
		state = e.SQLState()
	} else if e, ok := find[coder](err); ok {
		state = e.Code()
	}
	if e, ok := find[numberer](err); ok {
		num = e.Number()
	}
	for _, v := range violations {
		if state != "" && state == v.sqlState || num != 0 && slices.Contains(v.mysql, num) {
			return v.kind
		}
	}
	msg := err.Error()
	for _, v := range violations {
		for _, m := range v.messages {
			if strings.Contains(msg, m) {
				return v.kind
			}
		}
	}
	return noConstraint
}

// find returns the first error of the chain implementing T.
func find[T any](err error) (T, bool) {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(T); ok {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// IsConstraintError reports if err is a constraint violation of any kind,
// or already a *tablegen.ConstraintError.
func IsConstraintError(err error) bool {
	return tablegen.IsConstraintError(err) || classify(err) != noConstraint
}

// IsUniqueConstraintError reports if err violates a unique index.
func IsUniqueConstraintError(err error) bool {
	return classify(err) == uniqueConstraint
}

// IsForeignKeyConstraintError reports if err violates a foreign key, in
// either direction.
func IsForeignKeyConstraintError(err error) bool {
	return classify(err) == foreignKeyConstraint
}

// IsCheckConstraintError reports if err violates a check constraint.
func IsCheckConstraintError(err error) bool {
	return classify(err) == checkConstraint
}

// WrapConstraint returns err as a *tablegen.ConstraintError when it is a
// constraint violation, and unchanged otherwise.
func WrapConstraint(err error) error {
	if err == nil || tablegen.IsConstraintError(err) || !IsConstraintError(err) {
		return err
	}
	return tablegen.NewConstraintError(err.Error(), err)
}

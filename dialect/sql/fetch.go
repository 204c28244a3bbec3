package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/tablegen"
	"github.com/syssam/tablegen/dialect"
)

// ScanFunc decodes the current row of rows into a record. columns are the
// result columns, read once per query.
type ScanFunc[T any] func(rows dialect.Rows, columns []string) (T, error)

// Fetch executes the selector and decodes every row with scan. The
// selector moves to Executed; call Reset before reusing it. Executor and
// decode failures are returned as *QueryError.
func Fetch[T any](ctx context.Context, ex dialect.ExecQuerier, s *Selector, scan ScanFunc[T]) ([]T, error) {
	query, args, err := s.execute(ex.Dialect(), false)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, query, args)
	if err != nil {
		return nil, queryError(query, args, err)
	}
	out, err := scanAll(rows, scan)
	if err != nil {
		return nil, queryError(query, args, err)
	}
	return out, nil
}

func scanAll[T any](rows dialect.Rows, scan ScanFunc[T]) (out []T, err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		v, err := scan(rows, columns)
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out), err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchOne returns the first row of the selector. A LIMIT 1 is added
// unless the selector sets its own limit. It fails with a
// *tablegen.NotFoundError when no row matches.
func FetchOne[T any](ctx context.Context, ex dialect.ExecQuerier, s *Selector, scan ScanFunc[T]) (T, error) {
	var zero T
	if s.state != StateExecuted && s.state != StateReleased && s.limit < 0 {
		s.Limit(1)
	}
	out, err := Fetch(ctx, ex, s, scan)
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, tablegen.NewNotFoundError(s.table)
	}
	return out[0], nil
}

// FetchOnly returns the single row of the selector. It fails with a
// *tablegen.NotFoundError when no row matches and with a
// *tablegen.NotSingularError when more than one does.
func FetchOnly[T any](ctx context.Context, ex dialect.ExecQuerier, s *Selector, scan ScanFunc[T]) (T, error) {
	var zero T
	if s.state != StateExecuted && s.state != StateReleased {
		s.Limit(2)
	}
	out, err := Fetch(ctx, ex, s, scan)
	if err != nil {
		return zero, err
	}
	switch len(out) {
	case 1:
		return out[0], nil
	case 0:
		return zero, tablegen.NewNotFoundError(s.table)
	default:
		return zero, tablegen.NewNotSingularErrorWithCount(s.table, len(out))
	}
}

// Count executes the count query of the selector.
func Count(ctx context.Context, ex dialect.ExecQuerier, s *Selector) (int, error) {
	query, args, err := s.execute(ex.Dialect(), true)
	if err != nil {
		return 0, err
	}
	rows, err := ex.Query(ctx, query, args)
	if err != nil {
		return 0, queryError(query, args, err)
	}
	n, err := scanInt(rows)
	if err != nil {
		return 0, queryError(query, args, err)
	}
	return n, nil
}

func scanInt(rows dialect.Rows) (n int, err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("count query returned no row")
	}
	var v NullInt64
	if err := rows.Scan(&v); err != nil {
		return 0, err
	}
	return int(v.Int64), rows.Err()
}

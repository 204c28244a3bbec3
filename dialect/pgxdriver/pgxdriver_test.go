package pgxdriver

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tablegen/dialect"
)

type fakeRows struct {
	names  []string
	data   [][]any
	i      int
	closed bool
	err    error
}

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT 1") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.names))
	for i, n := range r.names {
		fds[i] = pgconn.FieldDescription{Name: n}
	}
	return fds
}
func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.data)
}
func (r *fakeRows) Scan(dest ...any) error {
	for i, d := range dest {
		*(d.(*any)) = r.data[r.i-1][i]
	}
	return nil
}
func (r *fakeRows) Values() ([]any, error) { return r.data[r.i-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

type fakeQuerier struct {
	rows  *fakeRows
	query string
	args  []any
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.query, f.args = sql, args
	return pgconn.NewCommandTag("UPDATE 3"), nil
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.query, f.args = sql, args
	if f.rows == nil {
		return nil, errors.New("no rows")
	}
	return f.rows, nil
}

func TestConn(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{names: []string{"id", "email"}, data: [][]any{{1, "a"}}}}
	c := conn{q: q}
	assert.Equal(t, dialect.Postgres, c.Dialect())

	n, err := c.Exec(context.Background(), "UPDATE users SET email = $1", []any{"x"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, []any{"x"}, q.args)

	rows, err := c.Query(context.Background(), "SELECT id, email FROM users", nil)
	require.NoError(t, err)
	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email"}, cols)
	require.True(t, rows.Next())
	var id, email any
	require.NoError(t, rows.Scan(&id, &email))
	assert.Equal(t, "a", email)
	assert.False(t, rows.Next())
	require.NoError(t, rows.Close())
	assert.True(t, q.rows.closed)

	q.rows = nil
	_, err = c.Query(context.Background(), "SELECT 1", nil)
	assert.ErrorContains(t, err, "pgxdriver: query")
}

func TestRowsCloseError(t *testing.T) {
	r := Rows{&fakeRows{err: errors.New("broken pipe")}}
	assert.EqualError(t, r.Close(), "broken pipe")
}

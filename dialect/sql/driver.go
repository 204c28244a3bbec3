package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/tablegen/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// escapeStringValue escapes a string value for safe use in SQL.
// It escapes both single quotes (by doubling) and backslashes (for MySQL compatibility).
func escapeStringValue(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// Driver is a pool-backed dialect.Executor on top of database/sql.
// It is safe for concurrent use; every Acquire checks out its own
// connection.
type Driver struct {
	Conn
}

// Open wraps the database/sql.Open method and returns a pool-backed Driver.
func Open(driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(dialect.Name(driverName), db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(name string, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{ExecQuerier: db, dialect: dialect.Name(name)}}
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Acquire checks out a dedicated connection from the pool. The caller
// must Release it.
func (d *Driver) Acquire(ctx context.Context) (dialect.Conn, error) {
	c, err := d.DB().Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: acquire: %w", err)
	}
	return &PooledConn{Conn: Conn{ExecQuerier: c, dialect: d.dialect}, conn: c}, nil
}

// BeginTx starts a transaction with options. The returned Tx is bound to
// a single connection.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{Conn: Conn{ExecQuerier: tx, dialect: d.dialect}, tx: tx}, nil
}

// Close closes the underlying pool.
func (d *Driver) Close() error { return d.DB().Close() }

// PooledConn is a connection checked out from a Driver pool.
type PooledConn struct {
	Conn
	conn *sql.Conn
}

// Release returns the connection to the pool.
func (c *PooledConn) Release() error { return c.conn.Close() }

// Tx is a dialect.Executor bound to one database transaction. It must not
// be shared across goroutines while the transaction is open.
type Tx struct {
	Conn
	tx *sql.Tx
}

// Acquire returns the transaction itself; all statements of a
// transaction run on its connection.
func (t *Tx) Acquire(context.Context) (dialect.Conn, error) { return t, nil }

// Release is a no-op. The connection is released by Commit or Rollback.
func (t *Tx) Release() error { return nil }

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// ctxVarsKey is the key used for attaching and reading the context variables.
type ctxVarsKey struct{}

// sessionVars holds sessions/transactions variables to set before every statement.
type sessionVars struct {
	vars []struct{ k, v string }
}

// WithVar returns a new context that holds the session variable to be executed before every query.
func WithVar(ctx context.Context, name, value string) context.Context {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	sv.vars = append(sv.vars, struct {
		k, v string
	}{
		k: name,
		v: value,
	})
	return context.WithValue(ctx, ctxVarsKey{}, sv)
}

// VarFromContext returns the session variable value from the context.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	for _, s := range sv.vars {
		if s.k == name {
			return s.v, true
		}
	}
	return "", false
}

// WithIntVar calls WithVar with the string representation of the value.
func WithIntVar(ctx context.Context, name string, value int) context.Context {
	return WithVar(ctx, name, strconv.Itoa(value))
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
}

// Dialect implements the dialect.ExecQuerier interface.
func (c Conn) Dialect() string { return c.dialect }

// Exec implements the dialect.ExecQuerier interface.
func (c Conn) Exec(ctx context.Context, query string, args []any) (n int64, rerr error) {
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: exec: set session vars: %w", err)
	}
	if cf != nil {
		defer func() { rerr = errors.Join(rerr, cf()) }()
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("dialect/sql: rows affected: %w", err)
	}
	return n, nil
}

// Query implements the dialect.ExecQuerier interface.
func (c Conn) Query(ctx context.Context, query string, args []any) (dialect.Rows, error) {
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: set session vars: %w", err)
	}
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		if cf != nil {
			err = errors.Join(err, cf())
		}
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	if cf != nil {
		return rowsWithCloser{rows, cf}, nil
	}
	return rows, nil
}

// maySetVars sets the session variables before executing a query.
func (c Conn) maySetVars(ctx context.Context) (ExecQuerier, func() error, error) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	if len(sv.vars) == 0 {
		return c, nil, nil
	}
	var (
		ex    ExecQuerier  // Underlying ExecQuerier.
		cf    func() error // Close function.
		reset []string     // Reset variables.
		seen  = make(map[string]struct{}, len(sv.vars))
	)
	switch e := c.ExecQuerier.(type) {
	case *sql.Tx:
		ex = e
	case *sql.Conn:
		// Pinned by the caller; reset the variables but keep it open.
		ex, cf = e, func() error { return nil }
	case *sql.DB:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, cf = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("unsupported ExecQuerier type: %T", c.ExecQuerier)
	}
	for _, s := range sv.vars {
		if !isValidIdentifier(s.k) {
			if cf != nil {
				_ = cf()
			}
			return nil, nil, fmt.Errorf("invalid session variable name: %q", s.k)
		}
		if _, ok := seen[s.k]; !ok {
			switch c.dialect {
			case dialect.Postgres:
				reset = append(reset, fmt.Sprintf("RESET %s", s.k))
			case dialect.MySQL:
				reset = append(reset, fmt.Sprintf("SET %s = NULL", s.k))
			}
			seen[s.k] = struct{}{}
		}
		if _, err := ex.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", s.k, escapeStringValue(s.v))); err != nil {
			if cf != nil {
				err = errors.Join(err, cf())
			}
			return nil, nil, err
		}
	}
	// Connections going back to the pool are cleaned with a fresh context,
	// so a canceled request context does not leak its variables.
	if cls := cf; cf != nil && len(reset) > 0 {
		cf = func() error {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for _, q := range reset {
				if _, err := ex.ExecContext(cleanupCtx, q); err != nil {
					return errors.Join(err, cls())
				}
			}
			return cls()
		}
	}
	return ex, cf, nil
}

var (
	_ dialect.Executor = (*Driver)(nil)
	_ dialect.Executor = (*Tx)(nil)
	_ dialect.Conn     = (*Tx)(nil)
	_ dialect.Conn     = (*PooledConn)(nil)
)

type (
	// NullBool is an alias to sql.NullBool.
	NullBool = sql.NullBool
	// NullInt16 is an alias to sql.NullInt16.
	NullInt16 = sql.NullInt16
	// NullInt32 is an alias to sql.NullInt32.
	NullInt32 = sql.NullInt32
	// NullInt64 is an alias to sql.NullInt64.
	NullInt64 = sql.NullInt64
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// NullFloat64 is an alias to sql.NullFloat64.
	NullFloat64 = sql.NullFloat64
	// NullTime represents a time.Time that may be null.
	NullTime = sql.NullTime
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// Null is an alias to sql.Null. Generated update inputs use it for
// nullable columns, where a supplied invalid value sets NULL.
type Null[T any] = sql.Null[T]

// NullValue returns the bind argument of a nullable value: nil when it
// is not valid, its value otherwise.
func NullValue[T any](n Null[T]) any {
	if !n.Valid {
		return nil
	}
	return n.V
}

// JSONArg returns the bind argument of a JSON column: nil for a nil
// document, its text otherwise.
func JSONArg(v []byte) any {
	if v == nil {
		return nil
	}
	return string(v)
}

// NullJSONArg returns the bind argument of a nullable JSON column.
func NullJSONArg[T ~[]byte](n Null[T]) any {
	if !n.Valid {
		return nil
	}
	return JSONArg([]byte(n.V))
}

// rowsWithCloser wraps the rows with a custom Close hook.
type rowsWithCloser struct {
	*sql.Rows
	closer func() error
}

// Close closes the underlying rows and calls the custom closer.
func (r rowsWithCloser) Close() error {
	err := r.Rows.Close()
	return errors.Join(err, r.closer())
}

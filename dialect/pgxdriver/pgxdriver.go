// Package pgxdriver runs generated queries on a pgx connection pool
// instead of database/sql.
package pgxdriver

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syssam/tablegen/dialect"
)

// querier is implemented by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// conn implements dialect.ExecQuerier on top of a querier.
type conn struct {
	q querier
}

// Dialect implements the dialect.ExecQuerier interface.
func (conn) Dialect() string { return dialect.Postgres }

// Exec implements the dialect.ExecQuerier interface.
func (c conn) Exec(ctx context.Context, query string, args []any) (int64, error) {
	tag, err := c.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("pgxdriver: exec: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Query implements the dialect.ExecQuerier interface.
func (c conn) Query(ctx context.Context, query string, args []any) (dialect.Rows, error) {
	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgxdriver: query: %w", err)
	}
	return Rows{rows}, nil
}

// Pool is a dialect.Executor backed by a pgxpool.Pool.
type Pool struct {
	conn
	pool *pgxpool.Pool
}

// Open creates a pool for the connection string and pings it.
func Open(ctx context.Context, dsn string) (*Pool, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxdriver: create pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("pgxdriver: ping: %w", err)
	}
	return NewPool(p), nil
}

// NewPool wraps an existing pool.
func NewPool(p *pgxpool.Pool) *Pool {
	return &Pool{conn: conn{q: p}, pool: p}
}

// Pool returns the underlying pool.
func (p *Pool) Pool() *pgxpool.Pool { return p.pool }

// Close closes the pool.
func (p *Pool) Close() { p.pool.Close() }

// Acquire checks out a connection. The caller must Release it.
func (p *Pool) Acquire(ctx context.Context) (dialect.Conn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("pgxdriver: acquire: %w", err)
	}
	return &Conn{conn: conn{q: c}, c: c}, nil
}

// BeginTx starts a transaction on a pooled connection.
func (p *Pool) BeginTx(ctx context.Context, opts pgx.TxOptions) (*Tx, error) {
	tx, err := p.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("pgxdriver: begin: %w", err)
	}
	return &Tx{conn: conn{q: tx}, tx: tx}, nil
}

// Conn is a connection checked out from a Pool.
type Conn struct {
	conn
	c *pgxpool.Conn
}

// Release returns the connection to the pool.
func (c *Conn) Release() error {
	c.c.Release()
	return nil
}

// Tx is an executor bound to one transaction.
type Tx struct {
	conn
	tx pgx.Tx
}

// Acquire returns the transaction itself.
func (t *Tx) Acquire(context.Context) (dialect.Conn, error) { return t, nil }

// Release is a no-op; Commit or Rollback ends the transaction.
func (t *Tx) Release() error { return nil }

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

// Rollback aborts the transaction.
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// Rows adapts pgx.Rows to dialect.Rows.
type Rows struct {
	pgx.Rows
}

// Columns returns the result column names.
func (r Rows) Columns() ([]string, error) {
	fds := r.FieldDescriptions()
	names := make([]string, len(fds))
	for i, fd := range fds {
		names[i] = fd.Name
	}
	return names, nil
}

// Close closes the rows and returns their error.
func (r Rows) Close() error {
	r.Rows.Close()
	return r.Rows.Err()
}

var (
	_ dialect.Executor = (*Pool)(nil)
	_ dialect.Executor = (*Tx)(nil)
	_ dialect.Conn     = (*Conn)(nil)
	_ dialect.Conn     = (*Tx)(nil)
	_ dialect.Rows     = Rows{}
)

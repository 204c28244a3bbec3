// Package dialect defines the executor capability the query builder
// runtime consumes, and the names of the supported SQL dialects.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database ($n placeholders)
//   - MySQL: MySQL/MariaDB database (? placeholders)
//   - SQLite: SQLite database (? placeholders)
//
// # Executors
//
// An Executor runs statements and queries. It is either backed by a
// connection pool, where every Acquire checks out an independent
// connection, or by a single connection bound to a transaction, where
// Acquire returns the executor itself and Release does nothing:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args []any) (int64, error)
//	    Query(ctx context.Context, query string, args []any) (Rows, error)
//	    Dialect() string
//	}
//
//	type Executor interface {
//	    ExecQuerier
//	    Acquire(ctx context.Context) (Conn, error)
//	}
//
// The dialect/sql package implements both variants on top of
// database/sql, and dialect/sql/pgxdriver on top of pgx.
package dialect

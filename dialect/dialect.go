package dialect

import (
	"context"
	"strings"
)

// Dialect names.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite3"
)

// Name normalizes a driver name to one of the dialect names. Unknown
// names are returned unchanged.
func Name(driver string) string {
	switch d := strings.ToLower(driver); {
	case strings.HasPrefix(d, "postgres"), d == "pgx", d == "pq":
		return Postgres
	case strings.HasPrefix(d, "mysql"):
		return MySQL
	case strings.HasPrefix(d, "sqlite"):
		return SQLite
	default:
		return driver
	}
}

type (
	// Rows is the row cursor returned by Query.
	Rows interface {
		Next() bool
		Scan(dest ...any) error
		Columns() ([]string, error)
		Close() error
		Err() error
	}

	// ExecQuerier runs statements and queries.
	ExecQuerier interface {
		// Exec runs a statement and returns the number of affected rows.
		Exec(ctx context.Context, query string, args []any) (int64, error)
		// Query runs a query and returns its row cursor.
		Query(ctx context.Context, query string, args []any) (Rows, error)
		// Dialect returns the dialect name of the executor.
		Dialect() string
	}

	// Executor is an ExecQuerier that can hand out dedicated connections.
	Executor interface {
		ExecQuerier
		// Acquire returns a connection for exclusive use until Release.
		Acquire(ctx context.Context) (Conn, error)
	}

	// Conn is an acquired connection.
	Conn interface {
		ExecQuerier
		// Release gives the connection back. It is a no-op for
		// transaction-bound executors.
		Release() error
	}
)

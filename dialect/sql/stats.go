package sql

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/syssam/tablegen/dialect"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing queries.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of queries exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of query errors.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average query duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow query is detected.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver wraps an executor with query statistics collection.
// Connections acquired from it record into the same statistics.
type StatsDriver struct {
	dialect.Executor
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow query detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow queries.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow queries as warnings to the given logger.
func WithSlowQueryLog(log logrus.FieldLogger) StatsOption {
	return WithSlowQueryHook(func(_ context.Context, query string, args []any, duration time.Duration) {
		log.WithFields(logrus.Fields{
			"duration": duration,
			"query":    query,
			"args":     len(args),
		}).Warn("slow query detected")
	})
}

// NewStatsDriver wraps an executor with statistics collection.
//
//	drv, _ := sql.Open("postgres", dsn)
//	stats := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(logrus.StandardLogger()),
//	)
//	users, err := models.NewUserQuery().All(ctx, stats)
func NewStatsDriver(ex dialect.Executor, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Executor:      ex,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow query threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args []any) (dialect.Rows, error) {
	start := time.Now()
	rows, err := d.Executor.Query(ctx, query, args)
	d.record(ctx, query, args, start, err, true)
	return rows, err
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args []any) (int64, error) {
	start := time.Now()
	n, err := d.Executor.Exec(ctx, query, args)
	d.record(ctx, query, args, start, err, false)
	return n, err
}

// Acquire checks out a connection that also records statistics.
func (d *StatsDriver) Acquire(ctx context.Context) (dialect.Conn, error) {
	c, err := d.Executor.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsConn{Conn: c, driver: d}, nil
}

func (d *StatsDriver) record(ctx context.Context, query string, args []any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		d.stats.TotalQueries.Add(1)
	} else {
		d.stats.TotalExecs.Add(1)
	}
	d.stats.TotalDuration.Add(int64(duration))

	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, args, duration)
		}
	}
}

// StatsConn wraps an acquired connection with statistics collection.
type StatsConn struct {
	dialect.Conn
	driver *StatsDriver
}

// Query executes a query on the connection and records statistics.
func (c *StatsConn) Query(ctx context.Context, query string, args []any) (dialect.Rows, error) {
	start := time.Now()
	rows, err := c.Conn.Query(ctx, query, args)
	c.driver.record(ctx, query, args, start, err, true)
	return rows, err
}

// Exec executes a statement on the connection and records statistics.
func (c *StatsConn) Exec(ctx context.Context, query string, args []any) (int64, error) {
	start := time.Now()
	n, err := c.Conn.Exec(ctx, query, args)
	c.driver.record(ctx, query, args, start, err, false)
	return n, err
}

// DebugDriver wraps an executor with debug logging.
type DebugDriver struct {
	dialect.Executor
	log logrus.FieldLogger
}

// NewDebugDriver wraps an executor and logs every statement at debug
// level.
func NewDebugDriver(ex dialect.Executor, log logrus.FieldLogger) *DebugDriver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DebugDriver{Executor: ex, log: log}
}

// Query executes a query and logs it.
func (d *DebugDriver) Query(ctx context.Context, query string, args []any) (dialect.Rows, error) {
	d.log.WithFields(logrus.Fields{"query": query, "args": args}).Debug("query")
	return d.Executor.Query(ctx, query, args)
}

// Exec executes a statement and logs it.
func (d *DebugDriver) Exec(ctx context.Context, query string, args []any) (int64, error) {
	d.log.WithFields(logrus.Fields{"query": query, "args": args}).Debug("exec")
	return d.Executor.Exec(ctx, query, args)
}

// Acquire checks out a connection with debug logging.
func (d *DebugDriver) Acquire(ctx context.Context) (dialect.Conn, error) {
	c, err := d.Executor.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	d.log.Debug("acquire connection")
	return &DebugConn{Conn: c, log: d.log}, nil
}

// DebugConn wraps an acquired connection with debug logging.
type DebugConn struct {
	dialect.Conn
	log logrus.FieldLogger
}

// Query executes a query on the connection and logs it.
func (c *DebugConn) Query(ctx context.Context, query string, args []any) (dialect.Rows, error) {
	c.log.WithFields(logrus.Fields{"query": query, "args": args}).Debug("conn query")
	return c.Conn.Query(ctx, query, args)
}

// Exec executes a statement on the connection and logs it.
func (c *DebugConn) Exec(ctx context.Context, query string, args []any) (int64, error) {
	c.log.WithFields(logrus.Fields{"query": query, "args": args}).Debug("conn exec")
	return c.Conn.Exec(ctx, query, args)
}

// Release releases the connection and logs it.
func (c *DebugConn) Release() error {
	c.log.Debug("release connection")
	return c.Conn.Release()
}

var (
	_ dialect.Executor = (*StatsDriver)(nil)
	_ dialect.Conn     = (*StatsConn)(nil)
	_ dialect.Executor = (*DebugDriver)(nil)
	_ dialect.Conn     = (*DebugConn)(nil)
)

// OpenWithStats opens a database pool with statistics collection enabled.
func OpenWithStats(driverName, source string, opts ...StatsOption) (*StatsDriver, *QueryStats, error) {
	drv, err := Open(driverName, source)
	if err != nil {
		return nil, nil, err
	}
	s := NewStatsDriver(drv, opts...)
	return s, s.QueryStats(), nil
}

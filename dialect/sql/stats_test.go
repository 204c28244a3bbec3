package sql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tablegen/dialect"
)

func TestStatsDriver(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	log, hook := test.NewNullLogger()
	var slow int
	s := NewStatsDriver(drv,
		WithSlowThreshold(-1),
		WithSlowQueryLog(log),
	)
	assert.Equal(t, time.Duration(-1), s.SlowThreshold())

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("DELETE FROM posts").WillReturnResult(sqlmock.NewResult(0, 2))
	rows, err := s.Query(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	n, err := s.Exec(context.Background(), "DELETE FROM posts", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	snap := s.QueryStats().Stats()
	assert.EqualValues(t, 1, snap.TotalQueries)
	assert.EqualValues(t, 1, snap.TotalExecs)
	assert.EqualValues(t, 2, snap.SlowQueries)
	assert.Contains(t, snap.String(), "queries=1 execs=1")
	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "DELETE FROM posts", hook.LastEntry().Data["query"])

	s.SetSlowThreshold(time.Hour)
	WithSlowQueryHook(func(context.Context, string, []any, time.Duration) { slow++ })(s)
	c, err := s.Acquire(context.Background())
	require.NoError(t, err)
	mock.ExpectQuery("SELECT 2").WillReturnError(assert.AnError)
	_, err = c.Query(context.Background(), "SELECT 2", nil)
	require.Error(t, err)
	require.NoError(t, c.Release())
	assert.EqualValues(t, 1, s.QueryStats().Stats().Errors)
	assert.Zero(t, slow)

	s.QueryStats().Reset()
	assert.Zero(t, s.QueryStats().Stats().AvgQueryDuration())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebugDriver(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	d := NewDebugDriver(drv, log)

	mock.ExpectExec("DELETE FROM posts WHERE id = $1").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := d.Exec(context.Background(), "DELETE FROM posts WHERE id = $1", []any{1})
	require.NoError(t, err)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "exec", hook.LastEntry().Message)

	c, err := d.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Release())
	assert.Equal(t, "release connection", hook.LastEntry().Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

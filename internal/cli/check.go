package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/syssam/tablegen/compiler/gen"
	"github.com/syssam/tablegen/compiler/load"
	"github.com/syssam/tablegen/dialect"
	"github.com/syssam/tablegen/dialect/pgxdriver"
	"github.com/syssam/tablegen/dialect/sql"
)

type checkOptions struct {
	driver  string
	dsn     string
	workers int
	slow    time.Duration
}

func newCheckCmd(a *app) *cobra.Command {
	o := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [schemas_dir]",
		Short: "Check the schemas against a live database",
		Long: `Check selects every declared column of every valid table with LIMIT 0,
through the generated-code runtime, and reports the tables whose query
fails. The data source defaults to the project file, then to
$DATABASE_URL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config(args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("driver") {
				c.Database.Driver = o.driver
			}
			if cmd.Flags().Changed("dsn") {
				c.Database.DSN = o.dsn
			}
			if err := c.Validate(); err != nil {
				return err
			}
			dsn := c.DSN()
			if dsn == "" {
				return errors.New("no data source: use --dsn, the project file or $DATABASE_URL")
			}
			log := a.logger(cmd)
			reg, err := load.LoadDir(c.Schemas)
			if err != nil {
				return err
			}
			cfg, err := gen.NewConfig(options(c, log)...)
			if err != nil {
				return err
			}
			graph, report, err := gen.NewGenerator(cfg).Load(cmd.Context(), reg)
			if err != nil {
				return err
			}
			printRejections(cmd.ErrOrStderr(), report)

			ex, closer, err := openExecutor(cmd.Context(), c.Database.Driver, dsn)
			if err != nil {
				return err
			}
			defer closer()
			stats := sql.NewStatsDriver(ex, sql.WithSlowThreshold(o.slow), sql.WithSlowQueryLog(log))
			ex = stats
			if a.verbose {
				ex = sql.NewDebugDriver(stats, log)
			}
			results, err := checkTables(cmd.Context(), ex, graph.Tables, o.workers)
			if err != nil {
				return err
			}
			failed := printChecks(cmd.OutOrStdout(), cmd.ErrOrStderr(), results)
			log.WithField("stats", stats.QueryStats().Stats().String()).Debug("check done")
			if failed > 0 {
				return fmt.Errorf("%d table(s) failed the check", failed)
			}
			return rejected(report)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&o.driver, "driver", "postgres", "database driver: postgres, pgx, mysql or sqlite")
	flags.StringVar(&o.dsn, "dsn", "", "data source name")
	flags.IntVar(&o.workers, "workers", 4, "number of tables checked concurrently")
	flags.DurationVar(&o.slow, "slow", 500*time.Millisecond, "threshold of slow query warnings")
	return cmd
}

// openExecutor opens a pool executor for the driver. pgx uses a native
// pgx pool; the other drivers go through database/sql.
func openExecutor(ctx context.Context, driver, dsn string) (dialect.Executor, func(), error) {
	switch driver {
	case "pgx":
		p, err := pgxdriver.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case "", "postgres", "mysql", "sqlite":
		if driver == "" {
			driver = "postgres"
		}
		drv, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := drv.DB().PingContext(ctx); err != nil {
			drv.Close()
			return nil, nil, fmt.Errorf("ping %s: %w", driver, err)
		}
		return drv, func() { drv.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// checkResult is the outcome of the check of one table.
type checkResult struct {
	Table string
	Err   error
}

// checkTables checks the tables concurrently, each on its own
// connection, and returns one result per table in table order.
func checkTables(ctx context.Context, ex dialect.Executor, tables []*gen.Table, workers int) ([]checkResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]checkResult, len(tables))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range tables {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = checkResult{Table: t.Name, Err: checkTable(ctx, ex, t)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// checkTable selects the declared columns of t without fetching rows.
func checkTable(ctx context.Context, ex dialect.Executor, t *gen.Table) (err error) {
	conn, err := ex.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := conn.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	columns := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		columns[i] = f.Name
	}
	sel := sql.NewSelector(t.Name, t.SelectAll()).Select(columns...).Limit(0)
	defer sel.Release()
	_, err = sql.Fetch(ctx, conn, sel, func(dialect.Rows, []string) (struct{}, error) {
		return struct{}{}, nil
	})
	return err
}

// printChecks prints the results and returns the number of failures.
func printChecks(out, errOut io.Writer, results []checkResult) int {
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			failure.Fprintf(errOut, "✗ %s\n", r.Table)
			fmt.Fprintf(errOut, "    %v\n", r.Err)
			continue
		}
		success.Fprint(out, "✓ ")
		fmt.Fprintln(out, r.Table)
	}
	fmt.Fprintf(out, "%d table(s) checked, %d failed\n", len(results), failed)
	return failed
}

// Package cli implements the tablegen command line: generate, validate
// and check.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/syssam/tablegen/compiler/gen"
	"github.com/syssam/tablegen/internal/config"
	"github.com/syssam/tablegen/internal/logger"
)

// app holds the persistent flags shared by every command.
type app struct {
	configPath string
	envFiles   []string
	verbose    bool
}

// NewRootCmd returns the tablegen command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tablegen",
		Short: "Generate typed Go data-access code from table schemas",
		Long: `tablegen reads table schema fragments (JSON or YAML) from a directory,
validates them and generates one Go file per table: a record struct,
CRUD helpers, a fluent query builder and relation variants.

Examples:
  tablegen generate ./schemas ./models
  tablegen validate ./schemas
  tablegen check ./schemas --driver postgres --dsn postgres://localhost/app
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadEnv(a.envFiles...)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "project file (default "+config.FileName+")")
	flags.StringSliceVar(&a.envFiles, "env-file", nil, "environment files to load (default .env)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newGenerateCmd(a), newValidateCmd(a), newCheckCmd(a))
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// config loads the project file and applies the positional schema and
// output directories.
func (a *app) config(args []string) (*config.Config, error) {
	c, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		c.Schemas = args[0]
	}
	if len(args) > 1 {
		c.Output = args[1]
	}
	return c, nil
}

func (a *app) logger(cmd *cobra.Command) *logrus.Logger {
	return logger.New(a.verbose, cmd.ErrOrStderr())
}

// options returns the generator options of a configuration.
func options(c *config.Config, log logrus.FieldLogger) []gen.Option {
	opts := []gen.Option{
		gen.WithTarget(c.Output),
		gen.WithNaming(c.Naming),
		gen.WithLogger(log),
	}
	if c.Package != "" {
		opts = append(opts, gen.WithPackage(c.Package))
	}
	if c.Header != "" {
		opts = append(opts, gen.WithHeader(c.Header))
	}
	return opts
}

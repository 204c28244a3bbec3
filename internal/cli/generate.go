package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sqlgen "github.com/syssam/tablegen/compiler/gen/sql"
	"github.com/syssam/tablegen/compiler/load"
	"github.com/syssam/tablegen/internal/config"
)

type generateOptions struct {
	pkg      string
	naming   string
	header   string
	watch    bool
	progress bool
}

func newGenerateCmd(a *app) *cobra.Command {
	o := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [schemas_dir] [output_dir]",
		Short: "Generate the data-access code of a schema directory",
		Long: `Generate loads every schema fragment of the schema directory, merges the
fragments of each table, validates the tables and writes one file per
accepted table plus registry.go to the output directory.

Rejected tables are reported with their rules on stderr; the other
tables are still generated. The command fails when any table is
rejected.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config(args)
			if err != nil {
				return err
			}
			o.apply(cmd, c)
			log := a.logger(cmd)
			if o.watch {
				return watch(cmd.Context(), cmd, c, log)
			}
			reg, err := load.LoadDir(c.Schemas)
			if err != nil {
				return err
			}
			return generate(cmd.Context(), cmd, reg, c, log, o.progress)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&o.pkg, "package", "p", "", "package name of the generated code")
	flags.StringVar(&o.naming, "naming", "", "naming strategy: naive or inflect")
	flags.StringVar(&o.header, "header", "", "header comment of the generated files")
	flags.BoolVarP(&o.watch, "watch", "w", false, "regenerate when a schema file changes")
	flags.BoolVar(&o.progress, "progress", false, "show a progress bar")
	return cmd
}

// apply overrides the configuration with the flags set on the command
// line.
func (o *generateOptions) apply(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("package") {
		c.Package = o.pkg
	}
	if flags.Changed("naming") {
		c.Naming = o.naming
	}
	if flags.Changed("header") {
		c.Header = o.header
	}
}

// generate runs one generation of reg and prints its report.
func generate(ctx context.Context, cmd *cobra.Command, reg *load.Registry, c *config.Config, log *logrus.Logger, progress bool) error {
	if progress {
		h := newProgressHook(reg.Len(), cmd.ErrOrStderr())
		defer h.finish()
		log.AddHook(h)
	}
	report, err := sqlgen.Generate(ctx, reg, options(c, log)...)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), report)
	return rejected(report)
}

// watch generates once, then again on every schema change, until the
// command context is done.
func watch(ctx context.Context, cmd *cobra.Command, c *config.Config, log *logrus.Logger) error {
	out := cmd.OutOrStdout()
	run := func(reg *load.Registry, err error) {
		if err == nil {
			err = generate(ctx, cmd, reg, c, log, false)
		}
		if err != nil {
			log.WithError(err).Error("generation failed")
		}
		printWatching(out, c.Schemas)
	}
	run(load.LoadDir(c.Schemas))
	return load.Watch(ctx, c.Schemas, load.DefaultDebounce, run)
}

func printWatching(w io.Writer, dir string) {
	fmt.Fprintf(w, "watching %s for changes\n", dir)
}

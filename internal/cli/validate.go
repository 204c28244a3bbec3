package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/tablegen/compiler/gen"
	"github.com/syssam/tablegen/compiler/load"
)

func newValidateCmd(a *app) *cobra.Command {
	var naming string
	cmd := &cobra.Command{
		Use:   "validate [schemas_dir]",
		Short: "Validate a schema directory without writing code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config(args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("naming") {
				c.Naming = naming
			}
			reg, err := load.LoadDir(c.Schemas)
			if err != nil {
				return err
			}
			cfg, err := gen.NewConfig(options(c, a.logger(cmd))...)
			if err != nil {
				return err
			}
			graph, report, err := gen.NewGenerator(cfg).Load(cmd.Context(), reg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range graph.Tables {
				success.Fprint(out, "✓ ")
				fmt.Fprintf(out, "%s (%s, %d field(s), %d relation(s))\n", t.Name, t.StructName, len(t.Fields), len(t.Relations))
			}
			printRejections(cmd.ErrOrStderr(), report)
			fmt.Fprintf(out, "%d table(s) valid, %d rejected\n", len(graph.Tables), len(report.Rejected))
			return rejected(report)
		},
	}
	cmd.Flags().StringVar(&naming, "naming", "", "naming strategy: naive or inflect")
	return cmd
}

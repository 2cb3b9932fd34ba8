package cmd

import (
	"github.com/spf13/cobra"

	"install-tool/internal/logger"
)

// newPlanCmd builds `install-tool plan`, which prints the install order
// without installing anything.
func newPlanCmd(g *globalOptions) *cobra.Command {
	o := &installOptions{}
	cmd := &cobra.Command{
		Use:   "plan [program]",
		Short: "Print the order in which a program and its dependencies would be installed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && o.program == "" {
				o.program = args[0]
			}
			cfg, err := o.config(cmd, g)
			if err != nil {
				return err
			}
			// Plan only; nothing is looked up on PATH and nothing runs
			order, err := newComponents(cfg).planner.Plan(o.program)
			if err != nil {
				return err
			}
			for _, p := range order {
				logger.Println(p)
			}
			return nil
		},
	}
	o.bindResolutionFlags(cmd)
	return cmd
}

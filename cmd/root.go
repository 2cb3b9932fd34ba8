package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"install-tool/internal/config"
	"install-tool/internal/logger"
)

// globalOptions holds the flags shared by every subcommand.
type globalOptions struct {
	// debug indicates whether debug logging should be enabled (`--debug`).
	debug bool
	// configPath holds the path to the YAML configuration file (`--config`, `-c`).
	configPath string
	// exitCode is the status a subcommand wants the process to exit with.
	exitCode int
}

// newRootCmd builds the base command for the CLI tool `install-tool`
// together with its subcommands.
func newRootCmd() (*cobra.Command, *globalOptions) {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "install-tool",
		Short: "Install developer tools and their dependencies",

		SilenceUsage:  true,
		SilenceErrors: true,

		// PersistentPreRun is a hook that runs before any subcommand.
		// Here, we initialize the logger based on the debug flag.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(opts.debug)
		},
	}

	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultFile, "Path to configuration file")

	root.AddCommand(newInstallCmd(opts))
	root.AddCommand(newPlanCmd(opts))
	return root, opts
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	root, opts := newRootCmd()
	return run(root, opts)
}

// run executes root and turns its outcome into an exit status.
func run(root *cobra.Command, opts *globalOptions) int {
	// Ctrl-C cancels the running install command
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		// Errors are printed here once since cobra's own printing is silenced
		logger.Error("[ERROR] %v\n", err)
		if opts.exitCode == 0 {
			return 1
		}
	}
	return opts.exitCode
}

// loadConfig reads the configuration file. The default path may be absent;
// an explicitly given one must exist.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	required := cmd.Flags().Changed("config")
	return config.Load(o.configPath, required)
}

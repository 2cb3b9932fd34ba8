package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"install-tool/internal/config"
	"install-tool/internal/installer"
	"install-tool/internal/logger"
	"install-tool/internal/planner"
	"install-tool/internal/platform"
	"install-tool/internal/report"
	"install-tool/internal/resolver"
	"install-tool/internal/resources"
)

// installOptions holds the flags of the install and plan commands.
type installOptions struct {
	program      string
	properties   []string
	osID         string
	resourceDirs []string

	// install only
	shell     string
	scriptDir string
	timeout   time.Duration
	failFast  bool
	report    string
}

func (o *installOptions) bindResolutionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.program, "program-name", "p", "", "Name of the program to install")
	cmd.Flags().StringArrayVarP(&o.properties, "property", "D", nil, "Override a property, e.g. -D maven.installCommand='echo ok' (repeatable)")
	cmd.Flags().StringVar(&o.osID, "os", "", "OS identifier to resolve resources for (default: detected)")
	cmd.Flags().StringArrayVar(&o.resourceDirs, "resources", nil, "Directory searched for <program>.dependency.<os>.properties (repeatable)")
}

// newInstallCmd builds `install-tool install`.
func newInstallCmd(g *globalOptions) *cobra.Command {
	o := &installOptions{}
	cmd := &cobra.Command{
		Use:     "install [program]",
		Aliases: []string{"install-tool"},
		Short:   "Install a program and its dependencies using resolved install commands",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// A positional program name is accepted when -p is not given
			if len(args) == 1 && o.program == "" {
				o.program = args[0]
			}
			cfg, err := o.config(cmd, g)
			if err != nil {
				return err
			}
			// Keep the install exit code even when an error is returned
			code, err := runInstall(cmd, cfg, o.program)
			g.exitCode = code
			return err
		},
	}

	o.bindResolutionFlags(cmd)
	cmd.Flags().StringVar(&o.shell, "shell", "", "Shell used to run install scripts (bash, sh, zsh)")
	cmd.Flags().StringVar(&o.scriptDir, "script-dir", "", "Directory for temporary install scripts")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "Limit for each install command, e.g. 10m (default: none)")
	cmd.Flags().BoolVar(&o.failFast, "fail-fast", false, "Stop at the first install command that exits non-zero")
	cmd.Flags().StringVar(&o.report, "report", "", "Write a JSON report of the run to this file")
	return cmd
}

// config loads the config file and lets explicitly set flags win over it.
func (o *installOptions) config(cmd *cobra.Command, g *globalOptions) (*config.Config, error) {
	if o.program == "" {
		return nil, fmt.Errorf("a program name is required (--program-name)")
	}
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	// -D properties win over the file's overrides
	props, err := parseProperties(o.properties)
	if err != nil {
		return nil, err
	}
	cfg.ApplyOverrides(props)

	// Only flags given on the command line replace file values
	flags := cmd.Flags()
	if flags.Changed("os") {
		cfg.OS = o.osID
	}
	if flags.Changed("resources") {
		// Directories from the command line are searched first
		cfg.ResourceDirs = append(append([]string(nil), o.resourceDirs...), cfg.ResourceDirs...)
	}
	if flags.Changed("shell") {
		cfg.Shell = o.shell
	}
	if flags.Changed("script-dir") {
		cfg.ScriptDir = o.scriptDir
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast = o.failFast
	}
	if flags.Changed("report") {
		cfg.Report = o.report
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseProperties turns key=value pairs into a map. Values may contain '='
// and ','.
func parseProperties(pairs []string) (map[string]string, error) {
	props := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid property %q, expected <program>.<key>=<value>", p)
		}
		props[k] = v
	}
	return props, nil
}

// components is the resolution and install stack built from a config.
type components struct {
	osID      string
	resolver  *resolver.Resolver
	planner   *planner.Planner
	executor  *installer.Executor
	installer *installer.Installer
}

func newComponents(cfg *config.Config) *components {
	osID := cfg.OS
	if osID == "" {
		osID = platform.ID()
	}

	// Resource directories in order, then the resources built into the binary
	loaders := make(resources.Chain, 0, len(cfg.ResourceDirs)+1)
	for _, dir := range cfg.ResourceDirs {
		loaders = append(loaders, resources.NewDirLoader(dir))
	}
	loaders = append(loaders, resources.Bundled())

	res := resolver.New(resolver.MapStore(cfg.Overrides), loaders)

	pl := planner.New(res, osID)
	if cfg.MaxDepth > 0 {
		pl.MaxDepth = cfg.MaxDepth
	}

	ex := installer.NewExecutor(res, osID)
	if cfg.Shell != "" {
		ex.Shell = cfg.Shell
	}
	ex.ScriptDir = cfg.ScriptDir
	ex.Timeout = cfg.Timeout
	ex.FailFast = cfg.FailFast

	logger.Debug("[DEBUG] Resolving for OS %s with resource dirs %v\n", osID, cfg.ResourceDirs)
	return &components{
		osID:      osID,
		resolver:  res,
		planner:   pl,
		executor:  ex,
		installer: installer.New(pl, ex),
	}
}

func runInstall(cmd *cobra.Command, cfg *config.Config, program string) (int, error) {
	c := newComponents(cfg)
	started := time.Now()

	code, records, err := c.installer.Install(cmd.Context(), program)

	// A failed report write is logged but does not change the exit code
	if cfg.Report != "" {
		r := &report.Report{
			Program:   program,
			OS:        c.osID,
			ExitCode:  code,
			StartedAt: started,
			Records:   records,
		}
		if err != nil {
			r.Error = err.Error()
		}
		if rerr := report.Save(cfg.Report, r); rerr != nil {
			logger.Warn("[WARN] %v\n", rerr)
		}
	}

	if err == nil {
		if code == 0 {
			logger.Info("[INFO] Installed %s\n", program)
		} else {
			logger.Error("[ERROR] Installing %s finished with exit code %d\n", program, code)
		}
	}
	return code, err
}

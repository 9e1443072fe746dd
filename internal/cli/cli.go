// Package cli assembles the envmatrix command line: the root command
// runs the harness, subcommands scaffold a project and print version
// information.
package cli

import (
	"context"
	"os"

	"github.com/envmatrix/envmatrix/internal/engine"
	"github.com/spf13/cobra"
)

// App represents the CLI application.
type App struct {
	rootCmd *cobra.Command

	// newEngine builds the container engine for a run. Tests swap in
	// a fake.
	newEngine func() (engine.Engine, error)

	// Version information (set via ldflags in main)
	version string
	commit  string
	date    string
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		newEngine: func() (engine.Engine, error) { return engine.NewDocker() },
	}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// ExecuteContext runs the CLI application with the given context.
func (a *App) ExecuteContext(ctx context.Context) error {
	return a.rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version strings for --version and the version
// subcommand.
func (a *App) SetVersion(version, commit, date string) {
	a.version = version
	a.commit = commit
	a.date = date
	a.rootCmd.Version = version
}

// setupRootCmd configures the root Cobra command.
func (a *App) setupRootCmd() {
	opts := DefaultRunOptions()

	a.rootCmd = &cobra.Command{
		Use:   "envmatrix",
		Short: "Build container images and run test containers across environment matrices",
		Long: `envmatrix builds a set of container images and runs containers from
them against multiple named environment variable sets, checking each
container's exit code. It is built for Ansible role testing: the
container entrypoint lints, syntax-checks, runs and idempotence-checks
a role, and the summary reports every (image, environment) pair.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				cmd.PrintErrf("Error: %v\n", err)
				os.Exit(2)
			}
			return a.RunHarness(cmd.Context(), opts)
		},
	}

	flags := a.rootCmd.Flags()
	flags.StringVarP(&opts.File, "file", "f", "",
		"Alternate configuration file (default: recursive search for "+defaultConfigHint+")")
	flags.IntVarP(&opts.Threads, "threads", "t", 0,
		"Number of concurrent build/run threads (default: config file value)")
	flags.BoolVar(&opts.BuildOnly, "build-only", false,
		"Build images, don't start containers")
	flags.StringVar(&opts.LogLevel, "log-level", "",
		"Log level (CRITICAL, DEBUG, ERROR, INFO, NOTSET, WARNING)")
	flags.BoolVar(&opts.DisableLogging, "disable-logging", false,
		"Completely disable logging")
	flags.BoolVar(&opts.NoTUI, "no-tui", false,
		"Disable the interactive progress display")
	flags.StringVar(&opts.EventLog, "event-log", "",
		"Write lifecycle events as JSON lines to this file")

	a.rootCmd.AddCommand(NewInitCmd(a))
	a.rootCmd.AddCommand(NewVersionCmd(a))
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/envmatrix/envmatrix/internal/cli/tui"
	"github.com/envmatrix/envmatrix/internal/config"
	"github.com/envmatrix/envmatrix/internal/events"
	"github.com/envmatrix/envmatrix/internal/logging"
	"github.com/envmatrix/envmatrix/internal/orchestrator"
	"github.com/envmatrix/envmatrix/internal/report"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

const defaultConfigHint = config.DefaultFileName

// ErrJobsFailed is returned when the harness finished but at least
// one build or run failed. The process exits 1 for it.
var ErrJobsFailed = errors.New("one or more jobs failed")

// ExitCode maps a harness error to the process exit status: 0 on
// success, 2 for configuration errors, 1 for failed jobs and
// everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		return 2
	}
	return 1
}

// RunOptions holds flags for the harness run.
type RunOptions struct {
	File           string // Config file path ("" = recursive search)
	Threads        int    // 0 = defer to config file
	BuildOnly      bool   // Skip the run phase
	LogLevel       string // "" = defer to config file
	DisableLogging bool
	NoTUI          bool
	EventLog       string // JSON event log path ("" = off)
}

// DefaultRunOptions returns the zero options; every zero value means
// "defer to the config file".
func DefaultRunOptions() RunOptions {
	return RunOptions{}
}

// Validate checks RunOptions for validity.
func (opts RunOptions) Validate() error {
	if opts.Threads < 0 {
		return fmt.Errorf("threads must be positive, got %d", opts.Threads)
	}
	if opts.LogLevel != "" {
		if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// RunHarness loads the config, wires the components and executes the
// two-phase run. The returned error is nil only on full success.
func (a *App) RunHarness(ctx context.Context, opts RunOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := NewSignalHandler(cancel)
	handler.OnShutdown(func() {
		fmt.Fprintln(os.Stderr, "\nShutting down, letting running jobs finish...")
	})
	handler.Start()
	defer handler.Stop()

	cfg, err := config.Load(opts.File)
	if err != nil {
		return err
	}
	if err := cfg.Apply(config.Overrides{
		Threads:        opts.Threads,
		LogLevel:       opts.LogLevel,
		DisableLogging: opts.DisableLogging,
	}); err != nil {
		return err
	}

	harness, err := WireHarness(cfg, opts, a.newEngine)
	if err != nil {
		return err
	}
	defer harness.Close()

	// Interactive display only on a terminal, and never when logging
	// is disabled outright.
	useTUI := !opts.NoTUI && !cfg.DisableLogging && term.IsTerminal(int(os.Stdout.Fd()))
	stopTUI := func() {}
	if useTUI {
		model := tui.NewModel(cfg.Threads)
		program := tea.NewProgram(model)
		harness.Bus.Subscribe(tui.NewBridge(program).Handler())

		tuiDone := make(chan struct{})
		go func() {
			defer close(tuiDone)
			if _, err := program.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "display error: %v\n", err)
			}
		}()
		stopTUI = func() {
			program.Send(tui.DoneMsg{})
			<-tuiDone
		}
	} else {
		harness.Bus.Subscribe(events.LogHandler(harness.Logger))
	}

	summary, err := harness.Orchestrator.Run(ctx, orchestrator.Options{BuildOnly: opts.BuildOnly})

	// The display must release the terminal before the summary prints.
	stopTUI()

	if err != nil {
		// Fatal abort. Print whatever partial summary exists, then
		// surface the fatal error.
		if len(summary.Outcomes) > 0 {
			a.printSummary(summary)
		}
		return err
	}

	a.printSummary(summary)

	if summary.Failed() {
		return ErrJobsFailed
	}
	return nil
}

// printSummary renders the final summary to stdout, with colors only
// on a terminal.
func (a *App) printSummary(summary report.Summary) {
	styles := report.PlainStyles()
	if term.IsTerminal(int(os.Stdout.Fd())) {
		styles = report.DefaultStyles()
	}
	fmt.Fprint(a.rootCmd.OutOrStdout(), "\n"+summary.Render(styles))
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/attpc/synchronizer/internal/config"
	"github.com/attpc/synchronizer/internal/runner"
	"github.com/attpc/synchronizer/internal/syncfile"
)

// SyncOptions holds flags for the synchronize (root) command.
type SyncOptions struct {
	*RootOptions
	Jobs int

	// IDs allows overriding the sync id generator (for testing).
	// If nil, defaults to syncfile.UUIDv7Generator.
	IDs syncfile.IDGenerator
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions, f)
	if err != nil {
		return err
	}
	logger.Info("loaded configuration", "path", opts.Config)

	if err := cfg.CheckPaths(); err != nil {
		return f.Fail(ExitCommandError, CodeNotFound, "data directory missing", err)
	}

	jobs := cfg.Jobs
	if opts.Jobs > 0 {
		jobs = opts.Jobs
	}

	r := runner.New(runner.Options{
		MergerPath:    cfg.MergerPath,
		SyncPath:      cfg.SyncPath,
		Runs:          cfg.Runs(),
		Jobs:          jobs,
		Params:        cfg.Params(),
		FailOnMissing: cfg.MissingEventPolicy == config.PolicyFail,
		IDs:           opts.IDs,
		Logger:        logger,
	})

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("synchronizing", "min_run", cfg.MinRun, "max_run", cfg.MaxRun, "jobs", jobs)
	report, runErr := r.Run(ctx)

	if opts.Format == "json" {
		if runErr != nil {
			return f.Fail(ExitFailure, CodeRunFailed, "synchronization failed", runErr)
		}
		return f.Success(report)
	}

	writeReportText(cmd.OutOrStdout(), report)
	if runErr != nil {
		return f.Fail(ExitFailure, CodeRunFailed, "synchronization failed", runErr)
	}
	return nil
}

// writeReportText prints one line per run and a summary line.
func writeReportText(w io.Writer, report *runner.Report) {
	p := message.NewPrinter(language.English)

	for _, run := range report.Runs {
		switch run.Status {
		case runner.StatusDone:
			p.Fprintf(w, "run %s: done (%s, %s) %d pairs, %d skips, %d anomalies, %d dropped\n",
				runLabel(run.Run), run.Variant, run.Outcome, run.Written, run.Skips, run.Anomalies, run.Dropped)
		case runner.StatusSkipped:
			p.Fprintf(w, "run %s: skipped (not found)\n", runLabel(run.Run))
		default:
			p.Fprintf(w, "run %s: failed: %s\n", runLabel(run.Run), run.Error)
		}
	}
	p.Fprintf(w, "Summary: %d synchronized, %d skipped, %d failed\n",
		report.Count(runner.StatusDone), report.Count(runner.StatusSkipped), report.Count(runner.StatusFailed))
}

// runLabel formats a run number without digit grouping.
func runLabel(run int) string {
	return fmt.Sprintf("%04d", run)
}

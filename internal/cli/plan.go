package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/attpc/synchronizer/internal/merger"
	"github.com/attpc/synchronizer/internal/runner"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Pairs bool // include every matched pair
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <run>",
		Short: "Show the synchronization plan of a run",
		Long: `Compute the synchronization plan of one run without writing output.

Prints the alignment, the FRIB events skipped, the timestamp anomalies
and the plan digest stored in synchronized containers.

Examples:
  synchronizer -c config.yml plan 55
  synchronizer -c config.yml plan 55 --pairs --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Pairs, "pairs", false, "list every matched pair")

	return cmd
}

func showPlan(opts *PlanOptions, arg string, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	run, err := strconv.Atoi(arg)
	if err != nil || run < 0 {
		return f.Fail(ExitCommandError, CodeGeneric, fmt.Sprintf("invalid run number %q", arg), err)
	}

	cfg, err := loadConfig(opts.RootOptions, f)
	if err != nil {
		return err
	}

	r := runner.New(runner.Options{
		MergerPath: cfg.MergerPath,
		Params:     cfg.Params(),
		Logger:     logger,
	})
	preview, err := r.Plan(cmd.Context(), run)
	if errors.Is(err, merger.ErrRunNotFound) {
		return f.Fail(ExitCommandError, CodeNotFound, fmt.Sprintf("run %d not found", run), err)
	}
	if err != nil {
		return f.Fail(ExitFailure, CodeRunFailed, fmt.Sprintf("run %d failed", run), err)
	}

	if !opts.Pairs {
		preview.Result.Plan.Pairs = nil
	}
	if opts.Format == "json" {
		return f.Success(preview)
	}
	writePlanText(cmd.OutOrStdout(), preview)
	return nil
}

// writePlanText renders a preview. Pairs are listed when present.
// Counts are digit-grouped; event ordinals are printed plain.
func writePlanText(w io.Writer, preview *runner.Preview) {
	p := message.NewPrinter(language.English)
	result := preview.Result
	plan := &result.Plan
	a := result.Alignment

	p.Fprintf(w, "Run %s (%s layout)\n", runLabel(preview.Run), preview.Variant)
	p.Fprintf(w, "  container:   %s\n", preview.Path)
	p.Fprintf(w, "  GET events:  %d\n", result.GetEvents)
	p.Fprintf(w, "  FRIB events: %d\n", result.FribEvents)
	fmt.Fprintf(w, "  alignment:   %s at GET %d, FRIB %d\n", a.Outcome.String(), a.GetFirst, a.FribFirst)
	p.Fprintf(w, "  pairs:       %d\n", preview.Pairs)
	p.Fprintf(w, "  skips:       %d\n", plan.Skips)
	p.Fprintf(w, "  anomalies:   %d\n", len(plan.Anomalies))
	p.Fprintf(w, "  digest:      %s\n", preview.Digest)

	if len(plan.SkipPoints) > 0 {
		p.Fprintf(w, "\nSkips:\n")
		for _, g := range plan.SkipPoints {
			fmt.Fprintf(w, "  at GET %d\n", g)
		}
	}
	if len(plan.Anomalies) > 0 {
		p.Fprintf(w, "\nAnomalies:\n")
		for _, an := range plan.Anomalies {
			fmt.Fprintf(w, "  GET %d  FRIB %d  jitter %d\n", an.Get, an.Frib, an.Jitter)
		}
	}
	if len(plan.Pairs) > 0 {
		p.Fprintf(w, "\nPairs:\n")
		for _, pair := range plan.Pairs {
			fmt.Fprintf(w, "  %d  %d\n", pair.Get, pair.Frib)
		}
	}
}

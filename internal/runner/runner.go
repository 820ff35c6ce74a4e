// Package runner synchronizes a range of runs.
//
// Each run is processed independently: open the merger container, build the
// plan, write the synchronized container and copy the scalers. Runs are
// processed concurrently up to Options.Jobs; they share nothing but the
// logger and the id generator.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/attpc/synchronizer/internal/merger"
	"github.com/attpc/synchronizer/internal/syncfile"
	"github.com/attpc/synchronizer/internal/timesync"
	"github.com/attpc/synchronizer/internal/traces"
)

// Options configures a Runner.
type Options struct {
	MergerPath string
	SyncPath   string
	Runs       []int

	// Jobs bounds the number of runs processed at once. Values below 1
	// mean 1.
	Jobs int

	Params        timesync.Params
	FailOnMissing bool

	// Codec and IDs are passed to syncfile. Zero values select its defaults.
	Codec traces.Codec
	IDs   syncfile.IDGenerator

	Logger *slog.Logger
}

// Status is the final state of one run.
type Status string

const (
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// RunReport summarizes one run.
type RunReport struct {
	Run        int    `json:"run"`
	Status     Status `json:"status"`
	Variant    string `json:"variant,omitempty"`
	GetEvents  int    `json:"get_events"`
	FribEvents int    `json:"frib_events"`
	Outcome    string `json:"outcome,omitempty"`
	GetFirst   int    `json:"get_first"`
	FribFirst  int    `json:"frib_first"`
	Pairs      int    `json:"pairs"`
	Written    int    `json:"written"`
	Dropped    int    `json:"dropped"`
	Skips      int    `json:"skips"`
	Anomalies  int    `json:"anomalies"`
	Digest     string `json:"digest,omitempty"`
	SyncID     string `json:"sync_id,omitempty"`
	Path       string `json:"path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Report collects the run reports in run order.
type Report struct {
	Runs []RunReport `json:"runs"`
}

// Count returns the number of runs with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, run := range r.Runs {
		if run.Status == s {
			n++
		}
	}
	return n
}

// Runner processes runs from the merger directory into the sync directory.
type Runner struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{opts: opts, logger: logger}
}

// Run synchronizes every configured run.
//
// Missing runs are skipped. The first failing run cancels the runs not yet
// finished and its error is returned together with the report of every run
// that was processed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	reports := make([]RunReport, len(r.opts.Runs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Jobs)
	for i, run := range r.opts.Runs {
		i, run := i, run
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				reports[i] = RunReport{Run: run, Status: StatusFailed, Error: err.Error()}
				return nil
			}
			rep, err := r.process(gctx, run)
			if err != nil {
				rep.Status = StatusFailed
				rep.Error = err.Error()
			}
			reports[i] = rep
			return err
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return &Report{Runs: reports}, err
}

func (r *Runner) process(ctx context.Context, run int) (RunReport, error) {
	rep := RunReport{Run: run}
	logger := r.logger.With("run", run)

	reader, err := merger.Open(ctx, r.opts.MergerPath, run)
	if errors.Is(err, merger.ErrRunNotFound) {
		logger.Warn("run not found, skipping", "path", r.opts.MergerPath)
		rep.Status = StatusSkipped
		return rep, nil
	}
	if err != nil {
		return rep, err
	}
	defer reader.Close()

	rep.Variant = reader.Variant().String()
	logger.Info("processing run", "path", reader.Path(), "variant", rep.Variant)

	result, err := timesync.Synchronize(reader, r.opts.Params)
	if err != nil {
		return rep, fmt.Errorf("run %d: %w", run, err)
	}
	rep.fill(result)
	logResult(logger, result)

	w, err := syncfile.Create(ctx, r.opts.SyncPath, run, syncfile.Options{
		Codec:         r.opts.Codec,
		IDs:           r.opts.IDs,
		FailOnMissing: r.opts.FailOnMissing,
		Logger:        logger,
	})
	if err != nil {
		return rep, err
	}
	defer w.Abort()

	stats, err := w.WritePlan(ctx, reader, &result.Plan)
	rep.Written, rep.Dropped = stats.Written, stats.Dropped
	if err != nil {
		return rep, fmt.Errorf("run %d: %w", run, err)
	}

	if err := copyScalers(ctx, logger, reader, w); err != nil {
		return rep, fmt.Errorf("run %d: %w", run, err)
	}

	info, err := w.Finalize(ctx, syncfile.Summary{
		PlanDigest: result.Plan.Digest(),
		Skips:      result.Plan.Skips,
		Anomalies:  len(result.Plan.Anomalies),
	})
	if err != nil {
		return rep, err
	}
	rep.Status = StatusDone
	rep.SyncID = info.SyncID
	rep.Path = info.Path

	logger.Info("run synchronized",
		"path", info.Path,
		"pairs", rep.Written,
		"dropped", rep.Dropped,
		"skips", rep.Skips,
		"anomalies", rep.Anomalies)
	return rep, nil
}

func copyScalers(ctx context.Context, logger *slog.Logger, reader *merger.Reader, w *syncfile.Writer) error {
	scalers, err := reader.Scalers(ctx)
	if errors.Is(err, merger.ErrMissingField) {
		logger.Warn("run has no scalers", "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Debug("copying scalers", "scalers", len(scalers.Entries))
	return w.WriteScalers(ctx, scalers)
}

func (rep *RunReport) fill(result *timesync.Result) {
	rep.GetEvents = result.GetEvents
	rep.FribEvents = result.FribEvents
	rep.Outcome = result.Alignment.Outcome.String()
	rep.GetFirst = result.Alignment.GetFirst
	rep.FribFirst = result.Alignment.FribFirst
	rep.Pairs = result.Plan.Len()
	rep.Skips = result.Plan.Skips
	rep.Anomalies = len(result.Plan.Anomalies)
	rep.Digest = fmt.Sprintf("%016x", result.Plan.Digest())
}

func logResult(logger *slog.Logger, result *timesync.Result) {
	a := result.Alignment
	logger.Info("timestamps read",
		"get_events", result.GetEvents,
		"frib_events", result.FribEvents)

	if a.Outcome == timesync.OutcomeNotFound {
		logger.Warn("alignment pattern not found, pairing from the first events")
	} else {
		logger.Info("alignment", "outcome", a.Outcome, "get_first", a.GetFirst, "frib_first", a.FribFirst)
	}

	for _, an := range result.Plan.Anomalies {
		logger.Debug("timestamp anomaly", "get", an.Get, "frib", an.Frib, "jitter", an.Jitter)
	}
	if n := len(result.Plan.Anomalies); n > 0 {
		logger.Warn("timestamp anomalies", "anomalies", n)
	}
	if result.Plan.Skips > 0 {
		logger.Info("skipped FRIB events", "skips", result.Plan.Skips, "skip_points", result.Plan.SkipPoints)
	}
}

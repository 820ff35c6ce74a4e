package runner

import (
	"context"
	"fmt"

	"github.com/attpc/synchronizer/internal/merger"
	"github.com/attpc/synchronizer/internal/timesync"
)

// Preview is the plan of one run computed without writing output.
type Preview struct {
	Run     int              `json:"run"`
	Path    string           `json:"path"`
	Variant string           `json:"variant"`
	Pairs   int              `json:"pairs"`
	Digest  string           `json:"digest"`
	Result  *timesync.Result `json:"result"`
}

// Plan opens run and computes its plan. The merger container is not
// modified and nothing is written to the sync directory.
func (r *Runner) Plan(ctx context.Context, run int) (*Preview, error) {
	reader, err := merger.Open(ctx, r.opts.MergerPath, run)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	result, err := timesync.Synchronize(reader, r.opts.Params)
	if err != nil {
		return nil, fmt.Errorf("run %d: %w", run, err)
	}
	logResult(r.logger.With("run", run), result)

	return &Preview{
		Run:     run,
		Path:    reader.Path(),
		Variant: reader.Variant().String(),
		Pairs:   result.Plan.Len(),
		Digest:  fmt.Sprintf("%016x", result.Plan.Digest()),
		Result:  result,
	}, nil
}

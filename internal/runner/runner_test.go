package runner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attpc/synchronizer/internal/container"
	"github.com/attpc/synchronizer/internal/merger"
	"github.com/attpc/synchronizer/internal/testutil"
	"github.com/attpc/synchronizer/internal/timesync"
)

func newRunner(t *testing.T, mergerDir, syncDir string, runs []int, jobs int) *Runner {
	t.Helper()
	return New(Options{
		MergerPath: mergerDir,
		SyncPath:   syncDir,
		Runs:       runs,
		Jobs:       jobs,
		Params:     timesync.DefaultParams(),
		IDs:        testutil.NewFixedIDGenerator("sync-fixed"),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRunner_SynchronizesRuns(t *testing.T) {
	ctx := context.Background()
	mergerDir, syncDir := t.TempDir(), t.TempDir()

	base := testutil.Series(30)
	testutil.WriteRun(t, mergerDir, testutil.Run{Number: 1, Get: base, Frib: testutil.WithExtra(base, 10)})
	testutil.WriteRun(t, mergerDir, testutil.Run{Number: 3, Layout: testutil.Legacy, Get: base, Frib: base, Scalers: 2})

	ids := &testutil.SequenceIDGenerator{}
	r := newRunner(t, mergerDir, syncDir, []int{1, 2, 3}, 2)
	r.opts.IDs = ids

	report, err := r.Run(ctx)
	require.NoError(t, err)
	require.Len(t, report.Runs, 3)
	assert.Equal(t, 2, ids.Count(), "one sync id per written run")

	first := report.Runs[0]
	assert.Equal(t, StatusDone, first.Status)
	assert.Equal(t, "current", first.Variant)
	assert.Equal(t, "aligned", first.Outcome)
	assert.Equal(t, 30, first.GetEvents)
	assert.Equal(t, 31, first.FribEvents)
	assert.Equal(t, 30, first.Pairs)
	assert.Equal(t, 30, first.Written)
	assert.Equal(t, 1, first.Skips)
	assert.Contains(t, []string{"sync-0001", "sync-0002"}, first.SyncID)
	assert.Equal(t, container.RunPath(syncDir, 1), first.Path)

	assert.Equal(t, RunReport{Run: 2, Status: StatusSkipped}, report.Runs[1])

	third := report.Runs[2]
	assert.Equal(t, StatusDone, third.Status)
	assert.Equal(t, "legacy", third.Variant)
	assert.Equal(t, 30, third.Pairs)
	assert.Equal(t, 0, third.Skips)
	assert.Contains(t, []string{"sync-0001", "sync-0002"}, third.SyncID)
	assert.NotEqual(t, first.SyncID, third.SyncID)

	assert.Equal(t, 2, report.Count(StatusDone))
	assert.Equal(t, 1, report.Count(StatusSkipped))
	assert.Equal(t, 0, report.Count(StatusFailed))

	out, err := merger.Open(ctx, syncDir, 1)
	require.NoError(t, err)
	defer out.Close()
	require.Equal(t, 30, out.Len(timesync.GET))
	require.Equal(t, 30, out.Len(timesync.FRIB))

	before, err := out.ReadFrib(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, testutil.FribTraces(9), before.Traces)
	after, err := out.ReadFrib(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, testutil.FribTraces(11), after.Traces, "extra FRIB event is skipped")
	get, err := out.ReadGet(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, testutil.GetTraces(10), get.Traces)

	legacyOut, err := merger.Open(ctx, syncDir, 3)
	require.NoError(t, err)
	defer legacyOut.Close()
	scalers, err := legacyOut.Scalers(ctx)
	require.NoError(t, err)
	assert.Len(t, scalers.Entries, 2)
	assert.Equal(t, uint32(2), scalers.MaxEvent)

	_, err = os.Stat(container.RunPath(syncDir, 2))
	assert.True(t, os.IsNotExist(err), "skipped run writes no output")
}

func TestRunner_OutputIsResynchronizable(t *testing.T) {
	ctx := context.Background()
	mergerDir, syncDir := t.TempDir(), t.TempDir()
	base := testutil.Series(20)
	testutil.WriteRun(t, mergerDir, testutil.Run{Number: 5, Get: base, Frib: testutil.WithExtra(base, 7)})

	_, err := newRunner(t, mergerDir, syncDir, []int{5}, 1).Run(ctx)
	require.NoError(t, err)

	again, err := newRunner(t, syncDir, t.TempDir(), nil, 1).Plan(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "current", again.Variant)
	assert.Equal(t, 0, again.Result.Plan.Skips)
	assert.Equal(t, 20, again.Result.Plan.Len())
}

func TestRunner_FailingRun(t *testing.T) {
	ctx := context.Background()
	mergerDir, syncDir := t.TempDir(), t.TempDir()

	db, err := container.Open(container.RunPath(mergerDir, 4), container.ReadWrite)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE frames (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	report, err := newRunner(t, mergerDir, syncDir, []int{4}, 1).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, merger.ErrUnrecognizedFormat)
	require.Len(t, report.Runs, 1)
	assert.Equal(t, StatusFailed, report.Runs[0].Status)
	assert.NotEmpty(t, report.Runs[0].Error)

	entries, err := os.ReadDir(syncDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed run leaves no output")
}

func TestRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mergerDir := t.TempDir()
	testutil.WriteRun(t, mergerDir, testutil.Run{Number: 1, Get: testutil.Series(5), Frib: testutil.Series(5)})

	report, err := newRunner(t, mergerDir, t.TempDir(), []int{1}, 1).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, report.Runs[0].Status)
}

func TestRunner_PlanWritesNothing(t *testing.T) {
	ctx := context.Background()
	mergerDir, syncDir := t.TempDir(), t.TempDir()
	base := testutil.Series(12)
	testutil.WriteRun(t, mergerDir, testutil.Run{Number: 8, Get: base, Frib: testutil.WithExtra(base, 4)})

	preview, err := newRunner(t, mergerDir, syncDir, nil, 1).Plan(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, preview.Run)
	assert.Equal(t, "current", preview.Variant)
	assert.Equal(t, 1, preview.Result.Plan.Skips)
	assert.Equal(t, []int{4}, preview.Result.Plan.SkipPoints)
	assert.Equal(t, 12, preview.Pairs)
	assert.Len(t, preview.Digest, 16)

	entries, err := os.ReadDir(syncDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunner_PlanMissingRun(t *testing.T) {
	_, err := newRunner(t, t.TempDir(), t.TempDir(), nil, 1).Plan(context.Background(), 99)
	assert.ErrorIs(t, err, merger.ErrRunNotFound)
}

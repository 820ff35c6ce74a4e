package syncfile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/attpc/synchronizer/internal/container"
	"github.com/attpc/synchronizer/internal/merger"
	"github.com/attpc/synchronizer/internal/timesync"
	"github.com/attpc/synchronizer/internal/traces"
)

// Version is stamped into events_info.version of every output container.
var Version = "synchronizer:dev"

// PartialSuffix marks a container that is still being written.
const PartialSuffix = ".partial"

var (
	// ErrMissingEvent means a planned GET or FRIB event could not be read.
	ErrMissingEvent = errors.New("missing paired event")

	// ErrClosed is returned by writes after Finalize or Abort.
	ErrClosed = errors.New("writer closed")
)

// EventSource reads the channel parts referenced by a plan.
// merger.Reader implements it.
type EventSource interface {
	ReadGet(ctx context.Context, ordinal int) (*merger.GetEvent, error)
	ReadFrib(ctx context.Context, ordinal int) (*merger.FribEvent, error)
}

var _ EventSource = (*merger.Reader)(nil)

// Options configures a Writer. Zero values select the defaults.
type Options struct {
	// Codec compresses trace blobs. Defaults to traces.Zstd.
	Codec traces.Codec

	// IDs generates the sync id. Defaults to UUIDv7Generator.
	IDs IDGenerator

	// FailOnMissing aborts WritePlan at the first unreadable pair instead
	// of dropping it.
	FailOnMissing bool

	Logger *slog.Logger
}

// Summary is stamped into events_info by Finalize.
type Summary struct {
	PlanDigest uint64
	Skips      int
	Anomalies  int
}

// Info describes a finalized container.
type Info struct {
	Path   string
	SyncID string
	Events uint64
}

// Stats counts the outcome of WritePlan.
type Stats struct {
	Written int
	Dropped int
}

// Writer appends synchronized events to one output container.
type Writer struct {
	run     int
	path    string
	partial string
	db      *sql.DB
	tx      *sql.Tx
	insert  *sql.Stmt
	opts    Options
	events  uint64
	closed  bool
}

// Create starts the output container of run in dir. A stale partial file
// from an interrupted run is replaced.
func Create(ctx context.Context, dir string, run int, opts Options) (*Writer, error) {
	if opts.Codec == "" {
		opts.Codec = traces.Zstd
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	path := container.RunPath(dir, run)
	partial := path + PartialSuffix
	if err := os.Remove(partial); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale %s: %w", partial, err)
	}

	db, err := container.Open(partial, container.ReadWrite)
	if err != nil {
		return nil, fmt.Errorf("run %d: %w", run, err)
	}

	w := &Writer{run: run, path: path, partial: partial, db: db, opts: opts}
	if err := w.init(ctx); err != nil {
		w.discard()
		return nil, fmt.Errorf("run %d: %w", run, err)
	}
	return w, nil
}

func (w *Writer) init(ctx context.Context) error {
	if err := container.CreateCurrent(ctx, w.db); err != nil {
		return err
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	w.tx = tx

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events_info (min_event, max_event, version, trace_codec)
		VALUES (0, NULL, ?, ?)
	`, Version, string(w.opts.Codec))
	if err != nil {
		return fmt.Errorf("write events_info: %w", err)
	}

	w.insert, err = tx.PrepareContext(ctx, `
		INSERT INTO events (
			event, orig_get_event, orig_frib_event,
			get_id, get_timestamp, get_timestamp_other, get_rows, get_cols, get_traces,
			frib_event, frib_timestamp, frib_rows, frib_cols, frib_traces, frib_coincidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	return nil
}

// Path returns the final container path.
func (w *Writer) Path() string {
	return w.path
}

// Events returns the number of events written so far.
func (w *Writer) Events() uint64 {
	return w.events
}

// WriteCombined appends one event made of a GET part and a FRIB part.
func (w *Writer) WriteCombined(ctx context.Context, get *merger.GetEvent, frib *merger.FribEvent) error {
	if w.closed {
		return ErrClosed
	}

	getBlob, err := traces.EncodeMatrix(get.Traces, w.opts.Codec)
	if err != nil {
		return fmt.Errorf("event %d GET traces: %w", w.events, err)
	}
	fribBlob, err := traces.EncodeMatrix(frib.Traces, w.opts.Codec)
	if err != nil {
		return fmt.Errorf("event %d FRIB traces: %w", w.events, err)
	}
	coincidence, err := traces.Encode(frib.Coincidence, w.opts.Codec)
	if err != nil {
		return fmt.Errorf("event %d coincidence: %w", w.events, err)
	}

	_, err = w.insert.ExecContext(ctx,
		int64(w.events), int64(get.Event), int64(frib.Event),
		get.ID, int64(get.Timestamp), int64(get.TimestampOther), get.Traces.Rows, get.Traces.Cols, getBlob,
		frib.EventNumber, frib.Timestamp, frib.Traces.Rows, frib.Traces.Cols, fribBlob, coincidence,
	)
	if err != nil {
		return fmt.Errorf("write event %d: %w", w.events, err)
	}
	w.events++
	return nil
}

// WritePlan reads every pair of plan from src and appends it.
//
// A pair whose GET or FRIB part is not found is dropped with a warning, or
// reported as ErrMissingEvent when Options.FailOnMissing is set. Any other
// read error stops the write.
func (w *Writer) WritePlan(ctx context.Context, src EventSource, plan *timesync.Plan) (Stats, error) {
	var stats Stats
	for i, pair := range plan.Pairs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		get, err := src.ReadGet(ctx, pair.Get)
		if err == nil {
			var frib *merger.FribEvent
			frib, err = src.ReadFrib(ctx, pair.Frib)
			if err == nil {
				if err := w.WriteCombined(ctx, get, frib); err != nil {
					return stats, err
				}
				stats.Written++
				continue
			}
		}

		if !errors.Is(err, timesync.ErrNotFound) {
			return stats, fmt.Errorf("pair %d: %w", i, err)
		}
		if w.opts.FailOnMissing {
			return stats, fmt.Errorf("pair %d (GET %d, FRIB %d): %w: %w", i, pair.Get, pair.Frib, ErrMissingEvent, err)
		}
		w.opts.Logger.Warn("dropping pair with missing event",
			"run", w.run,
			"pair", i,
			"get", pair.Get,
			"frib", pair.Frib,
			"error", err)
		stats.Dropped++
	}
	return stats, nil
}

// WriteScalers copies scaler snapshots and their event range.
func (w *Writer) WriteScalers(ctx context.Context, s *merger.Scalers) error {
	if w.closed {
		return ErrClosed
	}

	_, err := w.tx.ExecContext(ctx, `INSERT INTO scalers_info (min_event, max_event) VALUES (?, ?)`, s.MinEvent, s.MaxEvent)
	if err != nil {
		return fmt.Errorf("write scalers_info: %w", err)
	}

	stmt, err := w.tx.PrepareContext(ctx, `
		INSERT INTO scalers (event, data, start_offset, stop_offset, timestamp, incremental)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare scaler insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range s.Entries {
		data, err := traces.Encode(entry.Data, traces.Raw)
		if err != nil {
			return fmt.Errorf("scaler %d: %w", entry.Event, err)
		}
		if _, err := stmt.ExecContext(ctx, entry.Event, data, entry.StartOffset, entry.StopOffset, entry.Timestamp, entry.Incremental); err != nil {
			return fmt.Errorf("write scaler %d: %w", entry.Event, err)
		}
	}
	return nil
}

// Finalize stamps the summary, commits and moves the container to its final
// name. The writer is closed afterwards.
func (w *Writer) Finalize(ctx context.Context, s Summary) (*Info, error) {
	if w.closed {
		return nil, ErrClosed
	}

	syncID := w.opts.IDs.Generate()
	_, err := w.tx.ExecContext(ctx, `
		UPDATE events_info
		SET max_event = ?, sync_id = ?, plan_digest = ?, skips = ?, anomalies = ?
	`, int64(w.events), syncID, fmt.Sprintf("%016x", s.PlanDigest), s.Skips, s.Anomalies)
	if err != nil {
		w.discard()
		return nil, fmt.Errorf("run %d: write summary: %w", w.run, err)
	}

	err = w.insert.Close()
	w.insert = nil
	if err != nil {
		w.discard()
		return nil, fmt.Errorf("run %d: close event insert: %w", w.run, err)
	}
	if err := w.tx.Commit(); err != nil {
		w.discard()
		return nil, fmt.Errorf("run %d: commit: %w", w.run, err)
	}
	w.tx = nil

	if err := w.db.Close(); err != nil {
		w.discard()
		return nil, fmt.Errorf("run %d: close: %w", w.run, err)
	}
	w.db = nil
	w.closed = true

	if err := os.Rename(w.partial, w.path); err != nil {
		os.Remove(w.partial)
		return nil, fmt.Errorf("run %d: %w", w.run, err)
	}

	w.opts.Logger.Debug("finalized container",
		"run", w.run,
		"path", w.path,
		"events", w.events,
		"sync_id", syncID)
	return &Info{Path: w.path, SyncID: syncID, Events: w.events}, nil
}

// Abort discards the partial container. It is a no-op after Finalize, so
// callers can defer it right after Create.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	w.discard()
	w.opts.Logger.Debug("aborted container", "run", w.run, "path", w.partial)
}

func (w *Writer) discard() {
	if w.insert != nil {
		w.insert.Close()
	}
	if w.tx != nil {
		w.tx.Rollback()
		w.tx = nil
	}
	if w.db != nil {
		w.db.Close()
		w.db = nil
	}
	os.Remove(w.partial)
	w.closed = true
}

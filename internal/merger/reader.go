package merger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/attpc/synchronizer/internal/container"
	"github.com/attpc/synchronizer/internal/timesync"
)

// Variant identifies a container layout.
type Variant int

const (
	// Legacy is the first merger layout, marked by a meta table.
	Legacy Variant = iota
	// Current is the event-table layout, also used for synchronized output.
	Current
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case Legacy:
		return "legacy"
	case Current:
		return "current"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// layout is the closed set of container layouts.
type layout interface {
	variant() Variant
	eventRange(ctx context.Context) (minEvent, maxEvent uint64, err error)
	index(ctx context.Context, ch timesync.Channel, minEvent, maxEvent uint64) (channelIndex, error)
	readGet(ctx context.Context, event uint64) (*GetEvent, error)
	readFrib(ctx context.Context, event uint64) (*FribEvent, error)
	scalers(ctx context.Context) (*Scalers, error)
}

// channelIndex maps channel ordinals to event numbers and timestamps.
type channelIndex struct {
	events     []uint64
	timestamps []uint64
}

// Reader gives ordinal access to one run container.
type Reader struct {
	run      int
	path     string
	db       *sql.DB
	layout   layout
	minEvent uint64
	maxEvent uint64
	channels [2]channelIndex
}

var _ timesync.TimestampSource = (*Reader)(nil)

// Open opens the container of run in dir, detects its layout and indexes
// both channels.
//
// Returns an error wrapping ErrRunNotFound if the container is absent,
// ErrUnrecognizedFormat if no layout marker is found and ErrMissingField if
// the layout is incomplete.
func Open(ctx context.Context, dir string, run int) (*Reader, error) {
	path := container.RunPath(dir, run)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("run %d (%s): %w", run, path, ErrRunNotFound)
		}
		return nil, fmt.Errorf("run %d: %w", run, err)
	}

	db, err := container.Open(path, container.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("run %d: %w", run, err)
	}

	r := &Reader{run: run, path: path, db: db}
	if err := r.init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run %d: %w", run, err)
	}
	return r, nil
}

func (r *Reader) init(ctx context.Context) error {
	l, err := probe(ctx, r.db)
	if err != nil {
		return err
	}
	r.layout = l

	r.minEvent, r.maxEvent, err = l.eventRange(ctx)
	if err != nil {
		return err
	}

	for _, ch := range []timesync.Channel{timesync.GET, timesync.FRIB} {
		idx, err := l.index(ctx, ch, r.minEvent, r.maxEvent)
		if err != nil {
			return err
		}
		r.channels[ch] = idx
	}
	return nil
}

// probe selects the layout from the container's top-level tables.
func probe(ctx context.Context, db *sql.DB) (layout, error) {
	tables, err := container.Tables(ctx, db)
	if err != nil {
		return nil, err
	}
	switch {
	case tables[container.LegacyMarker]:
		return &legacyLayout{db: db, tables: tables}, nil
	case tables[container.CurrentMarker]:
		return newCurrentLayout(ctx, db, tables)
	default:
		return nil, ErrUnrecognizedFormat
	}
}

// Run returns the run number.
func (r *Reader) Run() int {
	return r.run
}

// Path returns the container path.
func (r *Reader) Path() string {
	return r.path
}

// Variant returns the detected layout.
func (r *Reader) Variant() Variant {
	return r.layout.variant()
}

// EventRange returns the half-open range of event numbers in the container.
func (r *Reader) EventRange() (minEvent, maxEvent uint64) {
	return r.minEvent, r.maxEvent
}

// Len returns the number of events carrying ch.
func (r *Reader) Len(ch timesync.Channel) int {
	if ch != timesync.GET && ch != timesync.FRIB {
		return 0
	}
	return len(r.channels[ch].events)
}

// Timestamp returns the synchronization timestamp of ch at ordinal.
func (r *Reader) Timestamp(ch timesync.Channel, ordinal int) (uint64, error) {
	idx, err := r.lookup(ch, ordinal)
	if err != nil {
		return 0, err
	}
	return r.channels[ch].timestamps[idx], nil
}

// Event returns the container event number of ch at ordinal.
func (r *Reader) Event(ch timesync.Channel, ordinal int) (uint64, error) {
	idx, err := r.lookup(ch, ordinal)
	if err != nil {
		return 0, err
	}
	return r.channels[ch].events[idx], nil
}

func (r *Reader) lookup(ch timesync.Channel, ordinal int) (int, error) {
	if ordinal < 0 || ordinal >= r.Len(ch) {
		return 0, fmt.Errorf("%s ordinal %d: %w", ch, ordinal, timesync.ErrNotFound)
	}
	return ordinal, nil
}

// ReadGet reads the GET part of the event at GET ordinal.
func (r *Reader) ReadGet(ctx context.Context, ordinal int) (*GetEvent, error) {
	event, err := r.Event(timesync.GET, ordinal)
	if err != nil {
		return nil, err
	}
	return r.layout.readGet(ctx, event)
}

// ReadFrib reads the FRIB part of the event at FRIB ordinal.
func (r *Reader) ReadFrib(ctx context.Context, ordinal int) (*FribEvent, error) {
	event, err := r.Event(timesync.FRIB, ordinal)
	if err != nil {
		return nil, err
	}
	return r.layout.readFrib(ctx, event)
}

// Scalers reads every scaler snapshot of the run.
func (r *Reader) Scalers(ctx context.Context) (*Scalers, error) {
	return r.layout.scalers(ctx)
}

// Close releases the container.
func (r *Reader) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// eventNotFound reports a planned event whose channel part is absent.
func eventNotFound(ch timesync.Channel, event uint64) error {
	return fmt.Errorf("%s event %d: %w", ch, event, timesync.ErrNotFound)
}

// fieldInt returns a required integer column as uint64.
func fieldInt(v Variant, field string, n sql.NullInt64) (uint64, error) {
	if !n.Valid {
		return 0, missingField(v, field, nil)
	}
	if n.Int64 < 0 {
		return 0, missingField(v, field, fmt.Errorf("negative value %d", n.Int64))
	}
	return uint64(n.Int64), nil
}

// shape returns a required matrix shape.
func shape(v Variant, field string, rows, cols sql.NullInt64) (int, int, error) {
	r, err := fieldInt(v, field+".rows", rows)
	if err != nil {
		return 0, 0, err
	}
	c, err := fieldInt(v, field+".cols", cols)
	if err != nil {
		return 0, 0, err
	}
	return int(r), int(c), nil
}

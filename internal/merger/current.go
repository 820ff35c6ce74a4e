package merger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/attpc/synchronizer/internal/timesync"
	"github.com/attpc/synchronizer/internal/traces"
)

// currentLayout reads containers with an events table.
type currentLayout struct {
	db     *sql.DB
	tables map[string]bool
	codec  traces.Codec
}

func newCurrentLayout(ctx context.Context, db *sql.DB, tables map[string]bool) (*currentLayout, error) {
	if !tables["events_info"] {
		return nil, missingField(Current, "events_info", nil)
	}

	var name sql.NullString
	err := db.QueryRowContext(ctx, `SELECT trace_codec FROM events_info LIMIT 1`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, missingField(Current, "events_info", err)
	}
	if err != nil {
		return nil, fmt.Errorf("read trace codec: %w", err)
	}
	codec, err := traces.ParseCodec(name.String)
	if err != nil {
		return nil, missingField(Current, "events_info.trace_codec", err)
	}
	return &currentLayout{db: db, tables: tables, codec: codec}, nil
}

func (l *currentLayout) variant() Variant {
	return Current
}

func (l *currentLayout) eventRange(ctx context.Context) (uint64, uint64, error) {
	var minEvent, maxEvent sql.NullInt64
	err := l.db.QueryRowContext(ctx, `SELECT min_event, max_event FROM events_info LIMIT 1`).Scan(&minEvent, &maxEvent)
	if err != nil {
		return 0, 0, missingField(Current, "events_info", err)
	}
	lo, err := fieldInt(Current, "events_info.min_event", minEvent)
	if err != nil {
		return 0, 0, err
	}
	hi, err := fieldInt(Current, "events_info.max_event", maxEvent)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func (l *currentLayout) index(ctx context.Context, ch timesync.Channel, minEvent, maxEvent uint64) (channelIndex, error) {
	var query, field string
	switch ch {
	case timesync.GET:
		field = "get_timestamp_other"
		query = `SELECT event, get_timestamp_other FROM events
			WHERE event >= ? AND event < ? AND get_traces IS NOT NULL
			ORDER BY event ASC`
	case timesync.FRIB:
		field = "frib_timestamp"
		query = `SELECT event, frib_timestamp FROM events
			WHERE event >= ? AND event < ? AND frib_traces IS NOT NULL
			ORDER BY event ASC`
	default:
		return channelIndex{}, fmt.Errorf("unknown channel %s", ch)
	}
	return scanIndex(ctx, l.db, Current, field, query, minEvent, maxEvent)
}

func (l *currentLayout) readGet(ctx context.Context, event uint64) (*GetEvent, error) {
	var id, ts, tsOther, rows, cols sql.NullInt64
	var blob []byte
	err := l.db.QueryRowContext(ctx, `
		SELECT get_id, get_timestamp, get_timestamp_other, get_rows, get_cols, get_traces
		FROM events WHERE event = ?
	`, int64(event)).Scan(&id, &ts, &tsOther, &rows, &cols, &blob)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && blob == nil) {
		return nil, eventNotFound(timesync.GET, event)
	}
	if err != nil {
		return nil, fmt.Errorf("read GET event %d: %w", event, err)
	}

	ev := &GetEvent{Event: event}
	idValue, err := fieldInt(Current, "get_id", id)
	if err != nil {
		return nil, err
	}
	ev.ID = uint32(idValue)
	if ev.Timestamp, err = fieldInt(Current, "get_timestamp", ts); err != nil {
		return nil, err
	}
	if ev.TimestampOther, err = fieldInt(Current, "get_timestamp_other", tsOther); err != nil {
		return nil, err
	}
	r, c, err := shape(Current, "get_traces", rows, cols)
	if err != nil {
		return nil, err
	}
	if ev.Traces, err = traces.DecodeMatrix[int16](blob, r, c, l.codec); err != nil {
		return nil, fmt.Errorf("GET event %d traces: %w", event, err)
	}
	return ev, nil
}

func (l *currentLayout) readFrib(ctx context.Context, event uint64) (*FribEvent, error) {
	var number, ts, rows, cols sql.NullInt64
	var blob, coincidence []byte
	err := l.db.QueryRowContext(ctx, `
		SELECT frib_event, frib_timestamp, frib_rows, frib_cols, frib_traces, frib_coincidence
		FROM events WHERE event = ?
	`, int64(event)).Scan(&number, &ts, &rows, &cols, &blob, &coincidence)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && blob == nil) {
		return nil, eventNotFound(timesync.FRIB, event)
	}
	if err != nil {
		return nil, fmt.Errorf("read FRIB event %d: %w", event, err)
	}
	if coincidence == nil {
		return nil, missingField(Current, "frib_coincidence", nil)
	}

	ev := &FribEvent{Event: event}
	n, err := fieldInt(Current, "frib_event", number)
	if err != nil {
		return nil, err
	}
	ev.EventNumber = uint32(n)
	t, err := fieldInt(Current, "frib_timestamp", ts)
	if err != nil {
		return nil, err
	}
	ev.Timestamp = uint32(t)
	r, c, err := shape(Current, "frib_traces", rows, cols)
	if err != nil {
		return nil, err
	}
	if ev.Traces, err = traces.DecodeMatrix[uint16](blob, r, c, l.codec); err != nil {
		return nil, fmt.Errorf("FRIB event %d traces: %w", event, err)
	}
	if ev.Coincidence, err = traces.Decode[uint16](coincidence, l.codec); err != nil {
		return nil, fmt.Errorf("FRIB event %d coincidence: %w", event, err)
	}
	return ev, nil
}

func (l *currentLayout) scalers(ctx context.Context) (*Scalers, error) {
	if !l.tables["scalers_info"] || !l.tables["scalers"] {
		return nil, missingField(Current, "scalers", nil)
	}

	var minEvent, maxEvent uint32
	err := l.db.QueryRowContext(ctx, `SELECT min_event, max_event FROM scalers_info LIMIT 1`).Scan(&minEvent, &maxEvent)
	if err != nil {
		return nil, missingField(Current, "scalers_info", err)
	}

	entries, err := scanScalers(ctx, l.db, `
		SELECT event, data, start_offset, stop_offset, timestamp, incremental
		FROM scalers WHERE event >= ? AND event <= ?
		ORDER BY event ASC
	`, minEvent, maxEvent)
	if err != nil {
		return nil, err
	}
	return &Scalers{MinEvent: minEvent, MaxEvent: maxEvent, Entries: entries}, nil
}

// scanIndex runs an (event, timestamp) query and builds a channel index.
func scanIndex(ctx context.Context, db *sql.DB, v Variant, field, query string, minEvent, maxEvent uint64) (channelIndex, error) {
	rows, err := db.QueryContext(ctx, query, int64(minEvent), int64(maxEvent))
	if err != nil {
		return channelIndex{}, fmt.Errorf("index %s: %w", field, err)
	}
	defer rows.Close()

	var idx channelIndex
	for rows.Next() {
		var event int64
		var ts sql.NullInt64
		if err := rows.Scan(&event, &ts); err != nil {
			return channelIndex{}, fmt.Errorf("scan %s: %w", field, err)
		}
		value, err := fieldInt(v, field, ts)
		if err != nil {
			return channelIndex{}, fmt.Errorf("event %d: %w", event, err)
		}
		idx.events = append(idx.events, uint64(event))
		idx.timestamps = append(idx.timestamps, value)
	}
	if err := rows.Err(); err != nil {
		return channelIndex{}, fmt.Errorf("iterate %s: %w", field, err)
	}
	return idx, nil
}

// scanScalers reads scaler rows; data blobs are always raw.
func scanScalers(ctx context.Context, db *sql.DB, query string, args ...any) ([]Scaler, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scalers: %w", err)
	}
	defer rows.Close()

	entries := []Scaler{}
	for rows.Next() {
		var s Scaler
		var blob []byte
		if err := rows.Scan(&s.Event, &blob, &s.StartOffset, &s.StopOffset, &s.Timestamp, &s.Incremental); err != nil {
			return nil, fmt.Errorf("scan scaler: %w", err)
		}
		if s.Data, err = traces.Decode[uint32](blob, traces.Raw); err != nil {
			return nil, fmt.Errorf("scaler %d data: %w", s.Event, err)
		}
		entries = append(entries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scalers: %w", err)
	}
	return entries, nil
}

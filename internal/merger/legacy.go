package merger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/attpc/synchronizer/internal/timesync"
	"github.com/attpc/synchronizer/internal/traces"
)

// legacyLayout reads containers with a meta table. Legacy blobs are never
// compressed and GET headers are stored as floating point.
type legacyLayout struct {
	db     *sql.DB
	tables map[string]bool
}

func (l *legacyLayout) variant() Variant {
	return Legacy
}

// eventRange reads meta[0] (first event) and meta[2] (end event).
func (l *legacyLayout) eventRange(ctx context.Context) (uint64, uint64, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT idx, value FROM meta WHERE idx IN (0, 2)`)
	if err != nil {
		return 0, 0, missingField(Legacy, "meta", err)
	}
	defer rows.Close()

	values := make(map[int]int64, 2)
	for rows.Next() {
		var idx int
		var value int64
		if err := rows.Scan(&idx, &value); err != nil {
			return 0, 0, fmt.Errorf("scan meta: %w", err)
		}
		values[idx] = value
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("iterate meta: %w", err)
	}

	for _, idx := range []int{0, 2} {
		v, ok := values[idx]
		if !ok || v < 0 {
			return 0, 0, missingField(Legacy, fmt.Sprintf("meta[%d]", idx), nil)
		}
	}
	return uint64(values[0]), uint64(values[2]), nil
}

func (l *legacyLayout) index(ctx context.Context, ch timesync.Channel, minEvent, maxEvent uint64) (channelIndex, error) {
	switch ch {
	case timesync.GET:
		if !l.tables["get_events"] {
			return channelIndex{}, missingField(Legacy, "get_events", nil)
		}
		return scanIndex(ctx, l.db, Legacy, "get_events.header_timestamp_other", `
			SELECT event, CAST(header_timestamp_other AS INTEGER) FROM get_events
			WHERE event >= ? AND event < ?
			ORDER BY event ASC`, minEvent, maxEvent)
	case timesync.FRIB:
		if !l.tables["frib_events"] {
			return channelIndex{}, missingField(Legacy, "frib_events", nil)
		}
		return scanIndex(ctx, l.db, Legacy, "frib_events.header_timestamp", `
			SELECT event, header_timestamp FROM frib_events
			WHERE event >= ? AND event < ?
			ORDER BY event ASC`, minEvent, maxEvent)
	default:
		return channelIndex{}, fmt.Errorf("unknown channel %s", ch)
	}
}

func (l *legacyLayout) readGet(ctx context.Context, event uint64) (*GetEvent, error) {
	var id, ts, tsOther, rows, cols sql.NullInt64
	var blob []byte
	err := l.db.QueryRowContext(ctx, `
		SELECT CAST(header_id AS INTEGER), CAST(header_timestamp AS INTEGER),
		       CAST(header_timestamp_other AS INTEGER), trace_rows, trace_cols, data
		FROM get_events WHERE event = ?
	`, int64(event)).Scan(&id, &ts, &tsOther, &rows, &cols, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eventNotFound(timesync.GET, event)
	}
	if err != nil {
		return nil, fmt.Errorf("read GET event %d: %w", event, err)
	}

	ev := &GetEvent{Event: event}
	idValue, err := fieldInt(Legacy, "get_events.header_id", id)
	if err != nil {
		return nil, err
	}
	ev.ID = uint32(idValue)
	if ev.Timestamp, err = fieldInt(Legacy, "get_events.header_timestamp", ts); err != nil {
		return nil, err
	}
	if ev.TimestampOther, err = fieldInt(Legacy, "get_events.header_timestamp_other", tsOther); err != nil {
		return nil, err
	}
	r, c, err := shape(Legacy, "get_events.data", rows, cols)
	if err != nil {
		return nil, err
	}
	if ev.Traces, err = traces.DecodeMatrix[int16](blob, r, c, traces.Raw); err != nil {
		return nil, fmt.Errorf("GET event %d traces: %w", event, err)
	}
	return ev, nil
}

func (l *legacyLayout) readFrib(ctx context.Context, event uint64) (*FribEvent, error) {
	var number, ts, rows, cols sql.NullInt64
	var blob, coincidence []byte
	err := l.db.QueryRowContext(ctx, `
		SELECT header_event, header_timestamp, rows_1903, cols_1903, data_1903, data_977
		FROM frib_events WHERE event = ?
	`, int64(event)).Scan(&number, &ts, &rows, &cols, &blob, &coincidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eventNotFound(timesync.FRIB, event)
	}
	if err != nil {
		return nil, fmt.Errorf("read FRIB event %d: %w", event, err)
	}
	if coincidence == nil {
		return nil, missingField(Legacy, "frib_events.data_977", nil)
	}

	ev := &FribEvent{Event: event}
	n, err := fieldInt(Legacy, "frib_events.header_event", number)
	if err != nil {
		return nil, err
	}
	ev.EventNumber = uint32(n)
	t, err := fieldInt(Legacy, "frib_events.header_timestamp", ts)
	if err != nil {
		return nil, err
	}
	ev.Timestamp = uint32(t)
	r, c, err := shape(Legacy, "frib_events.data_1903", rows, cols)
	if err != nil {
		return nil, err
	}
	if ev.Traces, err = traces.DecodeMatrix[uint16](blob, r, c, traces.Raw); err != nil {
		return nil, fmt.Errorf("FRIB event %d traces: %w", event, err)
	}
	if ev.Coincidence, err = traces.Decode[uint16](coincidence, traces.Raw); err != nil {
		return nil, fmt.Errorf("FRIB event %d coincidence: %w", event, err)
	}
	return ev, nil
}

// scalers copies snapshots numbered from 0 until the first gap.
func (l *legacyLayout) scalers(ctx context.Context) (*Scalers, error) {
	if !l.tables["frib_scalers"] {
		return nil, missingField(Legacy, "frib_scalers", nil)
	}

	all, err := scanScalers(ctx, l.db, `
		SELECT scaler, data, start_offset, stop_offset, timestamp, incremental
		FROM frib_scalers ORDER BY scaler ASC
	`)
	if err != nil {
		return nil, err
	}

	entries := []Scaler{}
	for i, s := range all {
		if s.Event != uint32(i) {
			break
		}
		entries = append(entries, s)
	}
	return &Scalers{MinEvent: 0, MaxEvent: uint32(len(entries)), Entries: entries}, nil
}

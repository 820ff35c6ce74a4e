package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/attpc/synchronizer/internal/container"
	"github.com/attpc/synchronizer/internal/traces"
)

// Layout selects the container layout a fixture is written in.
type Layout int

const (
	// Current writes an events table.
	Current Layout = iota
	// Legacy writes a meta table with per-channel tables.
	Legacy
)

// Fixture trace shapes.
const (
	GetRows  = 2
	GetCols  = 4
	FribRows = 2
	FribCols = 3
)

// Run describes a synthetic merger run.
//
// Get and Frib hold the synchronization timestamps of each channel by
// ordinal. Events are numbered from MinEvent. Event offsets listed in
// GetGaps or FribGaps carry no part of that channel, so later parts of the
// channel move to the next event.
type Run struct {
	Number   int
	Layout   Layout
	MinEvent uint64
	Get      []uint64
	Frib     []uint64
	GetGaps  []int
	FribGaps []int
	Scalers  int
	Codec    traces.Codec
}

// Placement is where each channel part of a fixture was written.
type Placement struct {
	GetEvents  []uint64
	FribEvents []uint64
	MaxEvent   uint64
}

// Place computes the event number of every channel part.
func (r Run) Place() Placement {
	getGaps := toSet(r.GetGaps)
	fribGaps := toSet(r.FribGaps)

	var p Placement
	gi, fi := 0, 0
	offset := 0
	for gi < len(r.Get) || fi < len(r.Frib) {
		event := r.MinEvent + uint64(offset)
		if gi < len(r.Get) && !getGaps[offset] {
			p.GetEvents = append(p.GetEvents, event)
			gi++
		}
		if fi < len(r.Frib) && !fribGaps[offset] {
			p.FribEvents = append(p.FribEvents, event)
			fi++
		}
		offset++
	}
	p.MaxEvent = r.MinEvent + uint64(offset)
	return p
}

// WriteRun writes the fixture container into dir and returns its path.
func WriteRun(t testing.TB, dir string, r Run) string {
	t.Helper()

	path := container.RunPath(dir, r.Number)
	db, err := container.Open(path, container.ReadWrite)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	if r.Layout == Legacy {
		require.NoError(t, container.CreateLegacy(ctx, db))
	} else {
		require.NoError(t, container.CreateCurrent(ctx, db))
	}

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	if r.Layout == Legacy {
		writeLegacy(t, tx, r)
	} else {
		writeCurrent(t, tx, r)
	}
	require.NoError(t, tx.Commit())
	return path
}

func writeCurrent(t testing.TB, tx *sql.Tx, r Run) {
	codec := r.Codec
	if codec == "" {
		codec = traces.Raw
	}
	p := r.Place()

	_, err := tx.Exec(`INSERT INTO events_info (min_event, max_event, version, trace_codec) VALUES (?, ?, ?, ?)`,
		int64(r.MinEvent), int64(p.MaxEvent), "merger:0.2.0", string(codec))
	require.NoError(t, err)

	for event := r.MinEvent; event < p.MaxEvent; event++ {
		_, err := tx.Exec(`INSERT INTO events (event) VALUES (?)`, int64(event))
		require.NoError(t, err)
	}

	for i, event := range p.GetEvents {
		blob, err := traces.EncodeMatrix(GetTraces(i), codec)
		require.NoError(t, err)
		_, err = tx.Exec(`
			UPDATE events SET get_id = ?, get_timestamp = ?, get_timestamp_other = ?,
			       get_rows = ?, get_cols = ?, get_traces = ?
			WHERE event = ?`,
			i, int64(GetHeaderTimestamp(r.Get[i])), int64(r.Get[i]), GetRows, GetCols, blob, int64(event))
		require.NoError(t, err)
	}

	for i, event := range p.FribEvents {
		blob, err := traces.EncodeMatrix(FribTraces(i), codec)
		require.NoError(t, err)
		coincidence, err := traces.Encode(Coincidence(i), codec)
		require.NoError(t, err)
		_, err = tx.Exec(`
			UPDATE events SET frib_event = ?, frib_timestamp = ?, frib_rows = ?, frib_cols = ?,
			       frib_traces = ?, frib_coincidence = ?
			WHERE event = ?`,
			FribEventNumber(i), int64(r.Frib[i]), FribRows, FribCols, blob, coincidence, int64(event))
		require.NoError(t, err)
	}

	if r.Scalers > 0 {
		_, err := tx.Exec(`INSERT INTO scalers_info (min_event, max_event) VALUES (?, ?)`, 0, r.Scalers-1)
		require.NoError(t, err)
		for i := 0; i < r.Scalers; i++ {
			insertScaler(t, tx, `INSERT INTO scalers (event, data, start_offset, stop_offset, timestamp, incremental) VALUES (?, ?, ?, ?, ?, ?)`, i)
		}
	}
}

func writeLegacy(t testing.TB, tx *sql.Tx, r Run) {
	p := r.Place()

	for idx, value := range []uint64{r.MinEvent, uint64(r.Number), p.MaxEvent} {
		_, err := tx.Exec(`INSERT INTO meta (idx, value) VALUES (?, ?)`, idx, int64(value))
		require.NoError(t, err)
	}

	for i, event := range p.GetEvents {
		blob, err := traces.EncodeMatrix(GetTraces(i), traces.Raw)
		require.NoError(t, err)
		_, err = tx.Exec(`
			INSERT INTO get_events (event, header_id, header_timestamp, header_timestamp_other, trace_rows, trace_cols, data)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			int64(event), float64(i), float64(GetHeaderTimestamp(r.Get[i])), float64(r.Get[i]), GetRows, GetCols, blob)
		require.NoError(t, err)
	}

	for i, event := range p.FribEvents {
		blob, err := traces.EncodeMatrix(FribTraces(i), traces.Raw)
		require.NoError(t, err)
		coincidence, err := traces.Encode(Coincidence(i), traces.Raw)
		require.NoError(t, err)
		_, err = tx.Exec(`
			INSERT INTO frib_events (event, header_event, header_timestamp, rows_1903, cols_1903, data_1903, data_977)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			int64(event), FribEventNumber(i), int64(r.Frib[i]), FribRows, FribCols, blob, coincidence)
		require.NoError(t, err)
	}

	for i := 0; i < r.Scalers; i++ {
		insertScaler(t, tx, `INSERT INTO frib_scalers (scaler, data, start_offset, stop_offset, timestamp, incremental) VALUES (?, ?, ?, ?, ?, ?)`, i)
	}
}

func insertScaler(t testing.TB, tx *sql.Tx, query string, i int) {
	blob, err := traces.Encode(ScalerData(i), traces.Raw)
	require.NoError(t, err)
	_, err = tx.Exec(query, i, blob, 10*i, 10*i+5, 1000+i, i%2)
	require.NoError(t, err)
}

// GetTraces returns the trace matrix written for GET ordinal i.
func GetTraces(i int) traces.Matrix[int16] {
	data := make([]int16, GetRows*GetCols)
	for k := range data {
		data[k] = int16(i*100 + k - 3)
	}
	return traces.Matrix[int16]{Rows: GetRows, Cols: GetCols, Data: data}
}

// FribTraces returns the module 1903 matrix written for FRIB ordinal i.
func FribTraces(i int) traces.Matrix[uint16] {
	data := make([]uint16, FribRows*FribCols)
	for k := range data {
		data[k] = uint16(i*10 + k)
	}
	return traces.Matrix[uint16]{Rows: FribRows, Cols: FribCols, Data: data}
}

// Coincidence returns the module 977 register written for FRIB ordinal i.
func Coincidence(i int) []uint16 {
	return []uint16{uint16(i), 0xff}
}

// GetHeaderTimestamp derives the GET header timestamp from timestamp_other.
func GetHeaderTimestamp(other uint64) uint64 {
	return other + 1
}

// FribEventNumber returns the FRIB header event number of ordinal i.
func FribEventNumber(i int) uint32 {
	return uint32(i + 1)
}

// ScalerData returns the counters of scaler snapshot i.
func ScalerData(i int) []uint32 {
	return []uint32{uint32(i), uint32(i * 2), uint32(i * 3)}
}

func toSet(values []int) map[int]bool {
	set := make(map[int]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

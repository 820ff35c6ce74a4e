package merger

import "github.com/attpc/synchronizer/internal/traces"

// GetEvent is the GET part of a merged event.
type GetEvent struct {
	Event          uint64
	Traces         traces.Matrix[int16]
	ID             uint32
	Timestamp      uint64
	TimestampOther uint64
}

// FribEvent is the FRIB physics part of a merged event.
type FribEvent struct {
	Event       uint64
	Traces      traces.Matrix[uint16] // module 1903
	Coincidence []uint16              // module 977
	EventNumber uint32
	Timestamp   uint32
}

// Scaler is one periodic counter snapshot.
type Scaler struct {
	Event       uint32
	Data        []uint32
	StartOffset uint32
	StopOffset  uint32
	Timestamp   uint32
	Incremental uint32
}

// Scalers holds all scaler snapshots of a run and their event range.
type Scalers struct {
	MinEvent uint32
	MaxEvent uint32
	Entries  []Scaler
}

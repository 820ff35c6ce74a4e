// Package timesync reconstructs a single event ordering from two
// independently clocked acquisition streams (GET and FRIB).
//
// The engine is a pipeline of pure functions over values materialized in
// memory:
//
//	Series -> DeltaSeries -> Alignment -> Plan
//
// Collect reads a channel from a TimestampSource into a Series. Deltas
// turns it into inter-event intervals. Locate decides whether the first
// events of both channels are co-temporal and, if not, searches for the
// first index pair where the interval patterns agree. BuildPlan walks both
// delta sequences forward from that pair and emits the matched index pairs.
//
// The walk is greedy and one-directional: it only ever advances the FRIB
// index faster than the GET index. An event seen only by FRIB is skipped;
// an event seen only by GET is not compensated.
//
// Nothing in this package blocks, allocates shared state or takes a
// context. Different runs may be synchronized concurrently.
package timesync

// Package merger reads the per-run containers produced by the merger.
//
// Open probes the container once and binds it to one of two layouts
// (legacy or current). After Open succeeds the Reader always has a valid
// layout; there is no "unknown" state to check at read time.
//
// A Reader implements timesync.TimestampSource. Ordinals are dense per
// channel: GET ordinal k is the k-th event, in event order, that carries a
// GET part. The GET synchronization timestamp is timestamp_other; the FRIB
// one is the FRIB header timestamp.
package merger

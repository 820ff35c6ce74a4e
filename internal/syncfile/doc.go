// Package syncfile writes synchronized run containers.
//
// A Writer stages its output in run_NNNN.db.partial. Events are appended in
// plan order inside one transaction, renumbered from 0, and keep the event
// numbers they had in the merger container. Finalize stamps the summary
// (event count, sync id, plan digest, skips, anomalies), commits and
// renames the file into place; Abort discards it. A reader never sees a
// half-written container under the final name.
//
// Output always uses the current container layout with zstd trace blobs by
// default, so synchronized runs can be opened again by merger.Open.
package syncfile

// Package container opens the SQLite files that hold one acquisition run.
//
// Both the merger input and the synchronized output are single-file SQLite
// databases named run_NNNN.db. The schema variant of an input file is
// detected from its top-level tables:
//
//   - meta:   legacy layout, one table per channel
//   - events: current layout, one row per merged event
//
// The output of the synchronizer always uses the current layout.
//
// # Database Configuration
//
//   - Read-only inputs are opened with mode=ro and query_only
//   - Outputs use journal_mode=DELETE and synchronous=NORMAL
//   - busy_timeout=5000 for both
package container

// Package testutil provides fixtures shared by package tests.
//
// Run builds merger containers in either layout from plain timestamp
// series, so reader, writer and runner tests exercise real SQLite files.
// The trace payload of every event is derived from its channel ordinal,
// which lets tests check that the right event landed in the right place.
package testutil

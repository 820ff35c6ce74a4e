package container

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// RunFileName returns the container file name for a run number.
func RunFileName(run int) string {
	return fmt.Sprintf("run_%04d.db", run)
}

// RunPath joins a data directory and the container name of run.
func RunPath(dir string, run int) string {
	return filepath.Join(dir, RunFileName(run))
}

// Mode selects how a container is opened.
type Mode int

const (
	// ReadOnly opens an existing container without write access.
	ReadOnly Mode = iota
	// ReadWrite opens or creates a container.
	ReadWrite
)

// Open opens a container database and applies the pragmas for mode.
func Open(path string, mode Mode) (*sql.DB, error) {
	dsn := path
	if mode == ReadOnly {
		dsn = "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open container: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to container: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, mode); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return db, nil
}

func applyPragmas(db *sql.DB, mode Mode) error {
	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if mode == ReadOnly {
		pragmas = append(pragmas, "PRAGMA query_only = ON")
	} else {
		pragmas = append(pragmas,
			// Rollback journal: containers are reopened read-only after close.
			"PRAGMA journal_mode = DELETE",
			"PRAGMA synchronous = NORMAL",
		)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Tables returns the names of all user tables in the container.
func Tables(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

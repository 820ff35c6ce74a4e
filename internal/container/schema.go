package container

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed current.sql
var currentSQL string

//go:embed legacy.sql
var legacySQL string

// Marker tables that identify the layout of a container.
const (
	LegacyMarker  = "meta"
	CurrentMarker = "events"
)

// CreateCurrent creates the current layout tables. It is idempotent.
func CreateCurrent(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, currentSQL); err != nil {
		return fmt.Errorf("create current schema: %w", err)
	}
	return nil
}

// CreateLegacy creates the legacy layout tables. It is idempotent.
func CreateLegacy(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, legacySQL); err != nil {
		return fmt.Errorf("create legacy schema: %w", err)
	}
	return nil
}

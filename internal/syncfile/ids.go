package syncfile

import "github.com/google/uuid"

// IDGenerator supplies the sync id stamped on each output container.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 sync ids.
//
// Ids of containers written later sort after earlier ones, which makes
// reprocessed runs easy to tell apart.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 in hyphenated form.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

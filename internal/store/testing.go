package store

import (
	"database/sql"
	"fmt"
)

// OpenInMemory opens a migrated in-memory database.
// This is only intended for use in tests.
func OpenInMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	return setup(sqlDB)
}

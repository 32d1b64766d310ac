package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is the version written to store_metadata by CreateSchema.
const SchemaVersion = "1"

// CreateSchema creates all tables and indexes for the diagram store.
// Uses transactions for atomicity - all schema creation succeeds or fails together.
// Safe to call on an existing database.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"diagrams", createDiagramsTable},
		{"diagram_usage", createDiagramUsageTable},
		{"store_metadata", createStoreMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	bootstrapSQL := `
		INSERT INTO store_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)
		ON CONFLICT(key) DO NOTHING
	`
	if _, err := tx.Exec(bootstrapSQL, SchemaVersion, now); err != nil {
		return fmt.Errorf("failed to bootstrap store_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion retrieves the schema version from store_metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='store_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check store_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM store_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in store_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// Table DDL constants

const createDiagramsTable = `
CREATE TABLE IF NOT EXISTS diagrams (
    diagram_id TEXT PRIMARY KEY,                 -- UUID
    repository TEXT NOT NULL,                    -- owner/repo or local path
    user_id TEXT NOT NULL,
    models TEXT NOT NULL,                        -- JSON array of models
    model_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (repository, user_id)
)
`

const createDiagramUsageTable = `
CREATE TABLE IF NOT EXISTS diagram_usage (
    user_id TEXT NOT NULL,
    date TEXT NOT NULL,                          -- YYYY-MM-DD, UTC
    generations INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, date)
)
`

const createStoreMetadataTable = `
CREATE TABLE IF NOT EXISTS store_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_diagrams_user_updated ON diagrams(user_id, updated_at DESC)`,
}

// Package db manages the SQLite connection holding recording metadata.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Register driver
)

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
}

// Init opens the database and runs migrations.
func Init(path string) (*DB, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Enable WAL mode for better concurrency and set busy timeout
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000;"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	d := &DB{db}
	// Enforce single connection to avoid SQLITE_BUSY errors during concurrent writes
	db.SetMaxOpenConns(1)

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return d, nil
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS audio_assets (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			audio_url TEXT NOT NULL,
			voice_id TEXT NOT NULL,
			voice_name TEXT,
			category TEXT NOT NULL DEFAULT 'vocabulary',
			lesson_id TEXT,
			file_name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		// Duplicate (text, voice_id) rows are allowed; lookups order by
		// created_at and take the newest.
		`CREATE INDEX IF NOT EXISTS idx_audio_assets_text ON audio_assets(text, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_audio_assets_lesson ON audio_assets(lesson_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_audio_assets_category ON audio_assets(category, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_audio_assets_file ON audio_assets(file_name);`,
	}

	for _, q := range queries {
		if _, err := d.Exec(q); err != nil {
			return fmt.Errorf("exec error: %w query: %s", err, q)
		}
	}

	return nil
}

package resolve

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteCache persists resolved references in a local sqlite database so
// repeated runs skip remote searches for references that already resolved.
type SQLiteCache struct {
	db   *sql.DB
	path string
}

// OpenCache initializes or connects to the cache database.
func OpenCache(path string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS resolutions (
        machine_id TEXT NOT NULL,
        library    TEXT NOT NULL,
        reference  TEXT NOT NULL,
        rating_key TEXT NOT NULL,
        resolved_at TEXT NOT NULL,
        PRIMARY KEY (machine_id, library, reference)
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}

	return &SQLiteCache{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached rating key for a reference, if present.
func (c *SQLiteCache) Get(machineID, library, reference string) (string, bool, error) {
	var ratingKey string
	err := c.db.QueryRow(
		`SELECT rating_key FROM resolutions WHERE machine_id = ? AND library = ? AND reference = ?`,
		machineID, library, reference,
	).Scan(&ratingKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	return ratingKey, true, nil
}

// Put records a resolution, replacing any previous entry.
func (c *SQLiteCache) Put(machineID, library, reference, ratingKey string) error {
	_, err := c.db.Exec(
		`INSERT INTO resolutions (machine_id, library, reference, rating_key, resolved_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (machine_id, library, reference) DO UPDATE SET
             rating_key = excluded.rating_key,
             resolved_at = excluded.resolved_at`,
		machineID, library, reference, ratingKey, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Delete drops a stale entry.
func (c *SQLiteCache) Delete(machineID, library, reference string) error {
	_, err := c.db.Exec(
		`DELETE FROM resolutions WHERE machine_id = ? AND library = ? AND reference = ?`,
		machineID, library, reference,
	)
	if err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

package probecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS durations (
    path     TEXT PRIMARY KEY,
    size     INTEGER NOT NULL,
    mtime_ns INTEGER NOT NULL,
    seconds  REAL NOT NULL
);
`

// Cache stores probed durations keyed by file identity.
type Cache struct {
	db   *sql.DB
	path string
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open probe cache: %w", err)
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
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create probe cache schema: %w", err)
	}
	return &Cache{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the on-disk location of the cache database.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Get returns the cached duration for the file at path if its size and
// modification time still match.
func (c *Cache) Get(ctx context.Context, path string) (float64, bool, error) {
	if c == nil {
		return 0, false, nil
	}
	size, mtime, err := fileIdentity(path)
	if err != nil {
		return 0, false, err
	}

	var seconds float64
	var cachedSize, cachedMtime int64
	row := c.db.QueryRowContext(ctx, "SELECT size, mtime_ns, seconds FROM durations WHERE path = ?", path)
	if err := row.Scan(&cachedSize, &cachedMtime, &seconds); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read probe cache: %w", err)
	}
	if cachedSize != size || cachedMtime != mtime {
		return 0, false, nil
	}
	return seconds, true, nil
}

// Put records the probed duration for the file at path.
func (c *Cache) Put(ctx context.Context, path string, seconds float64) error {
	if c == nil {
		return nil
	}
	size, mtime, err := fileIdentity(path)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO durations (path, size, mtime_ns, seconds) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET size = excluded.size, mtime_ns = excluded.mtime_ns, seconds = excluded.seconds`,
		path, size, mtime, seconds)
	if err != nil {
		return fmt.Errorf("write probe cache: %w", err)
	}
	return nil
}

func fileIdentity(path string) (size int64, mtimeNS int64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), info.ModTime().UnixNano(), nil
}

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// DatabaseName is the file created inside the cache directory.
const DatabaseName = "index.db"

const schemaVersion = "1"

const createIndexesTable = `
CREATE TABLE IF NOT EXISTS indexes (
	cache_key    TEXT PRIMARY KEY,
	root         TEXT NOT NULL,
	family       TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	files        INTEGER NOT NULL,
	payload      BLOB NOT NULL,
	updated_at   TEXT NOT NULL
)`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS cache_metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Entry describes one cached index.
type Entry struct {
	Key         string    `json:"key"`
	Root        string    `json:"root"`
	Family      string    `json:"family"`
	Fingerprint string    `json:"fingerprint"`
	Files       int       `json:"files"`
	SizeBytes   int       `json:"size_bytes"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Cache stores serialized project indexes in a SQLite database keyed by
// project root and family.
type Cache struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the cache database under dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, DatabaseName)

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY within the process.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db, path: dbPath}, nil
}

// Path returns the database file location.
func (c *Cache) Path() string {
	return c.path
}

func createSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"indexes", createIndexesTable},
		{"cache_metadata", createMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO cache_metadata (key, value) VALUES ('schema_version', ?)`,
		schemaVersion,
	); err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// Get returns the cached index for (root, family) when its fingerprint
// matches. A stale or missing entry is a miss, not an error.
func (c *Cache) Get(ctx context.Context, root, family, fingerprint string) (*extraction.ProjectIndex, bool, error) {
	key, err := GetCacheKey(root, family)
	if err != nil {
		return nil, false, err
	}

	var stored string
	var payload []byte
	err = c.db.QueryRowContext(ctx,
		`SELECT fingerprint, payload FROM indexes WHERE cache_key = ?`, key,
	).Scan(&stored, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cache: %w", err)
	}
	if stored != fingerprint {
		return nil, false, nil
	}

	idx := extraction.NewProjectIndex()
	if err := json.Unmarshal(payload, idx); err != nil {
		// A corrupt row behaves like a miss and is overwritten by the next Put.
		return nil, false, nil
	}
	return idx, true, nil
}

// Put stores the index for (root, family), replacing any previous entry.
func (c *Cache) Put(ctx context.Context, root, family, fingerprint string, idx *extraction.ProjectIndex) error {
	key, err := GetCacheKey(root, family)
	if err != nil {
		return err
	}
	abs, _ := filepath.Abs(root)

	payload, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO indexes (cache_key, root, family, fingerprint, files, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			files       = excluded.files,
			payload     = excluded.payload,
			updated_at  = excluded.updated_at`,
		key, abs, family, fingerprint, idx.Summary.Files, payload,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to store index: %w", err)
	}
	return nil
}

// List returns every cached entry, most recently updated first.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT cache_key, root, family, fingerprint, files, length(payload), updated_at
		FROM indexes
		ORDER BY updated_at DESC, cache_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var updated string
		if err := rows.Scan(&e.Key, &e.Root, &e.Family, &e.Fingerprint, &e.Files, &e.SizeBytes, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes cached entries. With an empty root every entry is removed;
// otherwise only the entries of that root. It returns the number removed.
func (c *Cache) Clear(ctx context.Context, root string) (int, error) {
	var res sql.Result
	var err error
	if root == "" {
		res, err = c.db.ExecContext(ctx, `DELETE FROM indexes`)
	} else {
		abs, absErr := filepath.Abs(root)
		if absErr != nil {
			return 0, fmt.Errorf("failed to resolve project path: %w", absErr)
		}
		res, err = c.db.ExecContext(ctx, `DELETE FROM indexes WHERE root = ?`, abs)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Package store provides the persistent layers under the search engine:
// the SQLite archive database that the record index is projected from,
// and the bleve excerpt index that supplies extra document candidates.
package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	archerr "github.com/openarchive/unisearch/internal/errors"
)

// dateLayout is the storage format for archive dates.
const dateLayout = "2006-01-02"

// Archive wraps the SQLite database holding the entity, document and
// news collections.
type Archive struct {
	db   *sql.DB
	path string
}

// OpenArchive opens the archive database at path, creating the schema
// when missing. The connection pool is limited to a single connection;
// SQLite handles one writer and the index rebuild is the only reader.
func OpenArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, archerr.IOError(archerr.ErrCodeArchiveOpen, "create archive directory", err).
			WithDetail("path", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, archerr.IOError(archerr.ErrCodeArchiveOpen, "open archive database", err).
			WithDetail("path", path)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL must be set via PRAGMA; modernc.org/sqlite ignores DSN params.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, archerr.IOError(archerr.ErrCodeArchiveOpen, "set pragma", err).
				WithDetail("pragma", pragma)
		}
	}

	if err := InitArchiveSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Archive{db: db, path: path}, nil
}

// InitArchiveSchema creates the archive tables if they do not exist.
func InitArchiveSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		aliases TEXT NOT NULL DEFAULT '[]',
		entity_type TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		filename TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		doc_type TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		doc_date TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_documents_date ON documents(doc_date);

	CREATE TABLE IF NOT EXISTS news (
		id TEXT PRIMARY KEY,
		headline TEXT NOT NULL,
		excerpt TEXT NOT NULL DEFAULT '',
		publication TEXT NOT NULL DEFAULT '',
		published_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_news_published ON news(published_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return archerr.IOError(archerr.ErrCodeArchiveOpen, "create archive schema", err)
	}
	return nil
}

// DB exposes the underlying connection for collaborators sharing the
// database file (the analytics store).
func (a *Archive) DB() *sql.DB {
	return a.db
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.path
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// parseDate converts a nullable stored date into a timestamp pointer.
// Unparseable values are treated as absent.
func parseDate(value sql.NullString) *time.Time {
	if !value.Valid || value.String == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, value.String)
	if err != nil {
		return nil
	}
	return &t
}

// decodeAliases parses the JSON alias array, dropping empty entries.
func decodeAliases(raw string) []string {
	if raw == "" {
		return nil
	}
	var aliases []string
	if err := json.Unmarshal([]byte(raw), &aliases); err != nil {
		return nil
	}
	out := aliases[:0]
	for _, a := range aliases {
		if a != "" {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

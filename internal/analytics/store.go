package analytics

import (
	"database/sql"
	"encoding/json"

	archerr "github.com/openarchive/unisearch/internal/errors"
)

// Store persists the analytics snapshot as one structured document.
// Writes happen on periodic or shutdown flushes, never on the search
// hot path.
type Store interface {
	// Save replaces the persisted snapshot.
	Save(state State) error

	// Load returns the persisted snapshot, or nil when none exists.
	Load() (*State, error)

	// Close releases resources.
	Close() error
}

// SQLiteStore implements Store over a single-row SQLite table holding
// the snapshot as a JSON document.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over an open database. The analytics
// schema must already exist (see InitAnalyticsSchema). The db is shared
// and not closed by Close.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, archerr.InternalError("database connection is required", nil)
	}
	return &SQLiteStore{db: db}, nil
}

// InitAnalyticsSchema creates the analytics table if it does not exist.
func InitAnalyticsSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analytics_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return archerr.IOError(archerr.ErrCodeAnalyticsIO, "create analytics schema", err)
	}
	return nil
}

// Save upserts the snapshot document.
func (s *SQLiteStore) Save(state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return archerr.InternalError("marshal analytics state", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO analytics_state (id, payload, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, string(payload))
	if err != nil {
		return archerr.IOError(archerr.ErrCodeAnalyticsIO, "save analytics state", err)
	}
	return nil
}

// Load reads the snapshot document. A missing row is not an error.
func (s *SQLiteStore) Load() (*State, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM analytics_state WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, archerr.IOError(archerr.ErrCodeAnalyticsIO, "load analytics state", err)
	}

	var state State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, archerr.IOError(archerr.ErrCodeAnalyticsIO, "decode analytics state", err)
	}
	return &state, nil
}

// Close releases resources. The db is shared with the archive store and
// stays open.
func (s *SQLiteStore) Close() error {
	return nil
}

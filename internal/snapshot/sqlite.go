package snapshot

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default persistent backend: a single-file database
// with no external service.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The store is single-writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	inner, err := newSQLStore(db, sqlQueries{
		create: `CREATE TABLE IF NOT EXISTS ranking_snapshot (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		get:   `SELECT data FROM ranking_snapshot WHERE id = 1`,
		put:   `INSERT INTO ranking_snapshot (id, data, updated_at) VALUES (1, ?, ?) ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		clear: `DELETE FROM ranking_snapshot`,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{sqlStore: inner}, nil
}

package snapshot

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore persists the snapshot in PostgreSQL, for deployments where
// several instances share one published ranking.
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore connects to databaseURL and ensures the table exists.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	inner, err := newSQLStore(db, sqlQueries{
		create: `CREATE TABLE IF NOT EXISTS ranking_snapshot (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		get:   `SELECT data FROM ranking_snapshot WHERE id = 1`,
		put:   `INSERT INTO ranking_snapshot (id, data, updated_at) VALUES (1, $1, $2) ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		clear: `DELETE FROM ranking_snapshot`,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{sqlStore: inner}, nil
}

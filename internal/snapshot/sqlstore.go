package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/NegroHm/uda-apuntes/internal/logging"
	"github.com/NegroHm/uda-apuntes/internal/ranking"
)

// sqlQueries carries the driver-specific SQL for the single-row snapshot
// table.
type sqlQueries struct {
	create string
	get    string
	put    string
	clear  string
}

// sqlStore implements the store over database/sql. SQLite and PostgreSQL
// share it and differ only in driver and placeholders.
type sqlStore struct {
	db      *sql.DB
	queries sqlQueries
}

func newSQLStore(db *sql.DB, queries sqlQueries) (*sqlStore, error) {
	if _, err := db.Exec(queries.create); err != nil {
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &sqlStore{db: db, queries: queries}, nil
}

func (s *sqlStore) Get(ctx context.Context) (*ranking.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, s.queries.get).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ranking.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot row: %w", err)
	}

	var snap ranking.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logging.Warn("stored snapshot unreadable, treating as absent", zap.Error(err))
		return nil, ranking.ErrNoSnapshot
	}
	return &snap, nil
}

func (s *sqlStore) Put(ctx context.Context, snap *ranking.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.queries.put, data, time.Now()); err != nil {
		return fmt.Errorf("write snapshot row: %w", err)
	}
	return nil
}

func (s *sqlStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.queries.clear); err != nil {
		return fmt.Errorf("clear snapshot row: %w", err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

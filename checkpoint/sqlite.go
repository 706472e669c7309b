package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/dshills/etlgraph-go/record"
)

// SQLiteStore persists one row per pipeline in a single-file SQLite
// database: a single pooled connection (one writer), WAL journal mode, and a busy timeout
// to ride out lock contention instead of failing a save outright.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if absent) a SQLite database at path and
// ensures the checkpoints table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("checkpoint: %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pipeline_checkpoints (
			pipeline_id TEXT PRIMARY KEY,
			data        TEXT NOT NULL,
			updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("checkpoint: create table: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetByPipeline(ctx context.Context, pipelineID string) (record.CheckpointData, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM pipeline_checkpoints WHERE pipeline_id = ?`, pipelineID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("checkpoint: get %q: %w", pipelineID, err)
	}
	var data record.CheckpointData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, false, fmt.Errorf("checkpoint: decode %q: %w", pipelineID, err)
	}
	return data, true, nil
}

func (s *SQLiteStore) SetForPipeline(ctx context.Context, pipelineID string, data record.CheckpointData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("checkpoint: encode %q: %w", pipelineID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_checkpoints (pipeline_id, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(pipeline_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`, pipelineID, string(raw))
	if err != nil {
		return fmt.Errorf("checkpoint: set %q: %w", pipelineID, err)
	}
	return nil
}

func (s *SQLiteStore) ClearForPipeline(ctx context.Context, pipelineID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pipeline_checkpoints WHERE pipeline_id = ?`, pipelineID)
	if err != nil {
		return fmt.Errorf("checkpoint: clear %q: %w", pipelineID, err)
	}
	return nil
}

package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/dshills/etlgraph-go/record"
)

// MySQLStore persists one row per pipeline in MySQL with a bounded
// connection pool: capped open/idle connections and a connection
// lifetime limit to avoid stale pooled connections behind a load
// balancer.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn and ensures the
// checkpoints table exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("checkpoint: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pipeline_checkpoints (
			pipeline_id VARCHAR(255) PRIMARY KEY,
			data        JSON NOT NULL,
			updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("checkpoint: create table: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) GetByPipeline(ctx context.Context, pipelineID string) (record.CheckpointData, bool, error) {
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

func (s *MySQLStore) SetForPipeline(ctx context.Context, pipelineID string, data record.CheckpointData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("checkpoint: encode %q: %w", pipelineID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_checkpoints (pipeline_id, data) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE data = VALUES(data)
	`, pipelineID, string(raw))
	if err != nil {
		return fmt.Errorf("checkpoint: set %q: %w", pipelineID, err)
	}
	return nil
}

func (s *MySQLStore) ClearForPipeline(ctx context.Context, pipelineID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pipeline_checkpoints WHERE pipeline_id = ?`, pipelineID)
	if err != nil {
		return fmt.Errorf("checkpoint: clear %q: %w", pipelineID, err)
	}
	return nil
}

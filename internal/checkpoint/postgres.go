package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/journi-app/journi/internal/trip"
)

const checkpointSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	thread_id TEXT PRIMARY KEY,
	snapshot JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists snapshots as JSONB rows, one per thread.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and ensures the checkpoint
// table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, checkpointSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create checkpoint table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, threadID string, state *trip.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO checkpoints(thread_id, snapshot, updated_at)
		VALUES($1, $2, now())
		ON CONFLICT (thread_id) DO UPDATE SET snapshot = $2, updated_at = now()
	`, threadID, data)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, threadID string) (*trip.State, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT snapshot FROM checkpoints WHERE thread_id = $1
	`, threadID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	state := &trip.State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return state, nil
}

func (s *PostgresStore) Delete(ctx context.Context, threadID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM checkpoints WHERE thread_id = $1`, threadID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

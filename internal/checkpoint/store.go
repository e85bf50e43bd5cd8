// Package checkpoint persists session snapshots keyed by thread ID, so a
// conversation can resume after a restart exactly where it left off.
package checkpoint

import (
	"context"
	"errors"

	"github.com/journi-app/journi/internal/trip"
)

// ErrNotFound is returned by Load when no snapshot exists for a thread.
var ErrNotFound = errors.New("checkpoint: no snapshot for thread")

// Store saves and restores session snapshots. Save overwrites any
// previous snapshot for the same thread.
type Store interface {
	Save(ctx context.Context, threadID string, state *trip.State) error
	Load(ctx context.Context, threadID string) (*trip.State, error)
	Delete(ctx context.Context, threadID string) error
	Close() error
}

// Package session serializes access to per-thread trip snapshots and
// keeps them checkpointed. One conversation thread maps to one snapshot;
// operations on different threads run concurrently, operations on the
// same thread run one at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/journi-app/journi/internal/checkpoint"
	"github.com/journi-app/journi/internal/trip"
)

// Manager owns the live snapshots. All mutations go through WithState,
// which loads the snapshot (from cache or the checkpoint store), runs
// the caller's function under the thread lock, and saves the snapshot
// back if the function succeeded.
type Manager struct {
	store  checkpoint.Store
	logger *slog.Logger

	mu      sync.Mutex
	threads map[string]*thread
}

type thread struct {
	mu    sync.Mutex
	state *trip.State
}

func NewManager(store checkpoint.Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		logger:  logger,
		threads: make(map[string]*thread),
	}
}

func (m *Manager) threadFor(threadID string) *thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[threadID]
	if !ok {
		t = &thread{}
		m.threads[threadID] = t
	}
	return t
}

// WithState runs fn with exclusive access to the thread's snapshot,
// creating an empty session named after the thread if none exists yet.
// If fn returns an error the snapshot is not checkpointed; fn must not
// mutate the state on the paths where it errors.
func (m *Manager) WithState(ctx context.Context, threadID string, fn func(*trip.State) error) error {
	t := m.threadFor(threadID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		state, err := m.store.Load(ctx, threadID)
		switch {
		case err == nil:
			t.state = state
		case errors.Is(err, checkpoint.ErrNotFound):
			t.state = trip.NewState(threadID, nil)
		default:
			return fmt.Errorf("failed to restore session %s: %w", threadID, err)
		}
	}

	if err := fn(t.state); err != nil {
		return err
	}
	if err := m.store.Save(ctx, threadID, t.state); err != nil {
		return fmt.Errorf("failed to checkpoint session %s: %w", threadID, err)
	}
	return nil
}

// Apply runs one operation against the thread's snapshot and checkpoints
// the result.
func (m *Manager) Apply(ctx context.Context, threadID, actor string, op trip.Op) (*trip.Result, error) {
	var res *trip.Result
	err := m.WithState(ctx, threadID, func(state *trip.State) error {
		var applyErr error
		res, applyErr = state.Apply(op, actor, time.Now())
		return applyErr
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("applied operation", "thread_id", threadID, "op", fmt.Sprintf("%T", op), "actor", actor)
	return res, nil
}

// ApplyAll runs a batch of operations under one thread lock. A failing
// operation stops the batch and is reported; the operations before it
// stay applied and checkpointed.
func (m *Manager) ApplyAll(ctx context.Context, threadID, actor string, ops []trip.Op) ([]*trip.Result, error) {
	var results []*trip.Result
	var opErr error
	err := m.WithState(ctx, threadID, func(state *trip.State) error {
		for _, op := range ops {
			res, applyErr := state.Apply(op, actor, time.Now())
			if applyErr != nil {
				opErr = applyErr
				break
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, opErr
}

// QueueUpload records an uploaded blob on the thread's snapshot for the
// next register-photo operation.
func (m *Manager) QueueUpload(ctx context.Context, threadID, url, path string) error {
	return m.WithState(ctx, threadID, func(state *trip.State) error {
		state.QueueUpload(url, path)
		return nil
	})
}

// Reset drops the thread's snapshot from memory and from the checkpoint
// store.
func (m *Manager) Reset(ctx context.Context, threadID string) error {
	t := m.threadFor(threadID)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = nil
	if err := m.store.Delete(ctx, threadID); err != nil {
		return fmt.Errorf("failed to reset session %s: %w", threadID, err)
	}
	m.logger.Info("session reset", "thread_id", threadID)
	return nil
}

package session

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/journi-app/journi/internal/checkpoint"
	"github.com/journi-app/journi/internal/trip"
)

func newTestManager() *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(checkpoint.NewMemoryStore(), logger)
}

func TestManagerAppliesAndCheckpoints(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(store, logger)
	ctx := context.Background()

	res, err := m.Apply(ctx, "thread-1", "meli", trip.RegisterExpense{
		Amount: 100, Description: "lunch", PaidBy: "meli", Currency: "PEN",
		SplitAmong: []string{"meli", "andre"},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Expense == nil || res.Expense.ID != "exp_1" {
		t.Fatalf("result = %+v", res)
	}

	// The snapshot must be durable, not just cached.
	state, err := store.Load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if len(state.Expenses) != 1 {
		t.Errorf("checkpoint has %d expenses, want 1", len(state.Expenses))
	}
}

func TestManagerFailedOpNotCheckpointed(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(store, logger)
	ctx := context.Background()

	_, err := m.Apply(ctx, "thread-1", "meli", trip.RegisterExpense{
		Amount: -5, Description: "bad", PaidBy: "meli",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}

	state, loadErr := store.Load(ctx, "thread-1")
	if loadErr == nil && len(state.Expenses) > 0 {
		t.Error("rejected operation was checkpointed")
	}
}

func TestManagerRestoresFromStore(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	m1 := NewManager(store, logger)
	if _, err := m1.Apply(ctx, "thread-1", "meli", trip.RegisterExpense{
		Amount: 60, Description: "taxi", PaidBy: "meli", Currency: "PEN",
		SplitAmong: []string{"meli", "andre"},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// A fresh manager simulates a restart; it must pick up the snapshot.
	m2 := NewManager(store, logger)
	res, err := m2.Apply(ctx, "thread-1", "andre", trip.GetBalance{Person: "andre"})
	if err != nil {
		t.Fatalf("apply after restart: %v", err)
	}
	if want := "Balance for andre: -30.00 PEN"; res.Summary != want {
		t.Errorf("summary = %q, want %q", res.Summary, want)
	}
}

func TestManagerApplyAllStopsOnError(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	results, err := m.ApplyAll(ctx, "thread-1", "meli", []trip.Op{
		trip.RegisterExpense{Amount: 50, Description: "taxi", PaidBy: "meli", SplitAmong: []string{"meli", "andre"}},
		trip.DeleteExpense{ExpenseID: "exp_99"},
		trip.RegisterExpense{Amount: 10, Description: "never applied", PaidBy: "meli"},
	})
	if err == nil {
		t.Fatal("expected the batch to report the failing operation")
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 before the failure", len(results))
	}

	// The successful prefix stays applied.
	res, applyErr := m.Apply(ctx, "thread-1", "meli", trip.ListExpenses{})
	if applyErr != nil {
		t.Fatalf("list: %v", applyErr)
	}
	if len(res.Expenses) != 1 {
		t.Errorf("store has %d expenses, want 1", len(res.Expenses))
	}
}

func TestManagerConcurrentThreadsIsolated(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	var wg sync.WaitGroup
	threads := []string{"thread-a", "thread-b", "thread-c"}
	for _, threadID := range threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if _, err := m.Apply(ctx, threadID, "meli", trip.RegisterExpense{
					Amount: 10, Description: "tick", PaidBy: "meli", Currency: "PEN",
					SplitAmong: []string{"meli", "andre"},
				}); err != nil {
					t.Errorf("apply on %s: %v", threadID, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for _, threadID := range threads {
		res, err := m.Apply(ctx, threadID, "meli", trip.GetBalance{Person: "meli"})
		if err != nil {
			t.Fatalf("balance on %s: %v", threadID, err)
		}
		if want := "Balance for meli: +100.00 PEN"; res.Summary != want {
			t.Errorf("%s: summary = %q, want %q", threadID, res.Summary, want)
		}
	}
}

func TestManagerConcurrentSameThreadSerialized(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, err := m.Apply(ctx, "thread-1", "meli", trip.RegisterExpense{
					Amount: 7, Description: "tick", PaidBy: "meli", Currency: "PEN",
					SplitAmong: []string{"meli", "andre"},
				}); err != nil {
					t.Errorf("apply: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	var total float64
	err := m.WithState(ctx, "thread-1", func(state *trip.State) error {
		if len(state.Expenses) != 80 {
			t.Errorf("store has %d expenses, want 80", len(state.Expenses))
		}
		total = state.Balances.Get("meli", "PEN")
		return nil
	})
	if err != nil {
		t.Fatalf("with state: %v", err)
	}
	if math.Abs(total-80*3.5) > 0.01 {
		t.Errorf("meli balance = %v, want %v", total, 80*3.5)
	}
}

func TestManagerReset(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if _, err := m.Apply(ctx, "thread-1", "meli", trip.RegisterExpense{
		Amount: 10, Description: "x", PaidBy: "meli",
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := m.Reset(ctx, "thread-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	res, err := m.Apply(ctx, "thread-1", "meli", trip.ListExpenses{})
	if err != nil {
		t.Fatalf("list after reset: %v", err)
	}
	if len(res.Expenses) != 0 {
		t.Errorf("expenses survived the reset: %+v", res.Expenses)
	}
}

func TestManagerQueueUpload(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if err := m.QueueUpload(ctx, "thread-1", "https://cdn.example/p.jpg", "trips/p.jpg"); err != nil {
		t.Fatalf("queue upload: %v", err)
	}
	if _, err := m.Apply(ctx, "thread-1", "meli", trip.CreateMilestone{Name: "Santiago"}); err != nil {
		t.Fatalf("create milestone: %v", err)
	}
	res, err := m.Apply(ctx, "thread-1", "meli", trip.RegisterPhoto{Description: "plaza"})
	if err != nil {
		t.Fatalf("register photo: %v", err)
	}
	if res.Photo.StorageURL != "https://cdn.example/p.jpg" {
		t.Errorf("photo did not consume the queued upload: %+v", res.Photo)
	}
}

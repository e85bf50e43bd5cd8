package checkpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/journi-app/journi/internal/trip"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	state := trip.NewState("chile", []string{"meli", "andre"})
	if _, err := state.Apply(trip.RegisterExpense{
		Amount: 100, Description: "lunch", PaidBy: "meli", Currency: "PEN",
	}, "meli", time.Unix(1700000000, 0)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if err := store.Save(ctx, "thread-1", state); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.SessionName != "chile" || len(loaded.Expenses) != 1 {
		t.Errorf("loaded snapshot = %+v", loaded)
	}
	if loaded.ExpenseSeq != 1 {
		t.Errorf("counter not restored, got %d", loaded.ExpenseSeq)
	}

	// The stored snapshot must be isolated from later mutations.
	if _, err := state.Apply(trip.DeleteExpense{ExpenseID: "last"}, "meli", time.Unix(1700000001, 0)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	loaded, err = store.Load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Expenses) != 1 {
		t.Error("saved snapshot changed after the live state was mutated")
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Load(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got err %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Save(ctx, "thread-1", trip.NewState("chile", nil)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "thread-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "thread-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got err %v, want ErrNotFound after delete", err)
	}
	if err := store.Delete(ctx, "thread-1"); err != nil {
		t.Errorf("deleting a missing thread should be a no-op, got %v", err)
	}
}

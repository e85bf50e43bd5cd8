package checkpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/journi-app/journi/internal/trip"
)

type failingStore struct {
	Store
}

func (failingStore) Save(context.Context, string, *trip.State) error {
	return errors.New("disk full")
}

func TestInstrumentCountsSaves(t *testing.T) {
	saves := prometheus.NewCounter(prometheus.CounterOpts{Name: "saves"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "failures"})

	store := Instrument(NewMemoryStore(), saves, failures)
	if err := store.Save(context.Background(), "t1", trip.NewState("t1", nil)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(context.Background(), "t1", trip.NewState("t1", nil)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := testutil.ToFloat64(saves); got != 2 {
		t.Errorf("saves = %v, want 2", got)
	}
	if got := testutil.ToFloat64(failures); got != 0 {
		t.Errorf("failures = %v, want 0", got)
	}

	// Loads still reach the wrapped store.
	if _, err := store.Load(context.Background(), "t1"); err != nil {
		t.Errorf("load: %v", err)
	}
}

func TestInstrumentCountsFailures(t *testing.T) {
	saves := prometheus.NewCounter(prometheus.CounterOpts{Name: "saves"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "failures"})

	store := Instrument(failingStore{NewMemoryStore()}, saves, failures)
	if err := store.Save(context.Background(), "t1", trip.NewState("t1", nil)); err == nil {
		t.Fatal("expected save error")
	}
	if got := testutil.ToFloat64(failures); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(saves); got != 0 {
		t.Errorf("saves = %v, want 0", got)
	}
}

package checkpoint

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/journi-app/journi/internal/trip"
)

// instrumented counts checkpoint writes on top of another store.
type instrumented struct {
	Store
	saves  prometheus.Counter
	errors prometheus.Counter
}

// Instrument wraps a store so every Save outcome is counted.
func Instrument(store Store, saves, errors prometheus.Counter) Store {
	return &instrumented{Store: store, saves: saves, errors: errors}
}

func (s *instrumented) Save(ctx context.Context, threadID string, state *trip.State) error {
	if err := s.Store.Save(ctx, threadID, state); err != nil {
		s.errors.Inc()
		return err
	}
	s.saves.Inc()
	return nil
}

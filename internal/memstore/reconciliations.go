package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type Reconciliations struct {
	mu      sync.Mutex
	records []domain.Reconciliation
}

func (r *Reconciliations) Record(ctx context.Context, rec domain.Reconciliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)

	return nil
}

// All returns the recorded reconciliations in insertion order.
func (r *Reconciliations) All() []domain.Reconciliation {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.records)
}

package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type holdEntry struct {
	owner     string
	expiresAt time.Time
}

type quoteEntry struct {
	quote     domain.Quote
	expiresAt time.Time
}

// Holds expires entries lazily against its clock.
type Holds struct {
	mu     sync.Mutex
	now    func() time.Time
	holds  map[string]holdEntry
	quotes map[string]quoteEntry
}

func (h *Holds) Acquire(ctx context.Context, key domain.ShowtimeKey, seats []int, owner string, ttl time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()

	var held []int
	for _, n := range seats {
		if e, ok := h.live(holdKey(key, n), now); ok && e.owner != owner {
			held = append(held, n)
		}
	}

	if len(held) > 0 {
		return domain.NewConflictError(held)
	}

	for _, n := range seats {
		h.holds[holdKey(key, n)] = holdEntry{owner: owner, expiresAt: now.Add(ttl)}
	}

	return nil
}

func (h *Holds) Owned(ctx context.Context, key domain.ShowtimeKey, seats []int, owner string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()

	for _, n := range seats {
		e, ok := h.live(holdKey(key, n), now)
		if !ok || e.owner != owner {
			return false, nil
		}
	}

	return true, nil
}

func (h *Holds) Release(ctx context.Context, key domain.ShowtimeKey, seats []int, owner string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, n := range seats {
		k := holdKey(key, n)
		if e, ok := h.holds[k]; ok && e.owner == owner {
			delete(h.holds, k)
		}
	}

	return nil
}

func (h *Holds) SaveQuote(ctx context.Context, quote domain.Quote, ttl time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	quote.Seats = slices.Clone(quote.Seats)
	h.quotes[quote.OrderID] = quoteEntry{quote: quote, expiresAt: h.now().Add(ttl)}

	return nil
}

func (h *Holds) GetQuote(ctx context.Context, orderID string) (*domain.Quote, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.quotes[orderID]
	if !ok || !h.now().Before(e.expiresAt) {
		delete(h.quotes, orderID)
		return nil, domain.ErrRecordNotFound
	}

	q := e.quote
	q.Seats = slices.Clone(q.Seats)

	return &q, nil
}

func (h *Holds) DeleteQuote(ctx context.Context, orderID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.quotes, orderID)

	return nil
}

func (h *Holds) live(k string, now time.Time) (holdEntry, bool) {
	e, ok := h.holds[k]
	if !ok {
		return holdEntry{}, false
	}

	if !now.Before(e.expiresAt) {
		delete(h.holds, k)
		return holdEntry{}, false
	}

	return e, true
}

func holdKey(key domain.ShowtimeKey, seat int) string {
	return fmt.Sprintf("%s:%d", key.Hash(), seat)
}

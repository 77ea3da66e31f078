package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// Ledger is an append-only booking list.
type Ledger struct {
	mu       sync.RWMutex
	now      func() time.Time
	bookings []domain.Booking
	byID     map[uuid.UUID]int
	byOrder  map[string]int
}

func (l *Ledger) Append(ctx context.Context, booking domain.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[booking.ID]; ok {
		return nil
	}

	if _, ok := l.byOrder[booking.Payment.OrderID]; ok {
		return errors.Newf("order %s already has a booking", booking.Payment.OrderID)
	}

	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = l.now()
	}

	booking.Seats = slices.Clone(booking.Seats)

	l.bookings = append(l.bookings, booking)
	l.byID[booking.ID] = len(l.bookings) - 1
	l.byOrder[booking.Payment.OrderID] = len(l.bookings) - 1

	return nil
}

func (l *Ledger) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bookings := make([]domain.Booking, 0)
	for _, b := range l.bookings {
		if b.UserID == userID {
			b.Seats = slices.Clone(b.Seats)
			bookings = append(bookings, b)
		}
	}

	return bookings, nil
}

func (l *Ledger) GetByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.byOrder[orderID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	b := l.bookings[idx]
	b.Seats = slices.Clone(b.Seats)

	return &b, nil
}

func (l *Ledger) has(id uuid.UUID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.byID[id]

	return ok
}

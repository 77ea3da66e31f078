package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type seatRecord struct {
	key        domain.ShowtimeKey
	reservedAt time.Time
	claim      domain.SeatClaim
}

// Inventory indexes reserved seats by showtime hash and seat number.
type Inventory struct {
	mu        sync.Mutex
	showtimes map[string]map[int]seatRecord
	ledger    *Ledger
}

func (i *Inventory) Query(ctx context.Context, key domain.ShowtimeKey) ([]domain.ReservedSeat, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.snapshot(key.Hash()), nil
}

func (i *Inventory) ReserveAtomic(
	ctx context.Context,
	key domain.ShowtimeKey,
	seats []int,
	reservedAt time.Time,
	claim domain.SeatClaim) ([]domain.ReservedSeat, error) {

	hash := key.Hash()

	i.mu.Lock()
	defer i.mu.Unlock()

	reserved := i.showtimes[hash]

	var taken []int
	for _, n := range seats {
		if _, ok := reserved[n]; ok {
			taken = append(taken, n)
		}
	}

	if len(taken) > 0 {
		return nil, domain.NewConflictError(taken)
	}

	if reserved == nil {
		reserved = make(map[int]seatRecord, len(seats))
		i.showtimes[hash] = reserved
	}

	for _, n := range seats {
		reserved[n] = seatRecord{key: key, reservedAt: reservedAt, claim: claim}
	}

	return i.snapshot(hash), nil
}

func (i *Inventory) ClaimByOrder(ctx context.Context, orderID string) (*domain.Booking, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	bookings := i.groupClaims(func(r seatRecord) bool {
		return r.claim.Payment.OrderID == orderID
	})

	if len(bookings) == 0 {
		return nil, domain.ErrRecordNotFound
	}

	return &bookings[0], nil
}

func (i *Inventory) ListUnbooked(ctx context.Context, before time.Time, limit int) ([]domain.Booking, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	bookings := i.groupClaims(func(r seatRecord) bool {
		return r.reservedAt.Before(before) && !i.ledger.has(r.claim.BookingID)
	})

	if limit > 0 && len(bookings) > limit {
		bookings = bookings[:limit]
	}

	return bookings, nil
}

func (i *Inventory) snapshot(hash string) []domain.ReservedSeat {
	reserved := i.showtimes[hash]

	seats := make([]domain.ReservedSeat, 0, len(reserved))
	for n, r := range reserved {
		seats = append(seats, domain.ReservedSeat{SeatNumber: n, ReservedAt: r.reservedAt})
	}

	slices.SortFunc(seats, func(a, b domain.ReservedSeat) int {
		return cmp.Or(a.ReservedAt.Compare(b.ReservedAt), cmp.Compare(a.SeatNumber, b.SeatNumber))
	})

	return seats
}

// groupClaims folds matching seat records into one booking per claim, ordered
// by reservation time.
func (i *Inventory) groupClaims(match func(seatRecord) bool) []domain.Booking {
	byID := make(map[uuid.UUID]*domain.Booking)
	reservedAt := make(map[uuid.UUID]time.Time)

	for _, reserved := range i.showtimes {
		for n, r := range reserved {
			if !match(r) {
				continue
			}

			b, ok := byID[r.claim.BookingID]
			if !ok {
				b = &domain.Booking{
					ID:       r.claim.BookingID,
					UserID:   r.claim.UserID,
					Showtime: r.key,
					Payment:  r.claim.Payment,
					BookedAt: r.claim.BookedAt,
				}
				byID[r.claim.BookingID] = b
				reservedAt[r.claim.BookingID] = r.reservedAt
			}

			b.Seats = append(b.Seats, n)
		}
	}

	bookings := make([]domain.Booking, 0, len(byID))
	for _, b := range byID {
		slices.Sort(b.Seats)
		bookings = append(bookings, *b)
	}

	slices.SortFunc(bookings, func(a, b domain.Booking) int {
		return cmp.Or(reservedAt[a.ID].Compare(reservedAt[b.ID]), cmp.Compare(a.ID.String(), b.ID.String()))
	})

	return bookings
}

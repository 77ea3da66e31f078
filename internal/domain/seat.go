package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ReservedSeat struct {
	SeatNumber int       `json:"seatNumber"`
	ReservedAt time.Time `json:"reservedAt"`
}

// SeatClaim is stored next to every reserved seat so a booking can be rebuilt
// from the inventory alone.
type SeatClaim struct {
	BookingID uuid.UUID
	UserID    uuid.UUID
	Payment   PaymentRef
	BookedAt  time.Time
}

type InventoryStore interface {
	// Query returns the reserved seats of a showtime. A showtime that was never
	// booked has no reserved seats.
	Query(ctx context.Context, key ShowtimeKey) ([]ReservedSeat, error)

	// ReserveAtomic reserves every seat or none of them and returns the full
	// reserved set afterwards. A taken seat yields a ConflictError.
	ReserveAtomic(ctx context.Context, key ShowtimeKey, seats []int, reservedAt time.Time, claim SeatClaim) ([]ReservedSeat, error)

	// ClaimByOrder rebuilds the booking that claimed seats for a payment order.
	ClaimByOrder(ctx context.Context, orderID string) (*Booking, error)

	// ListUnbooked returns claims older than the given time that have no ledger entry.
	ListUnbooked(ctx context.Context, before time.Time, limit int) ([]Booking, error)
}

func SeatNumbers(seats []ReservedSeat) []int {
	numbers := make([]int, len(seats))
	for i, s := range seats {
		numbers[i] = s.SeatNumber
	}

	return numbers
}

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PaymentRef struct {
	OrderID   string
	PaymentID string
}

type Booking struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Showtime  ShowtimeKey
	Seats     []int
	Payment   PaymentRef
	BookedAt  time.Time
	CreatedAt time.Time
}

type BookingLedger interface {
	// Append is idempotent on the booking ID.
	Append(ctx context.Context, booking Booking) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	GetByOrderID(ctx context.Context, orderID string) (*Booking, error)
}

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Reconciliation struct {
	ID         uuid.UUID
	OrderID    string
	PaymentID  string
	UserID     uuid.UUID
	Showtime   ShowtimeKey
	Seats      []int
	TakenSeats []int
	Amount     int64
	Currency   string
	Reason     string
	CreatedAt  time.Time
}

type ReconciliationRepository interface {
	Record(ctx context.Context, rec Reconciliation) error
}

type ReconciliationNotifier interface {
	NotifyReconciliation(ctx context.Context, rec Reconciliation) error
}

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Quote is the priced offer returned by the first reservation phase. It lives
// as long as the seat hold it was issued with.
type Quote struct {
	OrderID   string      `json:"orderId"`
	HoldToken string      `json:"holdToken"`
	UserID    uuid.UUID   `json:"userId"`
	Showtime  ShowtimeKey `json:"showtime"`
	Seats     []int       `json:"seats"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// HoldStore keeps short lived seat holds between quote and commit.
type HoldStore interface {
	// Acquire holds every seat for owner or none of them. Seats held by
	// another owner yield a ConflictError.
	Acquire(ctx context.Context, key ShowtimeKey, seats []int, owner string, ttl time.Duration) error
	// Owned reports whether owner still holds every seat.
	Owned(ctx context.Context, key ShowtimeKey, seats []int, owner string) (bool, error)
	// Release drops the seats held by owner and leaves other holds untouched.
	Release(ctx context.Context, key ShowtimeKey, seats []int, owner string) error

	SaveQuote(ctx context.Context, quote Quote, ttl time.Duration) error
	GetQuote(ctx context.Context, orderID string) (*Quote, error)
	DeleteQuote(ctx context.Context, orderID string) error
}

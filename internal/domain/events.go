package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingConfirmed              = "booking.confirmed"
	EventPaymentReconciliationRequired = "payment.reconciliation_required"
)

type OutboxEvent struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

type OutboxRepository interface {
	FetchPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error
}

// Broadcaster fans out the full reserved set of a showtime. Publish must not block.
type Broadcaster interface {
	Publish(key ShowtimeKey, seats []ReservedSeat)
}

type AuditLogger interface {
	LogEvent(ctx context.Context, action string, userID uuid.UUID, data map[string]any) error
}

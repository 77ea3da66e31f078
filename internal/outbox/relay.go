// Package outbox relays events written next to bookings and reconciliations
// to the message broker.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/metrics"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

type Relay struct {
	repo      domain.OutboxRepository
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewRelay(repo domain.OutboxRepository, publisher Publisher, logger *slog.Logger, interval time.Duration, batchSize int) *Relay {
	return &Relay{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", "interval", r.interval.String())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, err := r.RelayOnce(ctx)
			if err != nil {
				r.logger.Error("outbox relay pass failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch of pending events in order and stops at the
// first failure so later events are not published ahead of it.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	events, err := r.repo.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0

	for _, event := range events {
		err := r.publisher.Publish(ctx, event.EventType, event.ID.String(), event.Payload)
		if err != nil {
			metrics.OutboxPublishFailures.Inc()
			return published, err
		}

		err = r.repo.MarkPublished(ctx, event.ID, time.Now())
		if err != nil {
			return published, err
		}

		metrics.OutboxPublished.WithLabelValues(event.EventType).Inc()
		published++
	}

	return published, nil
}

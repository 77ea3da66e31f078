// Package worker runs background passes over the stores.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/metrics"
)

const defaultBatchSize = 100

// LedgerReconciler appends bookings that reached the inventory but not the
// ledger. Claims younger than grace are skipped so in-flight commits can
// finish their own append.
type LedgerReconciler struct {
	inventory domain.InventoryStore
	ledger    domain.BookingLedger
	logger    *slog.Logger
	interval  time.Duration
	grace     time.Duration
	batchSize int
	now       func() time.Time
}

func NewLedgerReconciler(
	inventory domain.InventoryStore,
	ledger domain.BookingLedger,
	logger *slog.Logger,
	interval time.Duration,
	grace time.Duration) *LedgerReconciler {

	return &LedgerReconciler{
		inventory: inventory,
		ledger:    ledger,
		logger:    logger,
		interval:  interval,
		grace:     grace,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
}

func (r *LedgerReconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("ledger reconciler started", "interval", r.interval.String())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, err := r.RunOnce(ctx)
			if err != nil {
				r.logger.Error("ledger reconciliation pass failed", "error", err)
			}
		}
	}
}

// RunOnce repairs one batch and returns the number of bookings appended.
func (r *LedgerReconciler) RunOnce(ctx context.Context) (int, error) {
	bookings, err := r.inventory.ListUnbooked(ctx, r.now().Add(-r.grace), r.batchSize)
	if err != nil {
		return 0, err
	}

	repaired := 0

	for _, booking := range bookings {
		err := r.ledger.Append(ctx, booking)
		if err != nil {
			r.logger.Warn("failed to repair booking", "booking_id", booking.ID, "order_id", booking.Payment.OrderID, "error", err)
			continue
		}

		r.logger.Info("booking restored to ledger", "booking_id", booking.ID, "order_id", booking.Payment.OrderID)
		metrics.LedgerRepairs.Inc()
		repaired++
	}

	return repaired, nil
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type PostgresReconciliationRepository struct {
	db *pgxpool.Pool
}

func NewPostgresReconciliationRepository(db *pgxpool.Pool) *PostgresReconciliationRepository {
	return &PostgresReconciliationRepository{
		db: db,
	}
}

type reconciliationEvent struct {
	ReconciliationID uuid.UUID          `json:"reconciliationId"`
	OrderID          string             `json:"orderId"`
	PaymentID        string             `json:"paymentId"`
	UserID           uuid.UUID          `json:"userId"`
	Showtime         domain.ShowtimeKey `json:"showtime"`
	Seats            []int              `json:"seats"`
	TakenSeats       []int              `json:"takenSeats"`
	Amount           int64              `json:"amount"`
	Currency         string             `json:"currency"`
	Reason           string             `json:"reason"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// Record stores the reconciliation and enqueues its
// payment.reconciliation_required event in the same transaction.
func (p *PostgresReconciliationRepository) Record(ctx context.Context, rec domain.Reconciliation) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		takenSeats := rec.TakenSeats
		if takenSeats == nil {
			takenSeats = []int{}
		}

		query := `
			INSERT INTO payment_reconciliations (
				id, order_id, payment_id, user_id,
				movie, location, timing, hall_name, hall_seats, day, date, month,
				seats, taken_seats, amount, currency, reason, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`

		_, err := tx.Exec(
			ctx,
			query,
			rec.ID,
			rec.OrderID,
			rec.PaymentID,
			rec.UserID,
			rec.Showtime.Movie,
			rec.Showtime.Location,
			rec.Showtime.Timing,
			rec.Showtime.Hall.Name,
			rec.Showtime.Hall.Seats,
			rec.Showtime.Day,
			rec.Showtime.Date,
			rec.Showtime.Month,
			rec.Seats,
			takenSeats,
			rec.Amount,
			rec.Currency,
			rec.Reason,
			rec.CreatedAt,
		)
		if err != nil {
			return err
		}

		event := reconciliationEvent{
			ReconciliationID: rec.ID,
			OrderID:          rec.OrderID,
			PaymentID:        rec.PaymentID,
			UserID:           rec.UserID,
			Showtime:         rec.Showtime,
			Seats:            rec.Seats,
			TakenSeats:       takenSeats,
			Amount:           rec.Amount,
			Currency:         rec.Currency,
			Reason:           rec.Reason,
			CreatedAt:        rec.CreatedAt,
		}

		return insertOutbox(ctx, tx, rec.OrderID, domain.EventPaymentReconciliationRequired, event)
	})
}

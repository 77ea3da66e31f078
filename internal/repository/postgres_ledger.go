package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type PostgresLedgerRepository struct {
	db *pgxpool.Pool
}

func NewPostgresLedgerRepository(db *pgxpool.Pool) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{
		db: db,
	}
}

// Append stores the booking and enqueues its booking.confirmed event in the
// same transaction. Appending a booking ID twice is a no-op.
func (p *PostgresLedgerRepository) Append(ctx context.Context, booking domain.Booking) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		showtimeID, err := upsertShowtime(ctx, tx, booking.Showtime)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO bookings (id, user_id, showtime_id, seats, order_id, payment_id, booked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`

		tag, err := tx.Exec(
			ctx,
			query,
			booking.ID,
			booking.UserID,
			showtimeID,
			booking.Seats,
			booking.Payment.OrderID,
			booking.Payment.PaymentID,
			booking.BookedAt,
		)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return nil
		}

		event := bookingEvent{
			BookingID: booking.ID,
			UserID:    booking.UserID,
			Showtime:  booking.Showtime,
			Seats:     booking.Seats,
			OrderID:   booking.Payment.OrderID,
			PaymentID: booking.Payment.PaymentID,
			BookedAt:  booking.BookedAt,
		}

		return insertOutbox(ctx, tx, booking.ID.String(), domain.EventBookingConfirmed, event)
	})
}

const bookingColumns = `
	b.id,
	b.user_id,
	` + showtimeColumns + `,
	b.seats,
	b.order_id,
	b.payment_id,
	b.booked_at,
	b.created_at
`

func (p *PostgresLedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN showtimes s ON s.id = b.showtime_id
		WHERE b.user_id = $1
		ORDER BY b.seq
	`

	rows, err := p.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (p *PostgresLedgerRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN showtimes s ON s.id = b.showtime_id
		WHERE b.order_id = $1
	`

	booking, err := scanBooking(p.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type PostgresInventoryRepository struct {
	db *pgxpool.Pool
}

func NewPostgresInventoryRepository(db *pgxpool.Pool) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{
		db: db,
	}
}

func (p *PostgresInventoryRepository) Query(ctx context.Context, key domain.ShowtimeKey) ([]domain.ReservedSeat, error) {
	query := `
		SELECT rs.seat_number, rs.reserved_at
		FROM reserved_seats rs
		JOIN showtimes s ON s.id = rs.showtime_id
		WHERE ` + showtimeMatch + `
		ORDER BY rs.reserved_at, rs.seat_number
	`

	rows, err := p.db.Query(ctx, query, showtimeArgs(key)...)
	if err != nil {
		return nil, err
	}

	return collectReservedSeats(rows)
}

// ReserveAtomic relies on the (showtime_id, seat_number) primary key: the
// first transaction to insert a seat wins and every later insert of that seat
// is skipped, which aborts the whole reservation.
func (p *PostgresInventoryRepository) ReserveAtomic(
	ctx context.Context,
	key domain.ShowtimeKey,
	seats []int,
	reservedAt time.Time,
	claim domain.SeatClaim) ([]domain.ReservedSeat, error) {

	var reserved []domain.ReservedSeat

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		showtimeID, err := upsertShowtime(ctx, tx, key)
		if err != nil {
			return fmt.Errorf("failed to upsert showtime: %w", err)
		}

		query := `
			INSERT INTO reserved_seats (
				showtime_id, seat_number, reserved_at, booking_id, user_id, order_id, payment_id, booked_at
			)
			SELECT $1, seat, $3, $4, $5, $6, $7, $8
			FROM unnest($2::int[]) AS seat
			ON CONFLICT (showtime_id, seat_number) DO NOTHING
			RETURNING seat_number
		`

		rows, err := tx.Query(
			ctx,
			query,
			showtimeID,
			seats,
			reservedAt,
			claim.BookingID,
			claim.UserID,
			claim.Payment.OrderID,
			claim.Payment.PaymentID,
			claim.BookedAt,
		)
		if err != nil {
			return err
		}

		inserted, err := pgx.CollectRows(rows, pgx.RowTo[int])
		if err != nil {
			return err
		}

		if len(inserted) != len(seats) {
			taken := make([]int, 0, len(seats)-len(inserted))
			for _, n := range seats {
				if !slices.Contains(inserted, n) {
					taken = append(taken, n)
				}
			}

			return domain.NewConflictError(taken)
		}

		query = `
			SELECT seat_number, reserved_at
			FROM reserved_seats
			WHERE showtime_id = $1
			ORDER BY reserved_at, seat_number
		`

		rows, err = tx.Query(ctx, query, showtimeID)
		if err != nil {
			return err
		}

		reserved, err = collectReservedSeats(rows)

		return err
	})
	if err != nil {
		return nil, err
	}

	return reserved, nil
}

const claimColumns = `
	rs.booking_id,
	rs.user_id,
	` + showtimeColumns + `,
	array_agg(rs.seat_number ORDER BY rs.seat_number),
	rs.order_id,
	rs.payment_id,
	rs.booked_at,
	min(rs.reserved_at)
`

const claimGrouping = `GROUP BY rs.booking_id, rs.user_id, s.id, rs.order_id, rs.payment_id, rs.booked_at`

func (p *PostgresInventoryRepository) ClaimByOrder(ctx context.Context, orderID string) (*domain.Booking, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM reserved_seats rs
		JOIN showtimes s ON s.id = rs.showtime_id
		WHERE rs.order_id = $1
		` + claimGrouping

	booking, err := scanBooking(p.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

func (p *PostgresInventoryRepository) ListUnbooked(ctx context.Context, before time.Time, limit int) ([]domain.Booking, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM reserved_seats rs
		JOIN showtimes s ON s.id = rs.showtime_id
		LEFT JOIN bookings b ON b.id = rs.booking_id
		WHERE b.id IS NULL AND rs.reserved_at < $1
		` + claimGrouping + `
		ORDER BY min(rs.reserved_at)
		LIMIT $2
	`

	rows, err := p.db.Query(ctx, query, before, limit)
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

func collectReservedSeats(rows pgx.Rows) ([]domain.ReservedSeat, error) {
	defer rows.Close()

	seats := make([]domain.ReservedSeat, 0)

	for rows.Next() {
		var seat domain.ReservedSeat

		err := rows.Scan(&seat.SeatNumber, &seat.ReservedAt)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

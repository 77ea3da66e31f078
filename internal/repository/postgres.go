package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// showtimeMatch filters the showtimes table (aliased s) by key, with the key
// fields bound from $1 to $8.
const showtimeMatch = `
	s.movie = $1 AND s.location = $2 AND s.timing = $3 AND s.hall_name = $4
	AND s.hall_seats = $5 AND s.day = $6 AND s.date = $7 AND s.month = $8
`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}

func showtimeArgs(key domain.ShowtimeKey) []any {
	return []any{key.Movie, key.Location, key.Timing, key.Hall.Name, key.Hall.Seats, key.Day, key.Date, key.Month}
}

// upsertShowtime returns the ID of the showtime row for key, creating it on
// first use.
func upsertShowtime(ctx context.Context, q querier, key domain.ShowtimeKey) (int64, error) {
	selectQuery := `SELECT s.id FROM showtimes s WHERE ` + showtimeMatch

	insertQuery := `
		INSERT INTO showtimes (movie, location, timing, hall_name, hall_seats, day, date, month)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT showtimes_key DO NOTHING
		RETURNING id
	`

	var id int64

	err := q.QueryRow(ctx, selectQuery, showtimeArgs(key)...).Scan(&id)
	if err == nil {
		return id, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	err = q.QueryRow(ctx, insertQuery, showtimeArgs(key)...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// Created concurrently.
		err = q.QueryRow(ctx, selectQuery, showtimeArgs(key)...).Scan(&id)
	}

	if err != nil {
		return 0, err
	}

	return id, nil
}

func insertOutbox(ctx context.Context, q querier, aggregateID, eventType string, payload any) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO outbox (id, aggregate_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
	`

	_, err = q.Exec(ctx, query, uuid.New(), aggregateID, eventType, payloadBytes)

	return err
}

// bookingEvent is the outbox payload of a confirmed booking.
type bookingEvent struct {
	BookingID uuid.UUID          `json:"bookingId"`
	UserID    uuid.UUID          `json:"userId"`
	Showtime  domain.ShowtimeKey `json:"showtime"`
	Seats     []int              `json:"seats"`
	OrderID   string             `json:"orderId"`
	PaymentID string             `json:"paymentId"`
	BookedAt  time.Time          `json:"bookedAt"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBooking reads the columns selected by bookingColumns.
func scanBooking(row rowScanner) (domain.Booking, error) {
	var b domain.Booking

	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Showtime.Movie,
		&b.Showtime.Location,
		&b.Showtime.Timing,
		&b.Showtime.Hall.Name,
		&b.Showtime.Hall.Seats,
		&b.Showtime.Day,
		&b.Showtime.Date,
		&b.Showtime.Month,
		&b.Seats,
		&b.Payment.OrderID,
		&b.Payment.PaymentID,
		&b.BookedAt,
		&b.CreatedAt,
	)

	return b, err
}

const showtimeColumns = `s.movie, s.location, s.timing, s.hall_name, s.hall_seats, s.day, s.date, s.month`

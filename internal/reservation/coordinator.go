// Package reservation runs the two phase seat booking flow: a quote places a
// time bounded hold and opens a payment order, a commit turns a verified
// payment into reserved seats and a ledger entry.
package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/metrics"
	"github.com/shopspring/decimal"
)

const (
	AuditQuoteCreated           = "quote.created"
	AuditBookingCommitted       = "booking.committed"
	AuditReconciliationRequired = "payment.reconciliation_required"
)

var minorUnits = decimal.NewFromInt(100)

type Config struct {
	HoldTTL        time.Duration
	MaxSeats       int
	UnitPrice      decimal.Decimal
	Currency       string
	PaymentTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		HoldTTL:        10 * time.Minute,
		MaxSeats:       10,
		UnitPrice:      decimal.NewFromInt(150),
		Currency:       "INR",
		PaymentTimeout: 10 * time.Second,
	}
}

type Deps struct {
	Inventory       domain.InventoryStore
	Ledger          domain.BookingLedger
	Users           domain.UserRepository
	Holds           domain.HoldStore
	Gateway         domain.PaymentGateway
	Verifier        domain.SignatureVerifier
	Broadcaster     domain.Broadcaster
	Reconciliations domain.ReconciliationRepository
	Notifier        domain.ReconciliationNotifier
	Audit           domain.AuditLogger
	Logger          *slog.Logger
	Now             func() time.Time
}

type Coordinator struct {
	cfg Config
	Deps
}

func NewCoordinator(cfg Config, deps Deps) *Coordinator {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Coordinator{cfg: cfg, Deps: deps}
}

type QuoteRequest struct {
	Showtime domain.ShowtimeKey
	Seats    []int
	UserID   uuid.UUID
}

type CommitRequest struct {
	OrderID     string
	PaymentID   string
	Signature   string
	Showtime    domain.ShowtimeKey
	Seats       []int
	UserID      uuid.UUID
	BookingTime time.Time
}

type CommitResult struct {
	ReservedSeats []domain.ReservedSeat
	Booking       domain.Booking
	// Replayed is set when the order was already committed by an earlier call.
	Replayed bool
}

func (c *Coordinator) Seats(ctx context.Context, key domain.ShowtimeKey) ([]domain.ReservedSeat, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	seats, err := c.Inventory.Query(ctx, key)
	if err != nil {
		return nil, domain.InternalError(err, "query reserved seats")
	}

	return seats, nil
}

func (c *Coordinator) Quote(ctx context.Context, req QuoteRequest) (*domain.Quote, error) {
	quote, err := c.quote(ctx, req)
	if err != nil {
		metrics.QuotesTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	metrics.QuotesTotal.WithLabelValues("ok").Inc()

	return quote, nil
}

func (c *Coordinator) quote(ctx context.Context, req QuoteRequest) (*domain.Quote, error) {
	seats, err := c.validate(req.Showtime, req.Seats)
	if err != nil {
		return nil, err
	}

	err = c.requireUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	reserved, err := c.Inventory.Query(ctx, req.Showtime)
	if err != nil {
		return nil, domain.InternalError(err, "query reserved seats")
	}

	if taken := overlap(seats, domain.SeatNumbers(reserved)); len(taken) > 0 {
		return nil, domain.NewConflictError(taken)
	}

	holdToken := uuid.NewString()

	err = c.Holds.Acquire(ctx, req.Showtime, seats, holdToken, c.cfg.HoldTTL)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}

		return nil, domain.InternalError(err, "acquire seat hold")
	}

	now := c.Now()
	amount := c.amount(len(seats))

	orderID, err := c.createOrder(ctx, amount, now)
	if err != nil {
		c.release(req.Showtime, seats, holdToken)
		return nil, domain.GatewayError(err)
	}

	quote := domain.Quote{
		OrderID:   orderID,
		HoldToken: holdToken,
		UserID:    req.UserID,
		Showtime:  req.Showtime,
		Seats:     seats,
		Amount:    amount,
		Currency:  c.cfg.Currency,
		ExpiresAt: now.Add(c.cfg.HoldTTL),
	}

	err = c.Holds.SaveQuote(ctx, quote, c.cfg.HoldTTL)
	if err != nil {
		c.release(req.Showtime, seats, holdToken)
		return nil, domain.InternalError(err, "save quote")
	}

	c.audit(ctx, AuditQuoteCreated, req.UserID, map[string]any{
		"order_id": orderID,
		"showtime": req.Showtime.Hash(),
		"seats":    seats,
		"amount":   amount,
		"currency": c.cfg.Currency,
	})

	return &quote, nil
}

func (c *Coordinator) createOrder(ctx context.Context, amount int64, now time.Time) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.PaymentTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.PaymentGatewayDuration.Observe(time.Since(start).Seconds())
	}()

	return c.Gateway.CreateOrder(ctx, amount, c.cfg.Currency, fmt.Sprintf("receipt_%d", now.UnixMilli()))
}

// amount returns the price of n seats in minor currency units.
func (c *Coordinator) amount(n int) int64 {
	return c.cfg.UnitPrice.Mul(decimal.NewFromInt(int64(n))).Mul(minorUnits).Round(0).IntPart()
}

func (c *Coordinator) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	result, err := c.commit(ctx, req)
	if err != nil {
		metrics.CommitsTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	if result.Replayed {
		metrics.CommitsTotal.WithLabelValues("replayed").Inc()
	} else {
		metrics.CommitsTotal.WithLabelValues("ok").Inc()
	}

	return result, nil
}

func (c *Coordinator) commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, domain.ValidationErrorf("order id, payment id and signature are required")
	}

	seats, err := c.validate(req.Showtime, req.Seats)
	if err != nil {
		return nil, err
	}

	if !c.Verifier.Verify(req.OrderID, req.PaymentID, req.Signature) {
		return nil, errors.Mark(errors.Newf("signature mismatch for order %s", req.OrderID), domain.ErrSignature)
	}

	err = c.requireUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	replay, err := c.replay(ctx, req, seats)
	if err != nil || replay != nil {
		return replay, err
	}

	quote, err := c.Holds.GetQuote(ctx, req.OrderID)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.InternalError(err, "load quote")
		}

		return c.settle(ctx, req, seats, nil, domain.ReasonHoldExpired, nil)
	}

	if quote.UserID != req.UserID || quote.Showtime != req.Showtime || !slices.Equal(quote.Seats, seats) {
		return nil, domain.ValidationErrorf("order %s was quoted for a different selection", req.OrderID)
	}

	owned, err := c.Holds.Owned(ctx, req.Showtime, seats, quote.HoldToken)
	if err != nil {
		return nil, domain.InternalError(err, "check seat hold")
	}

	if !owned {
		return c.settle(ctx, req, seats, quote, domain.ReasonHoldExpired, nil)
	}

	bookedAt := req.BookingTime
	if bookedAt.IsZero() {
		bookedAt = c.Now()
	}

	booking := domain.Booking{
		ID:       uuid.New(),
		UserID:   req.UserID,
		Showtime: req.Showtime,
		Seats:    seats,
		Payment:  domain.PaymentRef{OrderID: req.OrderID, PaymentID: req.PaymentID},
		BookedAt: bookedAt,
	}

	claim := domain.SeatClaim{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Payment:   booking.Payment,
		BookedAt:  booking.BookedAt,
	}

	reserved, err := c.Inventory.ReserveAtomic(ctx, req.Showtime, seats, c.Now(), claim)
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return c.settle(ctx, req, seats, quote, domain.ReasonSeatsTaken, conflict.Seats)
		}

		return nil, domain.InternalError(err, "reserve seats")
	}

	metrics.SeatsReserved.Add(float64(len(seats)))

	err = c.Ledger.Append(ctx, booking)
	if err != nil {
		// the repair pass appends it from the inventory claim
		c.Logger.Error("failed to append booking to ledger", "order_id", req.OrderID, "booking_id", booking.ID, "error", err)
	}

	c.release(req.Showtime, seats, quote.HoldToken)

	err = c.Holds.DeleteQuote(ctx, req.OrderID)
	if err != nil {
		c.Logger.Warn("failed to delete quote", "order_id", req.OrderID, "error", err)
	}

	c.Broadcaster.Publish(req.Showtime, reserved)

	c.audit(ctx, AuditBookingCommitted, req.UserID, map[string]any{
		"order_id":   req.OrderID,
		"payment_id": req.PaymentID,
		"booking_id": booking.ID.String(),
		"showtime":   req.Showtime.Hash(),
		"seats":      seats,
	})

	return &CommitResult{ReservedSeats: reserved, Booking: booking}, nil
}

// replay returns the result of an earlier successful commit of the same order,
// or nil when the order was never committed.
func (c *Coordinator) replay(ctx context.Context, req CommitRequest, seats []int) (*CommitResult, error) {
	booking, err := c.Ledger.GetByOrderID(ctx, req.OrderID)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.InternalError(err, "load booking by order")
	}

	if booking == nil {
		booking, err = c.Inventory.ClaimByOrder(ctx, req.OrderID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return nil, nil
			}

			return nil, domain.InternalError(err, "load claim by order")
		}

		err = c.Ledger.Append(ctx, *booking)
		if err != nil {
			c.Logger.Error("failed to append replayed booking to ledger", "order_id", req.OrderID, "error", err)
		}
	}

	if booking.UserID != req.UserID {
		return nil, domain.ValidationErrorf("order %s belongs to another user", req.OrderID)
	}

	if booking.Showtime.Hash() != req.Showtime.Hash() || !slices.Equal(booking.Seats, seats) {
		return nil, domain.ValidationErrorf("order %s was booked for a different selection", req.OrderID)
	}

	reserved, err := c.Inventory.Query(ctx, booking.Showtime)
	if err != nil {
		return nil, domain.InternalError(err, "query reserved seats")
	}

	return &CommitResult{ReservedSeats: reserved, Booking: *booking, Replayed: true}, nil
}

// settle runs when a paid order lost its hold or its seats. A concurrent commit
// of the same order may have booked it in the meantime, in which case its
// booking is returned instead of flagging the payment for a refund.
func (c *Coordinator) settle(
	ctx context.Context,
	req CommitRequest,
	seats []int,
	quote *domain.Quote,
	reason string,
	taken []int) (*CommitResult, error) {

	replay, err := c.replay(ctx, req, seats)
	if err != nil || replay != nil {
		return replay, err
	}

	holdToken := ""
	if quote != nil {
		holdToken = quote.HoldToken
	}

	return nil, c.reconcile(ctx, req, seats, quote, holdToken, reason, taken)
}

// reconcile records a paid order that could not be committed and returns the
// error the caller receives. Recording failures are logged so the payer still
// learns the order needs attention.
func (c *Coordinator) reconcile(
	ctx context.Context,
	req CommitRequest,
	seats []int,
	quote *domain.Quote,
	holdToken string,
	reason string,
	taken []int) error {

	rec := domain.Reconciliation{
		ID:         uuid.New(),
		OrderID:    req.OrderID,
		PaymentID:  req.PaymentID,
		UserID:     req.UserID,
		Showtime:   req.Showtime,
		Seats:      seats,
		TakenSeats: taken,
		Currency:   c.cfg.Currency,
		Reason:     reason,
		CreatedAt:  c.Now(),
	}

	if quote != nil {
		rec.Amount = quote.Amount
		rec.Currency = quote.Currency
	} else {
		rec.Amount = c.amount(len(seats))
	}

	c.Logger.Warn("payment requires reconciliation", "order_id", req.OrderID, "payment_id", req.PaymentID, "reason", reason, "taken_seats", taken)

	err := c.Reconciliations.Record(ctx, rec)
	if err != nil {
		c.Logger.Error("failed to record reconciliation", "order_id", req.OrderID, "error", err)
	}

	err = c.Notifier.NotifyReconciliation(ctx, rec)
	if err != nil {
		c.Logger.Error("failed to notify reconciliation", "order_id", req.OrderID, "error", err)
	}

	c.audit(ctx, AuditReconciliationRequired, req.UserID, map[string]any{
		"order_id":    req.OrderID,
		"payment_id":  req.PaymentID,
		"reason":      reason,
		"seats":       seats,
		"taken_seats": taken,
	})

	metrics.ReconciliationsTotal.WithLabelValues(reason).Inc()

	if holdToken != "" {
		c.release(req.Showtime, seats, holdToken)
	}

	return domain.NewReconciliationRequiredError(req.OrderID, reason, taken)
}

func (c *Coordinator) Bookings(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	err := c.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	bookings, err := c.Ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.InternalError(err, "list bookings")
	}

	return bookings, nil
}

func (c *Coordinator) validate(key domain.ShowtimeKey, seats []int) ([]int, error) {
	err := key.Validate()
	if err != nil {
		return nil, err
	}

	return domain.ValidateSeats(seats, key.Hall.Seats, c.cfg.MaxSeats)
}

func (c *Coordinator) requireUser(ctx context.Context, userID uuid.UUID) error {
	_, err := c.Users.GetById(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return errors.Wrapf(err, "user %s", userID)
		}

		return domain.InternalError(err, "load user")
	}

	return nil
}

// release drops a hold on a detached context so a cancelled request still
// frees its seats.
func (c *Coordinator) release(key domain.ShowtimeKey, seats []int, holdToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := c.Holds.Release(ctx, key, seats, holdToken)
	if err != nil {
		c.Logger.Warn("failed to release seat hold", "showtime", key.Hash(), "seats", seats, "error", err)
	}
}

func (c *Coordinator) audit(ctx context.Context, action string, userID uuid.UUID, data map[string]any) {
	err := c.Audit.LogEvent(ctx, action, userID, data)
	if err != nil {
		c.Logger.Warn("failed to write audit entry", "action", action, "error", err)
	}
}

func overlap(requested, reserved []int) []int {
	var taken []int
	for _, n := range requested {
		if slices.Contains(reserved, n) {
			taken = append(taken, n)
		}
	}

	return taken
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrReconciliationRequired):
		return "reconciliation_required"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrSignature):
		return "bad_signature"
	case errors.Is(err, domain.ErrRecordNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrGateway):
		return "gateway_error"
	default:
		return "error"
	}
}

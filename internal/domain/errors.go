package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrUserAlreadyExists      = errors.New("user already exists with the given contact")
	ErrConflict               = errors.New("seat(s) are already reserved")
	ErrSignature              = errors.New("payment signature is invalid")
	ErrGateway                = errors.New("payment gateway is unavailable")
	ErrRecordNotFound         = errors.New("record not found")
	ErrInternal               = errors.New("internal error")
	ErrReconciliationRequired = errors.New("payment captured but seats could not be committed")
)

// ConflictError names the seats that another booking or hold already owns.
type ConflictError struct {
	Seats []int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seat(s) %v are already reserved", e.Seats)
}

func NewConflictError(seats []int) error {
	return errors.Mark(&ConflictError{Seats: seats}, ErrConflict)
}

// Reconciliation reasons.
const (
	ReasonHoldExpired = "hold_expired"
	ReasonSeatsTaken  = "seats_taken"
)

// ReconciliationRequiredError is returned when a verified payment could not be
// turned into a booking. The payment must be refunded or resolved by an operator.
// It matches both ErrReconciliationRequired and ErrConflict.
type ReconciliationRequiredError struct {
	OrderID    string
	Reason     string
	TakenSeats []int
}

func (e *ReconciliationRequiredError) Error() string {
	if len(e.TakenSeats) > 0 {
		return fmt.Sprintf("order %s requires reconciliation (%s): seat(s) %v are already reserved", e.OrderID, e.Reason, e.TakenSeats)
	}

	return fmt.Sprintf("order %s requires reconciliation (%s)", e.OrderID, e.Reason)
}

func NewReconciliationRequiredError(orderID, reason string, taken []int) error {
	err := errors.Mark(&ReconciliationRequiredError{OrderID: orderID, Reason: reason, TakenSeats: taken}, ErrReconciliationRequired)

	return errors.Mark(err, ErrConflict)
}

func ValidationErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

func GatewayError(err error) error {
	if errors.Is(err, ErrGateway) {
		return err
	}

	return errors.Mark(errors.Wrap(err, "payment gateway"), ErrGateway)
}

func InternalError(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrInternal)
}

// Package api holds the request and response bodies of the HTTP API together
// with the OpenAPI document describing them.
package api

import (
	"time"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

// ConflictResponse is returned for coordinator conflicts and carries the seats
// that were already taken, if any.
type ConflictResponse struct {
	ErrorResponse
	OrderId    string `json:"orderId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	TakenSeats []int  `json:"takenSeats,omitempty"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type Hall struct {
	Name  string `json:"name" validate:"required"`
	Seats int    `json:"seats" validate:"gt=0"`
}

type Showtime struct {
	MovieName string `json:"movieName" validate:"required"`
	Location  string `json:"location" validate:"required"`
	Timing    string `json:"timing" validate:"required"`
	HallName  Hall   `json:"hallName" validate:"required"`
	Day       string `json:"day" validate:"required,weekday"`
	Date      string `json:"date" validate:"required,daydate"`
	Month     string `json:"month" validate:"required,month"`
}

type ReservedSeat struct {
	SeatNumber int       `json:"seatNumber"`
	ReservedAt time.Time `json:"reservedAt"`
}

type SeatsRequest struct {
	Showtime Showtime `json:"showtime" validate:"required"`
}

type SeatsResponse struct {
	ReservedSeats []ReservedSeat `json:"reservedSeats"`
}

type QuoteRequest struct {
	Showtime    Showtime  `json:"showtime" validate:"required"`
	SeatNumbers []int     `json:"seatNumbers" validate:"required,min=1,dive,gt=0"`
	UserId      uuid.UUID `json:"userId" validate:"required"`
}

type QuoteResponse struct {
	OrderId     string    `json:"orderId"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	SeatNumbers []int     `json:"seatNumbers"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type CommitRequest struct {
	OrderId     string     `json:"orderId" validate:"required"`
	PaymentId   string     `json:"paymentId" validate:"required"`
	Signature   string     `json:"signature" validate:"required"`
	Showtime    Showtime   `json:"showtime" validate:"required"`
	SeatNumbers []int      `json:"seatNumbers" validate:"required,min=1,dive,gt=0"`
	UserId      uuid.UUID  `json:"userId" validate:"required"`
	BookingTime *time.Time `json:"bookingTime,omitempty"`
}

type Booking struct {
	Id          uuid.UUID `json:"id"`
	UserId      uuid.UUID `json:"userId"`
	Showtime    Showtime  `json:"showtime"`
	SeatNumbers []int     `json:"seatNumbers"`
	OrderId     string    `json:"orderId"`
	PaymentId   string    `json:"paymentId"`
	BookedAt    time.Time `json:"bookedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CommitResponse struct {
	ReservedSeats []ReservedSeat `json:"reservedSeats"`
	Booking       Booking        `json:"booking"`
}

type BookingsResponse struct {
	Bookings []Booking `json:"bookings"`
}

type CreateUserRequest struct {
	Email string `json:"email,omitempty" validate:"required_without=Phone,omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"required_without=Email,omitempty,e164"`
}

type UserResponse struct {
	Id        uuid.UUID `json:"id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

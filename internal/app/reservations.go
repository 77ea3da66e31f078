package app

import (
	"net/http"

	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/reservation"
)

func (app *Application) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var input api.QuoteRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	quote, err := app.coordinator.Quote(r.Context(), reservation.QuoteRequest{
		Showtime: toDomainShowtime(input.Showtime),
		Seats:    input.SeatNumbers,
		UserID:   input.UserId,
	})
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := api.QuoteResponse{
		OrderId:     quote.OrderID,
		Amount:      quote.Amount,
		Currency:    quote.Currency,
		SeatNumbers: quote.Seats,
		ExpiresAt:   quote.ExpiresAt,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CommitReservation(w http.ResponseWriter, r *http.Request) {
	var input api.CommitRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	req := reservation.CommitRequest{
		OrderID:   input.OrderId,
		PaymentID: input.PaymentId,
		Signature: input.Signature,
		Showtime:  toDomainShowtime(input.Showtime),
		Seats:     input.SeatNumbers,
		UserID:    input.UserId,
	}
	if input.BookingTime != nil {
		req.BookingTime = *input.BookingTime
	}

	result, err := app.coordinator.Commit(r.Context(), req)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if result.Replayed {
		app.contextGetLogger(r).Info("returned booking for repeated confirmation", "order_id", input.OrderId)
	}

	resp := api.CommitResponse{
		ReservedSeats: toApiReservedSeats(result.ReservedSeats),
		Booking:       toApiBooking(result.Booking),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

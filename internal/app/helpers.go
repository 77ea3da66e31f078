package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const maxBodyBytes = 1_048_576

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var (
			syntaxError           *json.SyntaxError
			unmarshalTypeError    *json.UnmarshalTypeError
			invalidUnmarshalError *json.InvalidUnmarshalError
			maxBytesError         *http.MaxBytesError
		)

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

func toDomainShowtime(s api.Showtime) domain.ShowtimeKey {
	return domain.ShowtimeKey{
		Movie:    s.MovieName,
		Location: s.Location,
		Timing:   s.Timing,
		Hall:     domain.Hall{Name: s.HallName.Name, Seats: s.HallName.Seats},
		Day:      s.Day,
		Date:     s.Date,
		Month:    s.Month,
	}
}

func toApiShowtime(key domain.ShowtimeKey) api.Showtime {
	return api.Showtime{
		MovieName: key.Movie,
		Location:  key.Location,
		Timing:    key.Timing,
		HallName:  api.Hall{Name: key.Hall.Name, Seats: key.Hall.Seats},
		Day:       key.Day,
		Date:      key.Date,
		Month:     key.Month,
	}
}

func toApiReservedSeats(seats []domain.ReservedSeat) []api.ReservedSeat {
	apiSeats := make([]api.ReservedSeat, len(seats))

	for i, v := range seats {
		apiSeats[i] = api.ReservedSeat{
			SeatNumber: v.SeatNumber,
			ReservedAt: v.ReservedAt,
		}
	}

	return apiSeats
}

func toApiBooking(b domain.Booking) api.Booking {
	return api.Booking{
		Id:          b.ID,
		UserId:      b.UserID,
		Showtime:    toApiShowtime(b.Showtime),
		SeatNumbers: b.Seats,
		OrderId:     b.Payment.OrderID,
		PaymentId:   b.Payment.PaymentID,
		BookedAt:    b.BookedAt,
		CreatedAt:   b.CreatedAt,
	}
}

func toApiBookings(bookings []domain.Booking) []api.Booking {
	apiBookings := make([]api.Booking, len(bookings))

	for i, v := range bookings {
		apiBookings[i] = toApiBooking(v)
	}

	return apiBookings
}

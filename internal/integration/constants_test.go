package integration_test

import (
	"github.com/metinatakli/cinema-seat-booking/api"
)

const (
	TestUserEmail = "test@example.com"
	TestUserPhone = "+919876543210"

	TestPaymentSecret = "integration_secret"
)

var TestShowtime = api.Showtime{
	MovieName: "Interstellar",
	Location:  "Bandra",
	Timing:    "21:00",
	HallName:  api.Hall{Name: "Screen 3", Seats: 12},
	Day:       "Fri",
	Date:      "14",
	Month:     "mar",
}

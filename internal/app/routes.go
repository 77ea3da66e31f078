package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.logRequest)
	r.Use(middleware.Logger)
	r.Use(app.recoverPanic)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))

	r.Get("/healthcheck", app.GetHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/openapi.yaml", app.GetOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(app.validateBody)

		r.Post("/showtimes/seats", app.GetReservedSeats)
		r.Post("/reservations/quote", app.CreateQuote)
		r.Post("/reservations/commit", app.CommitReservation)
		r.Post("/users", app.CreateUser)
	})

	r.Get("/showtimes/seats/events", app.StreamSeatEvents)
	r.Get("/users/{userId}/bookings", app.GetUserBookings)

	return r
}

func (app *Application) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(api.Spec())
}

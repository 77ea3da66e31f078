package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/broadcast"
)

const sseKeepAlive = 25 * time.Second

func (app *Application) GetReservedSeats(w http.ResponseWriter, r *http.Request) {
	var input api.SeatsRequest

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

	seats, err := app.coordinator.Seats(r.Context(), toDomainShowtime(input.Showtime))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := api.SeatsResponse{ReservedSeats: toApiReservedSeats(seats)}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// StreamSeatEvents streams the reserved set of one showtime as server-sent
// events. The first event is a snapshot read from the inventory, every later
// event carries the full set published after a commit.
func (app *Application) StreamSeatEvents(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	showtime, err := showtimeFromQuery(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(showtime)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		app.serverErrorResponse(w, r, fmt.Errorf("response writer does not support flushing"))
		return
	}

	key := toDomainShowtime(showtime)

	// subscribe before reading so no commit falls between the two
	sub := app.hub.Subscribe(key)
	defer sub.Close()

	seats, err := app.coordinator.Seats(r.Context(), key)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err = writeEvent(w, "snapshot", api.SeatsResponse{ReservedSeats: toApiReservedSeats(seats)})
	if err != nil {
		logger.Warn("failed to write seat snapshot", "error", err)
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			_, err = fmt.Fprint(w, ": keep-alive\n\n")
		case snapshot, ok := <-sub.C:
			if !ok {
				return
			}
			err = writeEvent(w, "seats", toSeatsEvent(snapshot))
		}

		if err != nil {
			logger.Debug("seat event stream closed", "error", err)
			return
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, js)
	return err
}

func toSeatsEvent(snapshot broadcast.Snapshot) api.SeatsResponse {
	return api.SeatsResponse{ReservedSeats: toApiReservedSeats(snapshot.Seats)}
}

func showtimeFromQuery(r *http.Request) (api.Showtime, error) {
	q := r.URL.Query()

	hallSeats, err := strconv.Atoi(q.Get("hallSeats"))
	if err != nil {
		return api.Showtime{}, fmt.Errorf("hallSeats must be an integer")
	}

	return api.Showtime{
		MovieName: q.Get("movieName"),
		Location:  q.Get("location"),
		Timing:    q.Get("timing"),
		HallName:  api.Hall{Name: q.Get("hallName"), Seats: hallSeats},
		Day:       q.Get("day"),
		Date:      q.Get("date"),
		Month:     q.Get("month"),
	}, nil
}

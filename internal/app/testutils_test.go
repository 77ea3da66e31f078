package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/audit"
	"github.com/metinatakli/cinema-seat-booking/internal/broadcast"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/mailer"
	"github.com/metinatakli/cinema-seat-booking/internal/memstore"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/metinatakli/cinema-seat-booking/internal/reservation"
	"github.com/metinatakli/cinema-seat-booking/internal/validator"
)

const (
	testSecret        = "test_secret"
	ErrInternalServer = "The server encountered a problem and could not process your request"
)

var testShowtime = api.Showtime{
	MovieName: "Inception",
	Location:  "Downtown",
	Timing:    "18:30",
	HallName:  api.Hall{Name: "Audi 1", Seats: 10},
	Day:       "Mon",
	Date:      "03",
	Month:     "feb",
}

// testEnv is an application wired to the in-memory stores and the fake
// payment gateway.
type testEnv struct {
	app      *Application
	store    *memstore.Store
	gateway  *payment.FakeGateway
	verifier *payment.HMACVerifier
	hub      *broadcast.Hub
	mailer   *mailer.MockMailer
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		store:    memstore.New(),
		gateway:  payment.NewFakeGateway(),
		verifier: payment.NewHMACVerifier(testSecret),
		hub:      broadcast.NewHub(logger, 8),
		mailer:   mailer.NewMockMailer(),
	}

	coordinator := reservation.NewCoordinator(reservation.DefaultConfig(), reservation.Deps{
		Inventory:       env.store.Inventory,
		Ledger:          env.store.Ledger,
		Users:           env.store.Users,
		Holds:           env.store.Holds,
		Gateway:         env.gateway,
		Verifier:        env.verifier,
		Broadcaster:     env.hub,
		Reconciliations: env.store.Reconciliations,
		Notifier:        mailer.NewOpsNotifier(env.mailer, "ops@example.com"),
		Audit:           audit.NopAuditLogger{},
		Logger:          logger,
	})

	app, err := NewApp(Config{Env: "test", Store: StoreMemory}, logger, validator.NewValidator(), coordinator, env.store.Users, env.hub)
	if err != nil {
		t.Fatal(err)
	}

	env.app = app
	env.handler = app.Routes()

	return env
}

func (env *testEnv) createUser(t *testing.T, email string) domain.User {
	t.Helper()

	user := domain.User{Email: email}
	if err := env.store.Users.Create(context.Background(), &user); err != nil {
		t.Fatal(err)
	}

	return user
}

func (env *testEnv) do(t *testing.T, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	w, r := executeRequest(t, method, url, body)
	env.handler.ServeHTTP(w, r)

	return w
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader = http.NoBody

	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		if tt.wantErrMessage == "" {
			return
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response %+v", tt.wantErrMessage, validationResp.ValidationErrors)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}

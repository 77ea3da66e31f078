package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/app"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

const (
	dbName         = "cinema_seat_booking"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"
)

type BaseSuite struct {
	suite.Suite
	app            *TestApp
	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer
	server         *httptest.Server
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	if err != nil {
		s.T().Fatalf("failed to start container: %s", err)
	}

	redisContainer, err := getCacheContainer(ctx)
	if err != nil {
		s.T().Fatalf("failed to start container: %s", err)
	}

	s.dbContainer = postgresContainer
	s.cacheContainer = redisContainer

	cfg := app.Config{
		Port:  3000,
		Env:   "test",
		Store: app.StorePostgres,
		DB: app.DBConfig{
			DSN:          postgresContainer.ConnectionString,
			MaxOpenConns: 25,
			MaxIdleTime:  2 * time.Minute,
		},
		Redis: app.RedisConfig{
			URL:          redisContainer.ConnectionString,
			MaxOpenConns: 10,
			MaxIdleConns: 10,
			MaxIdleTime:  2 * time.Minute,
		},
		Booking: app.BookingConfig{
			HoldTTL:   10 * time.Minute,
			MaxSeats:  10,
			UnitPrice: decimal.NewFromInt(150),
			Currency:  "INR",
		},
		Payment: app.PaymentConfig{
			Provider:  app.ProviderFake,
			KeySecret: TestPaymentSecret,
			Timeout:   5 * time.Second,
		},
		SMTP: app.SMTPConfig{
			OpsEmail: "ops@example.com",
		},
	}

	testApp, err := newTestApp(cfg)
	if err != nil {
		s.T().Fatalf("cannot initialize app: %s", err)
	}

	s.app = testApp
	s.server = httptest.NewServer(testApp.App.Routes())
}

func (s *BaseSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.app != nil {
		s.app.Close()
	}
	if s.dbContainer != nil {
		if err := testcontainers.TerminateContainer(s.dbContainer.Container.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
	if s.cacheContainer != nil {
		if err := testcontainers.TerminateContainer(s.cacheContainer.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
}

// SetupTest starts every test from empty tables and an empty Redis.
func (s *BaseSuite) SetupTest() {
	ctx := context.Background()

	_, err := s.app.DB.Exec(ctx, `
		TRUNCATE TABLE payment_reconciliations, outbox, bookings, reserved_seats, showtimes, users CASCADE`)
	s.Require().NoError(err)

	s.Require().NoError(s.app.Redis.FlushDB(ctx).Err())

	s.app.Mailer.Reset()
}

type Scenario struct {
	Name             string
	Method           string
	URL              string
	Body             io.Reader
	Headers          map[string]string
	ExpectedStatus   int
	ExpectedResponse string
	BeforeTestFunc   func(t testing.TB, app *TestApp)
	AfterTestFunc    func(t testing.TB, app *TestApp, res *http.Response)
}

func (s Scenario) Run(t *testing.T, testApp *TestApp) {
	t.Run(s.Name, func(t *testing.T) {
		req := newJSONRequest(s.Method, s.URL, s.Body, s.Headers)

		if s.BeforeTestFunc != nil {
			s.BeforeTestFunc(t, testApp)
		}

		rec := httptest.NewRecorder()
		testApp.App.Routes().ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		assert.Equal(t, s.ExpectedStatus, res.StatusCode)

		if s.ExpectedResponse != "" {
			compareResponse(t, res.Body, s.ExpectedResponse)
		}

		if s.AfterTestFunc != nil {
			s.AfterTestFunc(t, testApp, res)
		}
	})
}

func jsonBody(t testing.TB, v any) io.Reader {
	t.Helper()

	js, err := json.Marshal(v)
	require.NoError(t, err)

	return strings.NewReader(string(js))
}

func (a *TestApp) do(t testing.TB, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = jsonBody(t, body)
	}

	req := newJSONRequest(method, url, reader, nil)

	rec := httptest.NewRecorder()
	a.App.Routes().ServeHTTP(rec, req)

	return rec.Result()
}

func (a *TestApp) createUser(t testing.TB, email string) api.UserResponse {
	t.Helper()

	res := a.do(t, http.MethodPost, "/users", api.CreateUserRequest{Email: email})
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var user api.UserResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&user))

	return user
}

func (a *TestApp) quote(t testing.TB, user api.UserResponse, seats ...int) api.QuoteResponse {
	t.Helper()

	res := a.do(t, http.MethodPost, "/reservations/quote", api.QuoteRequest{
		Showtime:    TestShowtime,
		SeatNumbers: seats,
		UserId:      user.Id,
	})
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var quote api.QuoteResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&quote))

	return quote
}

func (a *TestApp) commitRequest(user api.UserResponse, quote api.QuoteResponse, paymentID string) api.CommitRequest {
	return api.CommitRequest{
		OrderId:     quote.OrderId,
		PaymentId:   paymentID,
		Signature:   a.Verifier.Sign(quote.OrderId, paymentID),
		Showtime:    TestShowtime,
		SeatNumbers: quote.SeatNumbers,
		UserId:      user.Id,
	}
}

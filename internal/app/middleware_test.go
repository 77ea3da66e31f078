package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverPanic(t *testing.T) {
	env := newTestEnv(t)

	handler := env.app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w, r := executeRequest(t, http.MethodGet, "/", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "close", w.Header().Get("Connection"))

	checkErrorResponse(t, w, struct {
		wantStatus     int
		wantErrMessage string
	}{http.StatusInternalServerError, ErrInternalServer})
}

func TestValidateBody(t *testing.T) {
	tests := []struct {
		name        string
		route       string
		body        string
		wantStatus  int
		wantField   string
		wantReached bool
	}{
		{
			name:        "should pass a body matching the schema",
			route:       "/users",
			body:        `{"email":"alice@example.com"}`,
			wantStatus:  http.StatusNoContent,
			wantReached: true,
		},
		{
			name:       "should reject a body violating the schema",
			route:      "/reservations/quote",
			body:       `{"showtime":{},"seatNumbers":[0],"userId":"x"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:        "should leave malformed JSON to the handler",
			route:       "/users",
			body:        `{"email":`,
			wantStatus:  http.StatusNoContent,
			wantReached: true,
		},
		{
			name:        "should skip routes without a documented body",
			route:       "/undocumented",
			body:        `[1,2,3]`,
			wantStatus:  http.StatusNoContent,
			wantReached: true,
		},
	}

	env := newTestEnv(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				reached bool
				body    []byte
			)

			r := chi.NewRouter()
			r.With(env.app.validateBody).Post(tt.route, func(w http.ResponseWriter, r *http.Request) {
				reached = true

				buf := new(bytes.Buffer)
				_, _ = buf.ReadFrom(r.Body)
				body = buf.Bytes()

				w.WriteHeader(http.StatusNoContent)
			})

			w, req := executeRequest(t, http.MethodPost, tt.route, tt.body)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantReached, reached)

			if tt.wantReached {
				assert.Equal(t, tt.body, string(body))
				return
			}

			var resp api.ValidationErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.NotEmpty(t, resp.ValidationErrors)
		})
	}
}

func TestContextLogger(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Same(t, env.app.logger, env.app.contextGetLogger(r))

	scoped := slog.New(slog.DiscardHandler)
	r = env.app.contextSetLogger(r, scoped)
	assert.Same(t, scoped, env.app.contextGetLogger(r))

	r = r.WithContext(context.WithValue(r.Context(), contextKey("other"), "value"))
	assert.Same(t, scoped, env.app.contextGetLogger(r))
}

package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/metinatakli/cinema-seat-booking/api"
)

func (app *Application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *Application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := app.logger.With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"uri", r.URL.RequestURI(),
		)

		next.ServeHTTP(w, app.contextSetLogger(r, logger))
	})
}

// validateBody checks JSON request bodies against the request schema of the
// matching operation in the OpenAPI document. Routes without a documented body
// pass through untouched.
func (app *Application) validateBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		schema := app.requestSchema(r)
		if schema == nil {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var value any

		err = json.Unmarshal(body, &value)
		if err != nil {
			// readJSON reports a precise decoding error
			next.ServeHTTP(w, r)
			return
		}

		err = schema.VisitJSON(value, openapi3.MultiErrors())
		if err != nil {
			app.validationErrorResponse(w, r, schemaValidationErrors(err))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *Application) requestSchema(r *http.Request) *openapi3.Schema {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.RoutePattern() == "" {
		return nil
	}

	pathItem := app.openapi.Paths.Find(rctx.RoutePattern())
	if pathItem == nil {
		return nil
	}

	operation := pathItem.GetOperation(r.Method)
	if operation == nil || operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return nil
	}

	mediaType := operation.RequestBody.Value.Content.Get("application/json")
	if mediaType == nil || mediaType.Schema == nil {
		return nil
	}

	return mediaType.Schema.Value
}

func schemaValidationErrors(err error) []api.ValidationError {
	var multi openapi3.MultiError
	if !errors.As(err, &multi) {
		multi = openapi3.MultiError{err}
	}

	validationErrors := make([]api.ValidationError, 0, len(multi))
	for _, e := range multi {
		var schemaErr *openapi3.SchemaError
		if errors.As(e, &schemaErr) {
			validationErrors = append(validationErrors, api.ValidationError{
				Field: schemaField(schemaErr.JSONPointer()),
				Issue: schemaErr.Reason,
			})
			continue
		}

		validationErrors = append(validationErrors, api.ValidationError{Field: "body", Issue: e.Error()})
	}

	return validationErrors
}

func schemaField(pointer []string) string {
	if len(pointer) == 0 {
		return "body"
	}

	field := ""
	for i, p := range pointer {
		if i > 0 {
			field += "."
		}
		field += p
	}

	return field
}
